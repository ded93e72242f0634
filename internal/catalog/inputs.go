package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ListingInput struct {
	Title            string   `json:"title" validate:"required,max=120"`
	Description      string   `json:"description" validate:"max=4000"`
	Location         string   `json:"location" validate:"required,max=200"`
	Address          string   `json:"address" validate:"max=300"`
	Price            float64  `json:"price" validate:"gt=0,lte=1000000"`
	PriceSingle      float64  `json:"price_single" validate:"gte=0,lte=1000000"`
	PriceDouble      float64  `json:"price_double" validate:"gte=0,lte=1000000"`
	PriceTriple      float64  `json:"price_triple" validate:"gte=0,lte=1000000"`
	GenderPreference string   `json:"gender_preference" validate:"omitempty,oneof=men women co-living"`
	Amenities        []string `json:"amenities" validate:"max=30,dive,required,max=64"`
	Images           []string `json:"images" validate:"max=10,dive,url"`
	VirtualTourURL   string   `json:"virtual_tour_url" validate:"omitempty,url"`
	RoomsAvailable   int      `json:"rooms_available" validate:"gte=0,lte=500"`
	Available        *bool    `json:"available"`
}

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type InquiryInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,max=20"`
	Message string `json:"message" validate:"required,max=2000"`
}

// describe flattens validator errors into "field: rule" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}
