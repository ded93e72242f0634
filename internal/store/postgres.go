package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/yourorg/pg-finder/internal/listing"
)

type Store struct{ DB *sql.DB }

type Options struct {
	MaxOpen int
	MaxIdle int
}

func Open(dsn string, opts Options) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if opts.MaxOpen <= 0 {
		opts.MaxOpen = 10
	}
	if opts.MaxIdle <= 0 {
		opts.MaxIdle = 5
	}
	db.SetMaxOpenConns(opts.MaxOpen)
	db.SetMaxIdleConns(opts.MaxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{DB: db}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *Store) Close() error { return s.DB.Close() }

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
	`CREATE TABLE IF NOT EXISTS listings (
        id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
        owner_id          TEXT,
        title             TEXT NOT NULL,
        description       TEXT NOT NULL DEFAULT '',
        location          TEXT NOT NULL,
        address           TEXT NOT NULL DEFAULT '',
        price             NUMERIC NOT NULL CHECK (price >= 0),
        price_single      NUMERIC CHECK (price_single >= 0),
        price_double      NUMERIC CHECK (price_double >= 0),
        price_triple      NUMERIC CHECK (price_triple >= 0),
        gender_preference TEXT NOT NULL DEFAULT 'co-living',
        amenities         JSONB NOT NULL DEFAULT '[]',
        images            JSONB NOT NULL DEFAULT '[]',
        rating            NUMERIC CHECK (rating >= 0 AND rating <= 5),
        virtual_tour_url  TEXT,
        available         BOOLEAN NOT NULL DEFAULT true,
        rooms_available   INTEGER NOT NULL DEFAULT 0,
        created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
    );`,
	`CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_listings_owner ON listings(owner_id);`,
	`CREATE TABLE IF NOT EXISTS reviews (
        id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
        listing_id  UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
        user_id     TEXT,
        user_name   TEXT,
        rating      SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
        comment     TEXT NOT NULL DEFAULT '',
        created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
    );`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_listing ON reviews(listing_id, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS inquiries (
        id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
        listing_id  UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
        user_id     TEXT,
        name        TEXT NOT NULL,
        email       TEXT NOT NULL,
        phone       TEXT NOT NULL DEFAULT '',
        message     TEXT NOT NULL,
        created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
    );`,
	`CREATE INDEX IF NOT EXISTS idx_inquiries_listing ON inquiries(listing_id);`,
}

func (s *Store) Migrate(ctx context.Context) error {
	for _, q := range migrations {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

const listingColumns = `id::text, COALESCE(owner_id, ''), title, description, location, address,
    price, COALESCE(price_single, price), COALESCE(price_double, price), COALESCE(price_triple, price),
    gender_preference, amenities, images, rating, COALESCE(virtual_tour_url, ''), available,
    rooms_available, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(rs rowScanner) (listing.Listing, error) {
	var (
		l               listing.Listing
		gender          string
		amenities, imgs []byte
		rating          sql.NullFloat64
	)
	err := rs.Scan(&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.Location, &l.Address,
		&l.Price, &l.PriceSingle, &l.PriceDouble, &l.PriceTriple,
		&gender, &amenities, &imgs, &rating, &l.VirtualTourURL, &l.Available,
		&l.RoomsAvailable, &l.CreatedAt)
	if err != nil {
		return l, err
	}
	l.GenderPreference = listing.GenderPreference(gender)
	if err := decodeStrings(amenities, &l.Amenities); err != nil {
		return l, fmt.Errorf("listing %s amenities: %w", l.ID, err)
	}
	if err := decodeStrings(imgs, &l.Images); err != nil {
		return l, fmt.Errorf("listing %s images: %w", l.ID, err)
	}
	if rating.Valid {
		l.Rating = listing.Float64(rating.Float64)
	}
	return listing.Normalize(l), nil
}

func decodeStrings(raw []byte, dst *[]string) error {
	if len(raw) == 0 {
		*dst = []string{}
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func encodeStrings(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func nullRating(r *float64) sql.NullFloat64 {
	if r == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *r, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ListListings returns every listing, newest first.
func (s *Store) ListListings(ctx context.Context) ([]listing.Listing, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+listingColumns+` FROM listings ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []listing.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) GetListing(ctx context.Context, id string) (listing.Listing, error) {
	l, err := scanListing(s.DB.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id::text = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return l, listing.ErrNotFound
	}
	return l, err
}

// InsertListing stores l. Empty ID and zero CreatedAt are assigned by the database.
func (s *Store) InsertListing(ctx context.Context, l listing.Listing) (listing.Listing, error) {
	created := l.CreatedAt
	row := s.DB.QueryRowContext(ctx, `
        INSERT INTO listings (id, owner_id, title, description, location, address, price,
            price_single, price_double, price_triple, gender_preference, amenities, images,
            rating, virtual_tour_url, available, rooms_available, created_at)
        VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7,
            $8, $9, $10, $11, $12::jsonb, $13::jsonb, $14, $15, $16, $17,
            COALESCE($18::timestamptz, now()))
        ON CONFLICT (id) DO UPDATE SET
            title=EXCLUDED.title, description=EXCLUDED.description, location=EXCLUDED.location,
            address=EXCLUDED.address, price=EXCLUDED.price, price_single=EXCLUDED.price_single,
            price_double=EXCLUDED.price_double, price_triple=EXCLUDED.price_triple,
            gender_preference=EXCLUDED.gender_preference, amenities=EXCLUDED.amenities,
            images=EXCLUDED.images, rating=EXCLUDED.rating, virtual_tour_url=EXCLUDED.virtual_tour_url,
            available=EXCLUDED.available, rooms_available=EXCLUDED.rooms_available
        RETURNING `+listingColumns,
		l.ID, nullString(l.OwnerID), l.Title, l.Description, l.Location, l.Address, l.Price,
		l.PriceSingle, l.PriceDouble, l.PriceTriple, string(l.GenderPreference),
		encodeStrings(l.Amenities), encodeStrings(l.Images),
		nullRating(l.Rating), nullString(l.VirtualTourURL), l.Available, l.RoomsAvailable,
		sql.NullTime{Time: created, Valid: !created.IsZero()},
	)
	return scanListing(row)
}

func (s *Store) UpdateAvailability(ctx context.Context, ownerID, id string, available bool) (listing.Listing, error) {
	l, err := scanListing(s.DB.QueryRowContext(ctx, `
        UPDATE listings SET available = $3
        WHERE id::text = $1 AND owner_id = $2
        RETURNING `+listingColumns, id, ownerID, available))
	if errors.Is(err, sql.ErrNoRows) {
		return l, listing.ErrNotFound
	}
	return l, err
}

func (s *Store) DeleteListing(ctx context.Context, ownerID, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM listings WHERE id::text = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return listing.ErrNotFound
	}
	return nil
}

func (s *Store) ListReviews(ctx context.Context, listingID string) ([]listing.Review, error) {
	rows, err := s.DB.QueryContext(ctx, `
        SELECT id::text, listing_id::text, COALESCE(user_id, ''), COALESCE(user_name, ''), rating, comment, created_at
        FROM reviews WHERE listing_id::text = $1 ORDER BY created_at DESC`, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []listing.Review{}
	for rows.Next() {
		var r listing.Review
		if err := rows.Scan(&r.ID, &r.ListingID, &r.UserID, &r.UserName, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) InsertReview(ctx context.Context, r listing.Review) (listing.Review, error) {
	err := s.DB.QueryRowContext(ctx, `
        INSERT INTO reviews (listing_id, user_id, user_name, rating, comment)
        VALUES ($1::uuid, $2, $3, $4, $5)
        RETURNING id::text, created_at`,
		r.ListingID, nullString(r.UserID), nullString(r.UserName), r.Rating, r.Comment,
	).Scan(&r.ID, &r.CreatedAt)
	return r, err
}

func (s *Store) InsertInquiry(ctx context.Context, q listing.Inquiry) (listing.Inquiry, error) {
	err := s.DB.QueryRowContext(ctx, `
        INSERT INTO inquiries (listing_id, user_id, name, email, phone, message)
        VALUES ($1::uuid, $2, $3, $4, $5, $6)
        RETURNING id::text, created_at`,
		q.ListingID, nullString(q.UserID), q.Name, q.Email, q.Phone, q.Message,
	).Scan(&q.ID, &q.CreatedAt)
	return q, err
}
