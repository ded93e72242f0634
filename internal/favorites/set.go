// Package favorites keeps each signed-in user's wishlist of listing ids.
package favorites

// Set is an insertion-ordered set of listing ids.
type Set struct {
	ids   []string
	index map[string]struct{}
}

func NewSet(ids ...string) Set {
	s := Set{index: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s = s.With(id)
	}
	return s
}

// With returns a copy of s containing id. Empty ids are ignored.
func (s Set) With(id string) Set {
	if id == "" || s.Contains(id) {
		return s
	}
	out := s.clone()
	out.ids = append(out.ids, id)
	out.index[id] = struct{}{}
	return out
}

func (s Set) Without(id string) Set {
	if !s.Contains(id) {
		return s
	}
	out := Set{index: make(map[string]struct{}, len(s.ids))}
	for _, v := range s.ids {
		if v != id {
			out.ids = append(out.ids, v)
			out.index[v] = struct{}{}
		}
	}
	return out
}

func (s Set) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s Set) Len() int { return len(s.ids) }

// IDs returns the ids in insertion order. The result is never nil.
func (s Set) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s Set) clone() Set {
	out := Set{
		ids:   make([]string, len(s.ids), len(s.ids)+1),
		index: make(map[string]struct{}, len(s.ids)+1),
	}
	copy(out.ids, s.ids)
	for k := range s.index {
		out.index[k] = struct{}{}
	}
	return out
}
