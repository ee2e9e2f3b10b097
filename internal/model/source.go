package model

// NormalizedKey join key derived from a person's name
type NormalizedKey string

// Index keyed entries that remember insertion order and every spelling seen per key.
// A nil *Index behaves as an empty index.
type Index[E any] struct {
	entries map[NormalizedKey]E
	names   map[NormalizedKey][]string
	keys    []NormalizedKey
}

// NewIndex creates an empty index
func NewIndex[E any]() *Index[E] {
	return &Index[E]{
		entries: make(map[NormalizedKey]E),
		names:   make(map[NormalizedKey][]string),
	}
}

// Put stores e under key. A repeated key keeps its first position and the last value.
func (ix *Index[E]) Put(key NormalizedKey, originalName string, e E) {
	if _, ok := ix.entries[key]; !ok {
		ix.keys = append(ix.keys, key)
	}
	ix.entries[key] = e
	ix.names[key] = append(ix.names[key], originalName)
}

// Get returns the entry for key
func (ix *Index[E]) Get(key NormalizedKey) (E, bool) {
	var zero E
	if ix == nil {
		return zero, false
	}
	e, ok := ix.entries[key]
	return e, ok
}

// Name returns the last original spelling stored under key
func (ix *Index[E]) Name(key NormalizedKey) string {
	if ix == nil {
		return ""
	}
	names := ix.names[key]
	if len(names) == 0 {
		return ""
	}
	return names[len(names)-1]
}

// Keys returns keys in first-seen order
func (ix *Index[E]) Keys() []NormalizedKey {
	if ix == nil {
		return nil
	}
	return ix.keys
}

// Len number of distinct keys
func (ix *Index[E]) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.keys)
}

// Collisions lists keys that were written more than once, with every spelling seen.
func (ix *Index[E]) Collisions() []Collision {
	if ix == nil {
		return nil
	}
	var out []Collision
	for _, k := range ix.keys {
		if names := ix.names[k]; len(names) > 1 {
			out = append(out, Collision{Key: k, Names: append([]string(nil), names...)})
		}
	}
	return out
}

// Collision several source rows mapped to one key
type Collision struct {
	Key   NormalizedKey `json:"key"`
	Names []string      `json:"names"`
}

// BonusSource one bonus column: a title plus amounts by person
type BonusSource struct {
	Title   string
	Amounts *Index[float64]
}

// RetroEntry truy lĩnh figures for one person
type RetroEntry struct {
	TaxableIncome float64 `json:"taxableIncome"` // cột J
	Insurance     float64 `json:"insurance"`     // K + L + M
}
