// Package metadata implements the tilleggsopplysninger codec: structured
// values chunked across ordered, length-limited key-value pairs, the only
// structured-storage channel the external archive exposes.
package metadata

// Pair is a single tilleggsopplysning entry. Keys are not unique and
// insertion order is significant.
type Pair struct {
	Key   string `json:"nokkel"`
	Value string `json:"verdi"`
}

// Pairs is an ordered list of metadata entries.
type Pairs []Pair

// Get returns the value of the first pair with the exact key.
func (p Pairs) Get(key string) (string, bool) {
	for _, pair := range p {
		if pair.Key == key {
			return pair.Value, true
		}
	}
	return "", false
}

// HasFlag reports whether a boolean-valued key is set to "true".
func (p Pairs) HasFlag(key string) bool {
	v, ok := p.Get(key)
	return ok && v == "true"
}

// SetFlag sets a boolean-valued key in place, replacing an existing pair with
// the same key or appending a new one.
func (p Pairs) SetFlag(key string, on bool) Pairs {
	value := "false"
	if on {
		value = "true"
	}
	for i, pair := range p {
		if pair.Key == key {
			p[i].Value = value
			return p
		}
	}
	return append(p, Pair{Key: key, Value: value})
}

// Set assigns a single-valued key in place, replacing an existing pair with
// the same key or appending a new one.
func (p Pairs) Set(key, value string) Pairs {
	for i, pair := range p {
		if pair.Key == key {
			p[i].Value = value
			return p
		}
	}
	return append(p, Pair{Key: key, Value: value})
}

// WithoutPrefix returns a copy with every pair whose key starts with the
// given prefix removed. Used when duplicating a journalpost without its
// distribution history.
func (p Pairs) WithoutPrefix(prefix string) Pairs {
	out := make(Pairs, 0, len(p))
	for _, pair := range p {
		if !hasChunkKey(pair.Key, prefix) && pair.Key != prefix {
			out = append(out, pair)
		}
	}
	return out
}

// Clone returns a copy the caller may mutate freely.
func (p Pairs) Clone() Pairs {
	out := make(Pairs, len(p))
	copy(out, p)
	return out
}
