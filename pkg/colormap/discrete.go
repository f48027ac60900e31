package colormap

import "fmt"

// Discrete is a colormap defined by a fixed table of color entries, such
// as a user-supplied custom palette. No interpolation between entries is
// defined: sampling can only select from the native entries.
type Discrete struct {
	name    string
	entries Palette
}

// NewDiscrete builds a discrete colormap from its native entries.
func NewDiscrete(name string, entries Palette) (Discrete, error) {
	if len(entries) == 0 {
		return Discrete{}, fmt.Errorf("discrete colormap %q has no entries", name)
	}
	copied := make(Palette, len(entries))
	copy(copied, entries)
	return Discrete{name: name, entries: copied}, nil
}

// Sample selects k entries from the native table. k equal to the native
// size returns the entries unmodified in order; a smaller k takes every
// n/k-th native entry starting from the first. k larger than the native
// size fails, since new colors cannot be fabricated from a discrete table.
func (d Discrete) Sample(k int) (Palette, error) {
	n := len(d.entries)
	if k <= 0 || k > n {
		return nil, fmt.Errorf("%w: %d colors requested from a %d-entry table", ErrInvalidSize, k, n)
	}
	out := make(Palette, k)
	for i := 0; i < k; i++ {
		out[i] = d.entries[i*n/k]
	}
	return out, nil
}

// Size returns the number of native entries.
func (d Discrete) Size() int { return len(d.entries) }

func (d Discrete) String() string { return d.name }
