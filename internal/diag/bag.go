package diag

import (
	"sort"

	"fortio.org/safecast"
)

// Bag accumulates diagnostics up to a fixed limit.
type Bag struct {
	items []Diagnostic
	max   uint16
}

func NewBag(max int) *Bag {
	capped, err := safecast.Conv[uint16](max)
	if err != nil {
		capped = ^uint16(0)
	}
	return &Bag{
		items: make([]Diagnostic, 0, capped),
		max:   capped,
	}
}

// Add appends a diagnostic, honoring the limit.
// Returns false when the diagnostic was not recorded.
func (b *Bag) Add(d Diagnostic) bool {
	if b == nil || len(b.items) >= int(b.max) {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.items)
}

// HasErrors reports whether at least one diagnostic is an error.
func (b *Bag) HasErrors() bool {
	if b == nil {
		return false
	}
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// Items returns the recorded diagnostics. The returned slice aliases the
// bag's storage and must not be modified.
func (b *Bag) Items() []Diagnostic {
	if b == nil {
		return nil
	}
	return b.items
}

// Merge appends all diagnostics from other, growing the limit as needed.
func (b *Bag) Merge(other *Bag) {
	if b == nil || other == nil {
		return
	}
	total, err := safecast.Conv[uint16](len(b.items) + len(other.items))
	if err != nil {
		total = ^uint16(0)
	}
	if total > b.max {
		b.max = total
	}
	for _, d := range other.items {
		b.Add(d)
	}
}

// Sort orders diagnostics by path, class, member, then code, so output is
// stable across concurrent document loads.
func (b *Bag) Sort() {
	if b == nil {
		return
	}
	sort.SliceStable(b.items, func(i, j int) bool {
		a, c := b.items[i], b.items[j]
		if a.Path != c.Path {
			return a.Path < c.Path
		}
		if a.Class != c.Class {
			return a.Class < c.Class
		}
		if a.Member != c.Member {
			return a.Member < c.Member
		}
		return a.Code < c.Code
	})
}
