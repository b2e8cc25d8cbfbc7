package domain

import (
	"encoding/json"
	"fmt"
)

// Pool is the multiset of a side's unplaced piece kinds, counted per kind.
type Pool [KindCount]uint8

// FullPool returns a pool holding one piece of every kind.
func FullPool() Pool {
	var p Pool
	for i := range p {
		p[i] = 1
	}
	return p
}

// Has reports whether the pool holds at least one piece of kind.
func (p Pool) Has(kind PieceKind) bool {
	if !kind.Valid() {
		return false
	}
	return p[kind-1] > 0
}

// Len returns the number of pieces in the pool.
func (p Pool) Len() int {
	n := 0
	for _, c := range p {
		n += int(c)
	}
	return n
}

// Kinds returns the distinct kinds present, in canonical order.
func (p Pool) Kinds() []PieceKind {
	out := make([]PieceKind, 0, KindCount)
	for _, k := range Kinds {
		if p.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (p *Pool) take(kind PieceKind) bool {
	if !p.Has(kind) {
		return false
	}
	p[kind-1]--
	return true
}

func (p *Pool) give(kind PieceKind) {
	p[kind-1]++
}

// MarshalJSON encodes the pool as a list of kind names.
func (p Pool) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, p.Len())
	for _, k := range Kinds {
		for i := 0; i < int(p[k-1]); i++ {
			names = append(names, k.String())
		}
	}
	return json.Marshal(names)
}

// UnmarshalJSON decodes a list of kind names.
func (p *Pool) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	var out Pool
	for _, name := range names {
		k, ok := ParsePieceKind(name)
		if !ok {
			return fmt.Errorf("unknown piece kind %q", name)
		}
		out.give(k)
	}
	*p = out
	return nil
}
