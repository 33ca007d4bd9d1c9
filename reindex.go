package score

import (
	"errors"
	"slices"
)

// Reindex walks the tree top-down, gives every node the address matching its
// position in its parent's list, and rebuilds the address index. Note
// addresses take the note's position as their last component, so chords are
// re-sorted by position on the way. Calling it twice is the same as calling
// it once.
func (s *System) Reindex() {
	index := make(map[Address]Node, len(s.index))
	root := s.Address()
	index[root] = s

	for si, st := range s.Staves {
		st.addr, st.sys = root.Child(si), s
		index[st.addr] = st
		for mi, m := range st.Measures {
			m.addr, m.sys = st.addr.Child(mi), s
			index[m.addr] = m
			for vi, v := range m.Voices {
				v.addr, v.sys = m.addr.Child(vi), s
				index[v.addr] = v
				for gi, g := range v.Groupings {
					g.addr, g.sys = v.addr.Child(gi), s
					index[g.addr] = g
					for ei, e := range g.Entries {
						e.reindex(s, g.addr.Child(ei), index)
					}
				}
			}
		}
	}
	s.index = index
}

func (e *Entry) reindex(s *System, addr Address, index map[Address]Node) {
	e.addr = addr
	index[addr] = e
	if e.Rest != nil {
		e.Rest.addr = addr
	}
	if e.Chord == nil {
		return
	}
	e.Chord.addr, e.Chord.sys = addr, s
	slices.SortStableFunc(e.Chord.Notes, func(a, b *Note) int { return a.Position - b.Position })
	for _, n := range e.Chord.Notes {
		n.addr = addr.Child(n.Position)
		index[n.addr] = n
	}
}

// Validate reports every structural violation in the tree: entries holding
// both or neither of chord and rest, chords with duplicate note positions,
// staves with unequal measure counts, and nodes whose address disagrees with
// their position. The result wraps ErrStructuralViolation, or is nil.
func (s *System) Validate() error {
	var errs []error
	root := s.Address()

	for si, st := range s.Staves {
		if len(st.Measures) != len(s.Staves[0].Measures) {
			errs = append(errs, violation(st.addr, "%d measures, staff 0 has %d", len(st.Measures), len(s.Staves[0].Measures)))
		}
		want := root.Child(si)
		errs = appendMisplaced(errs, st, want)
		for mi, m := range st.Measures {
			want := want.Child(mi)
			errs = appendMisplaced(errs, m, want)
			for vi, v := range m.Voices {
				want := want.Child(vi)
				errs = appendMisplaced(errs, v, want)
				for gi, g := range v.Groupings {
					want := want.Child(gi)
					errs = appendMisplaced(errs, g, want)
					for ei, e := range g.Entries {
						errs = append(errs, e.validate(want.Child(ei))...)
					}
				}
			}
		}
	}
	return errors.Join(errs...)
}

func (e *Entry) validate(want Address) []error {
	errs := appendMisplaced(nil, e, want)
	switch {
	case e.Chord != nil && e.Rest != nil:
		errs = append(errs, violation(want, "entry holds both a chord and a rest"))
	case e.Chord == nil && e.Rest == nil:
		errs = append(errs, violation(want, "entry holds neither a chord nor a rest"))
	case e.Chord != nil:
		for i, n := range e.Chord.Notes {
			if i > 0 && e.Chord.Notes[i-1].Position >= n.Position {
				errs = append(errs, violation(want, "note positions not strictly ascending at %d", n.Position))
			}
			errs = appendMisplaced(errs, n, want.Child(n.Position))
		}
	}
	return errs
}

func appendMisplaced(errs []error, n Node, want Address) []error {
	if got := n.Address(); got != want {
		errs = append(errs, violation(want, "node carries stale address %s", got.Key()))
	}
	return errs
}
