package score

import (
	"testing"

	"pgregory.net/rapid"
)

const testRoot = "r"

// quarterScore builds one treble 4/4 measure holding four quarter chords,
// each with a single note at position 0.
func quarterScore() *System {
	s := NewSystemWithID(testRoot)
	g := s.AddStaff().AddMeasure(Treble, 0, CommonTime).AddVoice().AddGrouping()
	for range 4 {
		g.AddChord(Quarter, 0)
	}
	s.Reindex()
	return s
}

// gridScore builds staves × measures, each measure one voice of one grouping
// with perMeasure quarter chords. The single note of entry e in measure m
// sits at position 10*m + e.
func gridScore(staves, measures, perMeasure int) *System {
	s := NewSystemWithID(testRoot)
	for range staves {
		st := s.AddStaff()
		for m := range measures {
			g := st.AddMeasure(Treble, 0, CommonTime).AddVoice().AddGrouping()
			for e := range perMeasure {
				g.AddChord(Quarter, 10*m+e)
			}
		}
	}
	s.Reindex()
	return s
}

func newTestCursor(t *testing.T, s *System, opts ...CursorOption) *Cursor {
	t.Helper()
	c, err := NewCursor(s, opts...)
	if err != nil {
		t.Fatalf("NewCursor failed: %v", err)
	}
	return c
}

// addresses lists every node address in walk order.
func addresses(s *System) []Address {
	var out []Address
	s.Walk(func(n Node) bool {
		out = append(out, n.Address())
		return true
	})
	return out
}

// highlighted lists the addresses of every highlighted leaf.
func highlighted(s *System) []Address {
	var out []Address
	s.Walk(func(n Node) bool {
		switch n := n.(type) {
		case *Note:
			if n.Meta.Highlight {
				out = append(out, n.Address())
			}
		case *Entry:
			if n.Rest != nil && n.Rest.Meta.Highlight {
				out = append(out, n.Address())
			}
		}
		return true
	})
	return out
}

// scoreGen draws well-formed trees. Every measure of a tree has the same
// number of voices so cursor moves between measures are reversible.
func scoreGen() *rapid.Generator[*System] {
	return rapid.Custom(func(t *rapid.T) *System {
		s := NewSystemWithID(testRoot)
		staves := rapid.IntRange(1, 3).Draw(t, "staves")
		measures := rapid.IntRange(1, 4).Draw(t, "measures")
		voices := rapid.IntRange(1, 2).Draw(t, "voices")
		for range staves {
			st := s.AddStaff()
			for range measures {
				m := st.AddMeasure(Treble, 0, CommonTime)
				for range voices {
					v := m.AddVoice()
					for range rapid.IntRange(1, 2).Draw(t, "groupings") {
						g := v.AddGrouping()
						for range rapid.IntRange(1, 3).Draw(t, "entries") {
							d := Duration(rapid.IntRange(int(Whole), int(SixtyFourth)).Draw(t, "duration"))
							if rapid.Bool().Draw(t, "rest") {
								g.AddRest(d, rapid.IntRange(-8, 8).Draw(t, "restPosition"))
								continue
							}
							positions := rapid.SliceOfNDistinct(rapid.IntRange(-10, 10), 1, 3, rapid.ID[int]).Draw(t, "positions")
							g.AddChord(d, positions...)
						}
					}
				}
			}
		}
		s.Reindex()
		return s
	})
}
