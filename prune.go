package score

import "slices"

// Prune removes, bottom-up, every entry without a rest or a chord holding at
// least one note, then every grouping, voice, measure and staff left with no
// children. The system itself is never removed. The tree is re-indexed
// afterwards. Prune returns how many nodes it removed.
func (s *System) Prune() int {
	removed := 0
	s.Staves = slices.DeleteFunc(s.Staves, func(st *Staff) bool {
		st.Measures = slices.DeleteFunc(st.Measures, func(m *Measure) bool {
			m.Voices = slices.DeleteFunc(m.Voices, func(v *Voice) bool {
				v.Groupings = slices.DeleteFunc(v.Groupings, func(g *Grouping) bool {
					g.Entries = slices.DeleteFunc(g.Entries, func(e *Entry) bool {
						return drop(&removed, !e.holdsEvent())
					})
					return drop(&removed, len(g.Entries) == 0)
				})
				return drop(&removed, len(v.Groupings) == 0)
			})
			return drop(&removed, len(m.Voices) == 0)
		})
		return drop(&removed, len(st.Measures) == 0)
	})
	s.Reindex()
	return removed
}

func (e *Entry) holdsEvent() bool {
	return e.Rest != nil || (e.Chord != nil && len(e.Chord.Notes) > 0)
}

func drop(count *int, empty bool) bool {
	if empty {
		*count++
	}
	return empty
}
