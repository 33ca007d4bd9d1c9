package score

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// NewSystem creates an empty system with a random root id.
func NewSystem() *System {
	return NewSystemWithID(uuid.NewString())
}

// NewSystemWithID creates an empty system with the given root id.
func NewSystemWithID(id string) *System {
	s := &System{ID: id, Meta: DefaultSystemMeta()}
	s.Reindex()
	return s
}

// The Add helpers append a child at the next ordinal, give it its address
// and mark the owning system's index stale, so the next lookup re-indexes.
// Nodes not yet attached to a system have no index to mark.

// stale drops the address index; Lookup rebuilds it on demand.
func (s *System) stale() {
	if s != nil {
		s.index = nil
	}
}

// AddStaff appends an empty staff.
func (s *System) AddStaff() *Staff {
	st := &Staff{addr: s.Address().Child(len(s.Staves)), sys: s, Meta: DefaultStaffMeta()}
	s.Staves = append(s.Staves, st)
	s.stale()
	return st
}

// AddMeasure appends an empty measure to the staff.
func (st *Staff) AddMeasure(clef Clef, key int, time TimeSignature) *Measure {
	m := &Measure{addr: st.addr.Child(len(st.Measures)), sys: st.sys, Clef: clef, Key: key, Time: time}
	st.Measures = append(st.Measures, m)
	st.sys.stale()
	return m
}

// AddVoice appends an empty voice to the measure.
func (m *Measure) AddVoice() *Voice {
	v := &Voice{addr: m.addr.Child(len(m.Voices)), sys: m.sys}
	m.Voices = append(m.Voices, v)
	m.sys.stale()
	return v
}

// AddGrouping appends an empty grouping to the voice.
func (v *Voice) AddGrouping() *Grouping {
	g := &Grouping{addr: v.addr.Child(len(v.Groupings)), sys: v.sys, Meta: DefaultGroupingMeta()}
	v.Groupings = append(v.Groupings, g)
	v.sys.stale()
	return g
}

// AddChord appends a chord entry holding a note at each distinct position.
func (g *Grouping) AddChord(d Duration, positions ...int) *Chord {
	e := &Entry{addr: g.addr.Child(len(g.Entries))}
	e.Chord = &Chord{addr: e.addr, sys: g.sys, Duration: d}
	for _, p := range positions {
		e.Chord.AddNote(p, AccidentalNone)
	}
	g.Entries = append(g.Entries, e)
	g.sys.stale()
	return e.Chord
}

// AddRest appends a rest entry.
func (g *Grouping) AddRest(d Duration, position int) *Rest {
	e := &Entry{addr: g.addr.Child(len(g.Entries))}
	e.Rest = &Rest{addr: e.addr, Duration: d, Position: position, Meta: DefaultLeafMeta()}
	g.Entries = append(g.Entries, e)
	g.sys.stale()
	return e.Rest
}

// AddNote inserts a note keeping the chord ordered by position. It returns
// nil when the position is already taken.
func (c *Chord) AddNote(position int, accidental Accidental) *Note {
	i, found := slices.BinarySearchFunc(c.Notes, position, func(n *Note, p int) int {
		return n.Position - p
	})
	if found {
		return nil
	}
	n := &Note{addr: c.addr.Child(position), Position: position, Accidental: accidental, Meta: DefaultLeafMeta()}
	c.Notes = slices.Insert(c.Notes, i, n)
	c.sys.stale()
	return n
}

// newRestMeasure builds the measure InsertRow places: one voice, one
// grouping, one whole rest at the clef's rest position.
func newRestMeasure(clef Clef, key int, time TimeSignature) *Measure {
	m := &Measure{Clef: clef, Key: key, Time: time}
	m.AddVoice().AddGrouping().AddRest(Whole, clef.RestPosition())
	return m
}

// MeasureCount returns the number of measures per staff.
func (s *System) MeasureCount() int {
	if len(s.Staves) == 0 {
		return 0
	}
	return len(s.Staves[0].Measures)
}

// EntryCount returns the number of grouping entries in the whole tree.
func (s *System) EntryCount() int {
	count := 0
	for _, st := range s.Staves {
		for _, m := range st.Measures {
			count += m.EntryCount()
		}
	}
	return count
}

// EntryCount returns the number of entries across all voices of the measure.
func (m *Measure) EntryCount() int {
	count := 0
	for _, v := range m.Voices {
		for _, g := range v.Groupings {
			count += len(g.Entries)
		}
	}
	return count
}

// Entries returns the voice's entries flattened across its groupings.
func (v *Voice) Entries() []*Entry {
	var out []*Entry
	for _, g := range v.Groupings {
		out = append(out, g.Entries...)
	}
	return out
}

// Lookup returns the node at an address. Entries stand for the chord or rest
// they hold. The index is built on first use and by every Reindex.
func (s *System) Lookup(a Address) (Node, bool) {
	if s.index == nil {
		s.Reindex()
	}
	n, ok := s.index[a]
	return n, ok
}

// StaffAt returns the staff at a staff address.
func (s *System) StaffAt(a Address) (*Staff, bool) { return lookupAs[*Staff](s, a) }

// MeasureAt returns the measure at a measure address.
func (s *System) MeasureAt(a Address) (*Measure, bool) { return lookupAs[*Measure](s, a) }

// VoiceAt returns the voice at a voice address.
func (s *System) VoiceAt(a Address) (*Voice, bool) { return lookupAs[*Voice](s, a) }

// GroupingAt returns the grouping at a grouping address.
func (s *System) GroupingAt(a Address) (*Grouping, bool) { return lookupAs[*Grouping](s, a) }

// EntryAt returns the entry at an entry address.
func (s *System) EntryAt(a Address) (*Entry, bool) { return lookupAs[*Entry](s, a) }

// NoteAt returns the note at a note address.
func (s *System) NoteAt(a Address) (*Note, bool) { return lookupAs[*Note](s, a) }

// LeafAt returns the note at a note address or the rest at an entry address.
func (s *System) LeafAt(a Address) (Leaf, bool) {
	switch a.Level {
	case LevelNote:
		return s.NoteAt(a)
	case LevelEntry:
		if e, ok := s.EntryAt(a); ok && e.Rest != nil {
			return e.Rest, true
		}
	}
	return nil, false
}

// Resolve parses an address key and returns the node it names. A key of
// another score, or one naming no node, wraps ErrAddressNotFound.
func (s *System) Resolve(key string) (Node, error) {
	a, err := ParseAddress(key)
	if err != nil {
		return nil, err
	}
	if a.Root != s.ID {
		return nil, fmt.Errorf("%w: %s belongs to score %q", ErrAddressNotFound, key, a.Root)
	}
	n, ok := s.Lookup(a)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAddressNotFound, key)
	}
	return n, nil
}

func lookupAs[T Node](s *System, a Address) (T, bool) {
	n, ok := s.Lookup(a)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := n.(T)
	return t, ok
}

// Walk visits every node in document order: each container before its
// children, an entry before its notes. Rests are reported through their
// entry. Returning false from fn stops the walk.
func (s *System) Walk(fn func(Node) bool) {
	if !fn(s) {
		return
	}
	for _, st := range s.Staves {
		if !fn(st) {
			return
		}
		for _, m := range st.Measures {
			if !fn(m) {
				return
			}
			for _, v := range m.Voices {
				if !fn(v) {
					return
				}
				for _, g := range v.Groupings {
					if !fn(g) {
						return
					}
					for _, e := range g.Entries {
						if !fn(e) {
							return
						}
						if e.Chord == nil {
							continue
						}
						for _, n := range e.Chord.Notes {
							if !fn(n) {
								return
							}
						}
					}
				}
			}
		}
	}
}

// Clone returns a deep copy of the system with a fresh index.
func (s *System) Clone() *System {
	c := &System{ID: s.ID, Meta: s.Meta}
	c.Meta.RowLengths = slices.Clone(s.Meta.RowLengths)
	for _, st := range s.Staves {
		c.Staves = append(c.Staves, st.clone())
	}
	c.Reindex()
	return c
}

// MeasureSlice returns a deep copy holding only measure ordinal i of each
// staff, re-addressed as measure 0. It is what a layout pass hands the
// rendering oracle for one chunk.
func (s *System) MeasureSlice(i int) *System {
	c := &System{ID: s.ID, Meta: s.Meta}
	c.Meta.RowLengths = nil
	for _, st := range s.Staves {
		cs := &Staff{Meta: st.Meta}
		if i >= 0 && i < len(st.Measures) {
			cs.Measures = []*Measure{st.Measures[i].clone()}
		}
		c.Staves = append(c.Staves, cs)
	}
	c.Reindex()
	return c
}

func (st *Staff) clone() *Staff {
	c := &Staff{addr: st.addr, Meta: st.Meta}
	for _, m := range st.Measures {
		c.Measures = append(c.Measures, m.clone())
	}
	return c
}

func (m *Measure) clone() *Measure {
	c := &Measure{addr: m.addr, Key: m.Key, Time: m.Time, Clef: m.Clef, Meta: m.Meta}
	for _, v := range m.Voices {
		cv := &Voice{addr: v.addr}
		for _, g := range v.Groupings {
			cg := &Grouping{addr: g.addr, Meta: g.Meta}
			for _, e := range g.Entries {
				cg.Entries = append(cg.Entries, e.clone())
			}
			cv.Groupings = append(cv.Groupings, cg)
		}
		c.Voices = append(c.Voices, cv)
	}
	return c
}

func (e *Entry) clone() *Entry {
	c := &Entry{addr: e.addr}
	if e.Rest != nil {
		r := *e.Rest
		c.Rest = &r
	}
	if e.Chord != nil {
		ch := &Chord{addr: e.Chord.addr, Duration: e.Chord.Duration, Dots: e.Chord.Dots}
		for _, n := range e.Chord.Notes {
			cn := *n
			ch.Notes = append(ch.Notes, &cn)
		}
		c.Chord = ch
	}
	return c
}
