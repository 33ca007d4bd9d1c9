package score

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

func TestBuildersAssignAddresses(t *testing.T) {
	s := NewSystemWithID(testRoot)
	st := s.AddStaff()
	m := st.AddMeasure(Bass, -2, TimeSignature{Beats: 3, Unit: 4})
	g := m.AddVoice().AddGrouping()
	c := g.AddChord(Half, 4, -1, 4)
	r := g.AddRest(Quarter, -6)

	if len(c.Notes) != 2 {
		t.Fatalf("chord has %d notes, want 2 (duplicate dropped)", len(c.Notes))
	}
	if c.Notes[0].Position != -1 || c.Notes[1].Position != 4 {
		t.Errorf("notes not ordered by position: %d, %d", c.Notes[0].Position, c.Notes[1].Position)
	}
	if got, want := c.Notes[1].Address(), NoteAddress(testRoot, 0, 0, 0, 0, 0, 4); got != want {
		t.Errorf("note address = %v, want %v", got, want)
	}
	if got, want := r.Address(), EntryAddress(testRoot, 0, 0, 0, 0, 1); got != want {
		t.Errorf("rest address = %v, want %v", got, want)
	}
	if c.AddNote(-1, Sharp) != nil {
		t.Error("AddNote on an occupied position should return nil")
	}
}

func TestLookup(t *testing.T) {
	s := gridScore(2, 2, 2)

	if st, ok := s.StaffAt(StaffAddress(testRoot, 1)); !ok || st != s.Staves[1] {
		t.Error("StaffAt(1) did not find staff 1")
	}
	if m, ok := s.MeasureAt(MeasureAddress(testRoot, 1, 1)); !ok || m != s.Staves[1].Measures[1] {
		t.Error("MeasureAt(1,1) did not find the measure")
	}
	n, ok := s.NoteAt(NoteAddress(testRoot, 0, 1, 0, 0, 1, 11))
	if !ok || n.Position != 11 {
		t.Errorf("NoteAt = %v, %v", n, ok)
	}
	if _, ok := s.NoteAt(NoteAddress(testRoot, 0, 1, 0, 0, 1, 12)); ok {
		t.Error("NoteAt found a note at an empty position")
	}
	if _, ok := s.EntryAt(EntryAddress(testRoot, 0, 2, 0, 0, 0)); ok {
		t.Error("EntryAt found an entry past the last measure")
	}
	if _, ok := s.MeasureAt(StaffAddress(testRoot, 0)); ok {
		t.Error("MeasureAt resolved a staff address")
	}
	if _, ok := s.LeafAt(EntryAddress(testRoot, 0, 0, 0, 0, 0)); ok {
		t.Error("LeafAt on a chord entry should miss; chords select through their notes")
	}
	if n, ok := s.Lookup(s.Address()); !ok || n != s {
		t.Error("Lookup(root) should return the system")
	}
}

func TestResolve(t *testing.T) {
	s := gridScore(1, 2, 2)

	n, err := s.Resolve("r/0.1.0.0.1@11")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if note, ok := n.(*Note); !ok || note.Position != 11 {
		t.Errorf("Resolve returned %v, want the note at 11", n)
	}

	tests := []struct {
		key  string
		want error
	}{
		{"r/0.1.0.0.1@12", ErrAddressNotFound},
		{"r/3", ErrAddressNotFound},
		{"other/0", ErrAddressNotFound},
		{"r/0.x", ErrMalformedAddress},
	}
	for _, tt := range tests {
		if _, err := s.Resolve(tt.key); !errors.Is(err, tt.want) {
			t.Errorf("Resolve(%q) error = %v, want %v", tt.key, err, tt.want)
		}
	}
}

func TestLookupBuildsIndexLazily(t *testing.T) {
	s := &System{ID: testRoot}
	st := s.AddStaff()
	st.AddMeasure(Treble, 0, CommonTime).AddVoice().AddGrouping().AddRest(Whole, 8)

	if _, ok := s.LeafAt(EntryAddress(testRoot, 0, 0, 0, 0, 0)); !ok {
		t.Error("lookup on a never-indexed system should index it first")
	}
}

func TestBuildersKeepIndexCurrent(t *testing.T) {
	s := NewSystemWithID(testRoot)
	st := s.AddStaff()
	if got, ok := s.StaffAt(st.Address()); !ok || got != st {
		t.Fatalf("StaffAt(%s) after AddStaff = %v, %v", st.Address(), got, ok)
	}

	g := st.AddMeasure(Treble, 0, CommonTime).AddVoice().AddGrouping()
	r := g.AddRest(Whole, 8)
	n, err := s.Resolve("r/0.0.0.0.0")
	if err != nil {
		t.Fatalf("Resolve after builders: %v", err)
	}
	if e, ok := n.(*Entry); !ok || e.Rest != r {
		t.Errorf("Resolve returned %v, want the rest's entry", n)
	}

	c := g.AddChord(Quarter, 3)
	if _, ok := s.NoteAt(NoteAddress(testRoot, 0, 0, 0, 0, 1, 3)); !ok {
		t.Error("NoteAt missed a note added by AddChord")
	}
	c.AddNote(7, Sharp)
	if note, ok := s.NoteAt(NoteAddress(testRoot, 0, 0, 0, 0, 1, 7)); !ok || note.Accidental != Sharp {
		t.Errorf("NoteAt after AddNote = %v, %v", note, ok)
	}
}

func TestWalkOrderAndStop(t *testing.T) {
	s := quarterScore()
	var levels []Level
	s.Walk(func(n Node) bool {
		levels = append(levels, n.Address().Level)
		return true
	})
	want := []Level{LevelSystem, LevelStaff, LevelMeasure, LevelVoice, LevelGrouping,
		LevelEntry, LevelNote, LevelEntry, LevelNote, LevelEntry, LevelNote, LevelEntry, LevelNote}
	if diff := cmp.Diff(want, levels); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}

	visited := 0
	s.Walk(func(n Node) bool {
		visited++
		return n.Address().Level != LevelVoice
	})
	if visited != 4 {
		t.Errorf("walk visited %d nodes after stopping at the voice, want 4", visited)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := gridScore(1, 2, 2)
	s.Meta.RowLengths = []int{2}
	c := s.Clone()

	c.Staves[0].Measures[0].Voices[0].Groupings[0].Entries[0].Chord.Notes[0].Position = 99
	c.Meta.RowLengths[0] = 1
	c.Staves[0].Measures = c.Staves[0].Measures[:1]

	if s.Staves[0].Measures[0].Voices[0].Groupings[0].Entries[0].Chord.Notes[0].Position != 0 {
		t.Error("clone shares notes with the original")
	}
	if s.Meta.RowLengths[0] != 2 {
		t.Error("clone shares row lengths with the original")
	}
	if s.MeasureCount() != 2 {
		t.Error("clone shares measure slices with the original")
	}
	if diff := cmp.Diff(addresses(gridScore(1, 2, 2)), addresses(s.Clone())); diff != "" {
		t.Errorf("clone addresses differ (-want +got):\n%s", diff)
	}
}

func TestMeasureSlice(t *testing.T) {
	s := gridScore(2, 3, 1)
	s.Meta.RowLengths = []int{3}
	chunk := s.MeasureSlice(2)

	if chunk.MeasureCount() != 1 || len(chunk.Staves) != 2 {
		t.Fatalf("chunk has %d staves of %d measures", len(chunk.Staves), chunk.MeasureCount())
	}
	if chunk.Meta.RowLengths != nil {
		t.Error("chunk should not carry row lengths")
	}
	n, ok := chunk.NoteAt(NoteAddress(testRoot, 1, 0, 0, 0, 0, 20))
	if !ok {
		t.Fatal("measure 2 should be re-addressed as measure 0")
	}
	n.Position = 0
	if s.Staves[1].Measures[2].Voices[0].Groupings[0].Entries[0].Chord.Notes[0].Position != 20 {
		t.Error("chunk shares notes with the source")
	}
}

func TestReindexIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := scoreGen().Draw(t, "score")
		once := addresses(s)
		s.Reindex()
		if diff := cmp.Diff(once, addresses(s)); diff != "" {
			t.Fatalf("second reindex changed addresses (-once +twice):\n%s", diff)
		}
		if err := s.Validate(); err != nil {
			t.Fatalf("reindexed tree invalid: %v", err)
		}
		s.Walk(func(n Node) bool {
			if got, ok := s.Lookup(n.Address()); !ok || got != n {
				t.Fatalf("index does not map %s to its node", n.Address())
			}
			return true
		})
	})
}

func TestReindexAfterStructuralChange(t *testing.T) {
	s := gridScore(1, 3, 1)
	st := s.Staves[0]
	st.Measures = append(st.Measures[:1], st.Measures[2])
	c := st.Measures[1].Voices[0].Groupings[0].Entries[0].Chord
	c.Notes[0].Position = 25
	c.Notes = append(c.Notes, &Note{Position: -3})

	if err := s.Validate(); err == nil {
		t.Fatal("Validate should report stale addresses before reindexing")
	}
	s.Reindex()
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate after Reindex: %v", err)
	}
	if c.Notes[0].Position != -3 {
		t.Error("Reindex should sort chord notes by position")
	}
	if _, ok := s.NoteAt(NoteAddress(testRoot, 0, 1, 0, 0, 0, 25)); !ok {
		t.Error("moved measure should be reachable at ordinal 1")
	}
	if _, ok := s.MeasureAt(MeasureAddress(testRoot, 0, 2)); ok {
		t.Error("stale measure address still indexed")
	}
}

func TestValidateViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *System)
	}{
		{"both events", func(s *System) {
			s.Staves[0].Measures[0].Voices[0].Groupings[0].Entries[0].Rest = &Rest{}
		}},
		{"no event", func(s *System) {
			s.Staves[0].Measures[0].Voices[0].Groupings[0].Entries[0].Chord = nil
		}},
		{"ragged staves", func(s *System) {
			s.Staves[1].Measures = s.Staves[1].Measures[:1]
		}},
		{"duplicate positions", func(s *System) {
			c := s.Staves[0].Measures[0].Voices[0].Groupings[0].Entries[0].Chord
			c.Notes = append(c.Notes, &Note{Position: 0})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := gridScore(2, 2, 1)
			tt.mutate(s)
			s.Reindex()
			if err := s.Validate(); !errors.Is(err, ErrStructuralViolation) {
				t.Errorf("Validate() = %v, want ErrStructuralViolation", err)
			}
		})
	}
}

func TestPrune(t *testing.T) {
	s := gridScore(1, 2, 2)
	s.Staves[0].Measures[0].Voices[0].Groupings[0].Entries[1].Chord.Notes = nil
	s.Staves[0].Measures[1].Voices[0].Groupings[0].Entries[0].Chord.Notes = nil
	s.Staves[0].Measures[1].Voices[0].Groupings[0].Entries[1].Chord.Notes = nil

	// Three entries, then measure 1's grouping, voice and the measure itself.
	if removed := s.Prune(); removed != 6 {
		t.Errorf("Prune() removed %d, want 6", removed)
	}
	if s.MeasureCount() != 1 || s.EntryCount() != 1 {
		t.Errorf("after prune: %d measures, %d entries", s.MeasureCount(), s.EntryCount())
	}
	if err := s.Validate(); err != nil {
		t.Errorf("pruned tree invalid: %v", err)
	}
	if s.Prune() != 0 {
		t.Error("second prune should remove nothing")
	}
}

func TestPruneKeepsSystem(t *testing.T) {
	s := gridScore(1, 1, 1)
	s.Staves[0].Measures[0].Voices[0].Groupings[0].Entries[0].Chord.Notes = nil
	if removed := s.Prune(); removed != 5 {
		t.Errorf("Prune() removed %d, want 5", removed)
	}
	if len(s.Staves) != 0 {
		t.Error("empty staff should be pruned")
	}
	if n, ok := s.Lookup(s.Address()); !ok || n != s {
		t.Error("system must survive pruning")
	}
}
