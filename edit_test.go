package score

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleTypeRoundTrip(t *testing.T) {
	s := quarterScore()
	c := newTestCursor(t, s)
	e := c.Entry()

	require.True(t, c.ToggleType())
	require.NotNil(t, e.Rest)
	assert.Nil(t, e.Chord)
	assert.Equal(t, Whole, e.Rest.Duration)
	assert.Equal(t, 0, e.Rest.Position)
	assert.Equal(t, EntryAddress(testRoot, 0, 0, 0, 0, 0), c.Address())
	assert.True(t, e.Rest.Meta.Highlight)

	require.True(t, c.SetDuration(Quarter))
	require.True(t, c.ToggleType())
	require.NotNil(t, e.Chord)
	assert.Nil(t, e.Rest)
	assert.Equal(t, Quarter, e.Chord.Duration)
	require.Len(t, e.Chord.Notes, 1)
	assert.Equal(t, 0, e.Chord.Notes[0].Position)
	assert.Equal(t, AccidentalNone, e.Chord.Notes[0].Accidental)
	assert.Equal(t, NoteAddress(testRoot, 0, 0, 0, 0, 0, 0), c.Address())

	assert.Equal(t, []Address{c.Address()}, highlighted(s))
	assert.NoError(t, s.Validate())
}

func TestToggleTypeUsesSelectedNotePosition(t *testing.T) {
	s := NewSystemWithID(testRoot)
	s.AddStaff().AddMeasure(Treble, 0, CommonTime).AddVoice().AddGrouping().AddChord(Half, -2, 5)
	s.Reindex()
	c := newTestCursor(t, s)
	require.True(t, c.NextChordNote())

	require.True(t, c.ToggleType())
	assert.Equal(t, 5, c.Entry().Rest.Position)
}

func TestSetDuration(t *testing.T) {
	c := newTestCursor(t, quarterScore())
	assert.False(t, c.SetDuration(Duration(12)))
	assert.True(t, c.SetDuration(Eighth))
	assert.Equal(t, Eighth, c.Entry().Duration())
}

func TestSetAccidental(t *testing.T) {
	s := quarterScore()
	s.Staves[0].Measures[0].Voices[0].Groupings[0].Entries[0] = &Entry{Rest: &Rest{Duration: Quarter, Meta: DefaultLeafMeta()}}
	c := newTestCursor(t, s)

	assert.False(t, c.SetAccidental(Sharp), "rests carry no accidental")
	require.True(t, c.MoveRight())
	assert.True(t, c.SetAccidental(Flat))
	n, ok := s.NoteAt(c.Address())
	require.True(t, ok)
	assert.Equal(t, Flat, n.Accidental)
}

func TestAddChordNote(t *testing.T) {
	c := newTestCursor(t, quarterScore())

	assert.False(t, c.AddChordNote(0), "position already taken")
	require.True(t, c.AddChordNote(-3))
	assert.Equal(t, NoteAddress(testRoot, 0, 0, 0, 0, 0, -3), c.Address())
	assert.Len(t, c.Entry().Chord.Notes, 2)
	assert.Len(t, highlighted(c.System()), 1)
}

func TestMovePositionNote(t *testing.T) {
	s := NewSystemWithID(testRoot)
	s.AddStaff().AddMeasure(Treble, 0, CommonTime).AddVoice().AddGrouping().AddChord(Whole, 0, 2)
	s.Reindex()
	c := newTestCursor(t, s)
	before := addresses(s)

	assert.False(t, c.MovePosition(2), "target position is occupied")
	assert.False(t, c.MovePosition(0))
	if diff := cmp.Diff(before, addresses(s)); diff != "" {
		t.Errorf("rejected move changed the tree (-before +after):\n%s", diff)
	}

	require.True(t, c.MovePosition(3))
	assert.Equal(t, NoteAddress(testRoot, 0, 0, 0, 0, 0, 3), c.Address())
	notes := c.Entry().Chord.Notes
	assert.Equal(t, 2, notes[0].Position)
	assert.Equal(t, 3, notes[1].Position)
	assert.NoError(t, s.Validate())
}

func TestMovePositionRest(t *testing.T) {
	s := NewSystemWithID(testRoot)
	s.AddStaff().AddMeasure(Treble, 0, CommonTime).AddVoice().AddGrouping().AddRest(Whole, 8)
	s.Reindex()
	c := newTestCursor(t, s)

	require.True(t, c.MovePosition(-11))
	assert.Equal(t, -3, c.Entry().Rest.Position)
	assert.Equal(t, EntryAddress(testRoot, 0, 0, 0, 0, 0), c.Address())
}

func TestDeleteNoteLastEntryRejected(t *testing.T) {
	s := gridScore(1, 2, 1)
	c := newTestCursor(t, s)
	before := addresses(s)

	assert.False(t, c.DeleteNote())
	assert.Equal(t, NoteAddress(testRoot, 0, 0, 0, 0, 0, 0), c.Address())
	if diff := cmp.Diff(before, addresses(s)); diff != "" {
		t.Errorf("rejected delete changed the tree (-before +after):\n%s", diff)
	}
}

func TestDeleteNoteMovesRightAtStart(t *testing.T) {
	s := gridScore(1, 1, 3)
	c := newTestCursor(t, s)

	require.True(t, c.DeleteNote())
	assert.Equal(t, 2, s.EntryCount())
	// The old second entry slides into slot 0.
	assert.Equal(t, NoteAddress(testRoot, 0, 0, 0, 0, 0, 1), c.Address())
	assert.Equal(t, []Address{c.Address()}, highlighted(s))
	assert.NoError(t, s.Validate())
}

func TestDeleteNoteMovesLeft(t *testing.T) {
	s := gridScore(1, 1, 3)
	c := newTestCursor(t, s)
	c.MoveRight()
	c.MoveRight()

	require.True(t, c.DeleteNote())
	assert.Equal(t, NoteAddress(testRoot, 0, 0, 0, 0, 1, 1), c.Address())
}

func TestDeleteNotePrunesGrouping(t *testing.T) {
	s := NewSystemWithID(testRoot)
	v := s.AddStaff().AddMeasure(Treble, 0, CommonTime).AddVoice()
	v.AddGrouping().AddChord(Half, 0)
	v.AddGrouping().AddChord(Half, 4)
	s.Reindex()
	c := newTestCursor(t, s)
	c.MoveRight()

	require.True(t, c.DeleteNote())
	assert.Len(t, v.Groupings, 1)
	assert.Equal(t, NoteAddress(testRoot, 0, 0, 0, 0, 0, 0), c.Address())
}

func TestDeleteNoteFallsBackToOtherVoice(t *testing.T) {
	s := NewSystemWithID(testRoot)
	st := s.AddStaff()
	m0 := st.AddMeasure(Treble, 0, CommonTime)
	m0.AddVoice().AddGrouping().AddRest(Whole, 8)
	m0.AddVoice().AddGrouping().AddRest(Whole, -2)
	s.Reindex()
	c := newTestCursor(t, s)

	require.True(t, c.DeleteNote())
	require.Len(t, m0.Voices, 1, "emptied voice is pruned")
	assert.Equal(t, EntryAddress(testRoot, 0, 0, 0, 0, 0), c.Address())
	assert.Equal(t, -2, c.Entry().Rest.Position)
}
