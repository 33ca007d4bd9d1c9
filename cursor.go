package score

import (
	"io"
	"log/slog"
)

// Cursor is the edit engine for one score tree. It owns the tree and points
// at a single Note or Rest, which carries the presentation highlight.
//
// Every mutation re-indexes the tree before returning, and the cursor
// re-reads the address of the leaf it follows, so Address always resolves.
// Moves and edits that cannot apply at a structural edge return false and
// leave tree and cursor untouched.
type Cursor struct {
	system  *System
	addr    Address
	log     *slog.Logger
	metrics *Metrics
}

// CursorOption configures a Cursor.
type CursorOption func(*Cursor)

// WithLogger sets the logger for edit events. The default discards them.
func WithLogger(l *slog.Logger) CursorOption {
	return func(c *Cursor) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics records every operation on m.
func WithMetrics(m *Metrics) CursorOption {
	return func(c *Cursor) { c.metrics = m }
}

// NewCursor takes ownership of s and selects its first leaf. It fails with
// ErrEmptyScore when the tree has no entries and with ErrStructuralViolation
// when the tree is inconsistent. Callers that keep using s elsewhere must
// hand the cursor a Clone.
func NewCursor(s *System, opts ...CursorOption) (*Cursor, error) {
	c := &Cursor{
		system: s,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}

	s.Reindex()
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var first Leaf
	s.Walk(func(n Node) bool {
		if e, ok := n.(*Entry); ok {
			first = e.Leaf()
		}
		return first == nil
	})
	if first == nil {
		return nil, ErrEmptyScore
	}

	c.addr = first.Address()
	first.leafMeta().Highlight = true
	return c, nil
}

// System returns the tree the cursor owns.
func (c *Cursor) System() *System {
	return c.system
}

// Address returns the address of the selected leaf.
func (c *Cursor) Address() Address {
	return c.addr
}

// Selected returns the selected Note or Rest.
func (c *Cursor) Selected() Leaf {
	return c.leaf()
}

// Entry returns the entry holding the selected leaf.
func (c *Cursor) Entry() *Entry {
	return c.entryAt(c.addr.Ancestor(LevelEntry))
}

// MoveLeft selects the previous entry: within the grouping, else the last
// entry of the previous grouping, else the last entry of the same voice
// (or the last voice, if the measure has fewer) in the previous measure.
// It returns false at the start of the staff.
func (c *Cursor) MoveLeft() bool {
	return c.step("move_left", -1)
}

// MoveRight is the mirror of MoveLeft. It returns false at the end of the staff.
func (c *Cursor) MoveRight() bool {
	return c.step("move_right", 1)
}

func (c *Cursor) step(op string, dir int) bool {
	e, ok := c.neighbor(c.addr.Ancestor(LevelEntry), dir)
	if !ok || e.Leaf() == nil {
		return c.noop(op)
	}
	c.moveTo(e.Leaf())
	return c.done(op)
}

// neighbor finds the entry adjacent to the one at a in direction dir.
func (c *Cursor) neighbor(a Address, dir int) (*Entry, bool) {
	g := c.groupingAt(a.Parent())
	if i := a.Entry + dir; i >= 0 && i < len(g.Entries) {
		return g.Entries[i], true
	}

	v := c.voiceAt(a.Ancestor(LevelVoice))
	if i := a.Grouping + dir; i >= 0 && i < len(v.Groupings) {
		return groupingEdge(v.Groupings[i], dir)
	}

	st := c.staffAt(a.Ancestor(LevelStaff))
	mi := a.Measure + dir
	if mi < 0 || mi >= len(st.Measures) {
		return nil, false
	}
	m := st.Measures[mi]
	if len(m.Voices) == 0 {
		return nil, false
	}
	return voiceEdge(m.Voices[min(a.Voice, len(m.Voices)-1)], dir)
}

// groupingEdge returns the first entry when entering forwards, the last
// when entering backwards.
func groupingEdge(g *Grouping, dir int) (*Entry, bool) {
	if len(g.Entries) == 0 {
		return nil, false
	}
	if dir > 0 {
		return g.Entries[0], true
	}
	return g.Entries[len(g.Entries)-1], true
}

func voiceEdge(v *Voice, dir int) (*Entry, bool) {
	if len(v.Groupings) == 0 {
		return nil, false
	}
	if dir > 0 {
		return groupingEdge(v.Groupings[0], dir)
	}
	return groupingEdge(v.Groupings[len(v.Groupings)-1], dir)
}

// IncreaseStaff jumps to the first entry of voice 0 in the same measure of
// the next staff.
func (c *Cursor) IncreaseStaff() bool {
	a := c.addr
	return c.jump("increase_staff", EntryAddress(a.Root, a.Staff+1, a.Measure, 0, 0, 0))
}

// DecreaseStaff jumps to the first entry of voice 0 in the same measure of
// the previous staff.
func (c *Cursor) DecreaseStaff() bool {
	a := c.addr
	return c.jump("decrease_staff", EntryAddress(a.Root, a.Staff-1, a.Measure, 0, 0, 0))
}

// IncreaseVoice jumps to the first entry of the next voice of the measure.
func (c *Cursor) IncreaseVoice() bool {
	a := c.addr
	return c.jump("increase_voice", EntryAddress(a.Root, a.Staff, a.Measure, a.Voice+1, 0, 0))
}

// DecreaseVoice jumps to the first entry of the previous voice of the measure.
func (c *Cursor) DecreaseVoice() bool {
	a := c.addr
	return c.jump("decrease_voice", EntryAddress(a.Root, a.Staff, a.Measure, a.Voice-1, 0, 0))
}

func (c *Cursor) jump(op string, target Address) bool {
	e, ok := c.system.EntryAt(target)
	if !ok || e.Leaf() == nil {
		return c.noop(op)
	}
	c.moveTo(e.Leaf())
	return c.done(op)
}

// NextChordNote selects the next higher note of the selected chord.
func (c *Cursor) NextChordNote() bool {
	return c.chordStep("next_chord_note", 1)
}

// PrevChordNote selects the next lower note of the selected chord.
func (c *Cursor) PrevChordNote() bool {
	return c.chordStep("prev_chord_note", -1)
}

func (c *Cursor) chordStep(op string, dir int) bool {
	chord := c.Entry().Chord
	if chord == nil {
		return c.noop(op)
	}
	for i, n := range chord.Notes {
		if n.Position != c.addr.Position {
			continue
		}
		if j := i + dir; j >= 0 && j < len(chord.Notes) {
			c.moveTo(chord.Notes[j])
			return c.done(op)
		}
		break
	}
	return c.noop(op)
}

// moveTo moves the highlight from the current leaf to l and selects it.
func (c *Cursor) moveTo(l Leaf) {
	if old, ok := c.system.LeafAt(c.addr); ok {
		old.leafMeta().Highlight = false
	}
	l.leafMeta().Highlight = true
	c.addr = l.Address()
}

// follow re-reads the address of l after a re-index.
func (c *Cursor) follow(l Leaf) {
	l.leafMeta().Highlight = true
	c.addr = l.Address()
	if _, ok := c.system.LeafAt(c.addr); !ok {
		fault("cursor leaf %s not in index after edit", c.addr)
	}
}

func (c *Cursor) done(op string) bool {
	c.metrics.operation(op, true)
	c.log.Debug("cursor operation", slog.String("op", op), slog.String("at", c.addr.Key()))
	return true
}

func (c *Cursor) noop(op string) bool {
	c.metrics.operation(op, false)
	c.log.Debug("cursor operation ignored", slog.String("op", op), slog.String("at", c.addr.Key()))
	return false
}

// The lookups below resolve addresses the cursor derived from its own state.
// A miss means the index and the tree disagree.

func (c *Cursor) leaf() Leaf {
	l, ok := c.system.LeafAt(c.addr)
	if !ok {
		fault("cursor leaf %s missing", c.addr)
	}
	return l
}

func (c *Cursor) entryAt(a Address) *Entry {
	e, ok := c.system.EntryAt(a)
	if !ok {
		fault("entry %s missing", a)
	}
	return e
}

func (c *Cursor) groupingAt(a Address) *Grouping {
	g, ok := c.system.GroupingAt(a)
	if !ok {
		fault("grouping %s missing", a)
	}
	return g
}

func (c *Cursor) voiceAt(a Address) *Voice {
	v, ok := c.system.VoiceAt(a)
	if !ok {
		fault("voice %s missing", a)
	}
	return v
}

func (c *Cursor) measureAt(a Address) *Measure {
	m, ok := c.system.MeasureAt(a)
	if !ok {
		fault("measure %s missing", a)
	}
	return m
}

func (c *Cursor) staffAt(a Address) *Staff {
	st, ok := c.system.StaffAt(a)
	if !ok {
		fault("staff %s missing", a)
	}
	return st
}
