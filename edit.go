package score

import (
	"log/slog"
	"slices"
)

// ToggleType converts the selected entry between a rest and a chord. A rest
// becomes a chord of one note at the rest's position with the same duration
// class. A chord becomes a whole rest at the selected note's position. The
// cursor selects the new leaf.
func (c *Cursor) ToggleType() bool {
	e := c.Entry()
	var next Leaf
	if e.Rest != nil {
		r := e.Rest
		note := &Note{Position: r.Position, Meta: DefaultLeafMeta()}
		e.Chord = &Chord{Duration: r.Duration, Notes: []*Note{note}}
		e.Rest = nil
		next = note
	} else {
		rest := &Rest{Duration: Whole, Position: c.addr.Position, Meta: DefaultLeafMeta()}
		e.Rest = rest
		e.Chord = nil
		next = rest
	}

	c.system.Reindex()
	c.follow(next)
	c.log.Info("entry type toggled", slog.String("at", c.addr.Key()), slog.String("level", c.addr.Level.String()))
	return c.done("toggle_type")
}

// SetDuration overwrites the duration class of the selected entry.
func (c *Cursor) SetDuration(d Duration) bool {
	if !d.Valid() {
		return c.noop("set_duration")
	}
	e := c.Entry()
	if e.Chord != nil {
		e.Chord.Duration = d
	} else {
		e.Rest.Duration = d
	}
	return c.done("set_duration")
}

// SetAccidental overwrites the accidental of the selected note. It returns
// false when a rest is selected.
func (c *Cursor) SetAccidental(a Accidental) bool {
	n, ok := c.system.NoteAt(c.addr)
	if !ok {
		return c.noop("set_accidental")
	}
	n.Accidental = a
	return c.done("set_accidental")
}

// AddChordNote adds a note at position to the selected chord and selects it.
// It returns false when a rest is selected or the position is taken.
func (c *Cursor) AddChordNote(position int) bool {
	chord := c.Entry().Chord
	if chord == nil {
		return c.noop("add_chord_note")
	}
	n := chord.AddNote(position, AccidentalNone)
	if n == nil {
		return c.noop("add_chord_note")
	}
	c.system.Reindex()
	c.moveTo(n)
	return c.done("add_chord_note")
}

// MovePosition shifts the selected leaf vertically by delta. Rests move
// freely. A note keeps positions within its chord unique: the move is
// rejected when another note already sits at the target position.
func (c *Cursor) MovePosition(delta int) bool {
	if delta == 0 {
		return c.noop("move_position")
	}
	e := c.Entry()
	if e.Rest != nil {
		e.Rest.Position += delta
		return c.done("move_position")
	}

	note := c.leaf().(*Note)
	target := note.Position + delta
	if e.Chord.NoteAt(target) != nil {
		return c.noop("move_position")
	}
	note.Position = target
	c.system.Reindex()
	c.follow(note)
	return c.done("move_position")
}

// DeleteNote removes the selected entry from its grouping and prunes what
// becomes empty. The cursor first moves left, or right when there is nothing
// to the left, or to another entry of the same measure. The delete is
// refused when the entry is the last one left in its measure.
func (c *Cursor) DeleteNote() bool {
	e := c.Entry()
	m := c.measureAt(c.addr.Ancestor(LevelMeasure))
	if m.EntryCount() <= 1 {
		return c.noop("delete_note")
	}

	at := e.Address()
	sibling, ok := c.neighbor(at, -1)
	if !ok || sibling.Leaf() == nil {
		sibling, ok = c.neighbor(at, 1)
	}
	if !ok || sibling.Leaf() == nil {
		sibling = firstOtherEntry(m, e)
	}
	next := sibling.Leaf()
	c.moveTo(next)

	g := c.groupingAt(at.Parent())
	g.Entries = slices.DeleteFunc(g.Entries, func(other *Entry) bool { return other == e })
	removed := c.system.Prune()

	c.follow(next)
	c.log.Info("entry deleted",
		slog.String("entry", at.Key()),
		slog.Int("pruned", removed),
		slog.String("cursor", c.addr.Key()))
	return c.done("delete_note")
}

func firstOtherEntry(m *Measure, skip *Entry) *Entry {
	for _, v := range m.Voices {
		for _, g := range v.Groupings {
			for _, e := range g.Entries {
				if e != skip && e.Leaf() != nil {
					return e
				}
			}
		}
	}
	fault("measure %s has no entry besides %s", m.Address(), skip.Address())
	return nil
}
