package score

import (
	"log/slog"
	"slices"
)

// RemoveMeasures deletes the selected measure ordinal from every staff. The
// cursor moves to the first entry of the following measure, or the last
// entry of the preceding one; with neither, nothing is removed. The printed
// row that held the measure shrinks by one and disappears when empty.
func (c *Cursor) RemoveMeasures() bool {
	s := c.system
	mi := c.addr.Measure
	st := c.staffAt(c.addr.Ancestor(LevelStaff))

	var target *Entry
	var ok bool
	switch {
	case mi+1 < len(st.Measures) && len(st.Measures[mi+1].Voices) > 0:
		target, ok = voiceEdge(st.Measures[mi+1].Voices[0], 1)
	case mi > 0 && len(st.Measures[mi-1].Voices) > 0:
		target, ok = voiceEdge(st.Measures[mi-1].Voices[0], -1)
	}
	if !ok || target.Leaf() == nil {
		return c.noop("remove_measures")
	}
	next := target.Leaf()
	c.moveTo(next)

	for _, staff := range s.Staves {
		staff.Measures = slices.Delete(staff.Measures, mi, mi+1)
	}
	if row, _, found := s.Meta.RowOf(mi); found {
		s.Meta.RowLengths[row]--
		if s.Meta.RowLengths[row] == 0 {
			s.Meta.RowLengths = slices.Delete(s.Meta.RowLengths, row, row+1)
		}
	}

	s.Reindex()
	c.follow(next)
	c.log.Info("measure removed", slog.Int("measure", mi), slog.Int("remaining", s.MeasureCount()))
	return c.done("remove_measures")
}

// SwapMeasureLeft exchanges the selected measure with the one before it, in
// the cursor's staff only. The cursor stays on its leaf.
func (c *Cursor) SwapMeasureLeft() bool {
	return c.swapMeasure("swap_measure_left", -1)
}

// SwapMeasureRight exchanges the selected measure with the one after it, in
// the cursor's staff only. The cursor stays on its leaf.
func (c *Cursor) SwapMeasureRight() bool {
	return c.swapMeasure("swap_measure_right", 1)
}

func (c *Cursor) swapMeasure(op string, dir int) bool {
	st := c.staffAt(c.addr.Ancestor(LevelStaff))
	i := c.addr.Measure
	j := i + dir
	if j < 0 || j >= len(st.Measures) {
		return c.noop(op)
	}

	selected := c.leaf()
	st.Measures[i], st.Measures[j] = st.Measures[j], st.Measures[i]
	c.system.Reindex()
	c.follow(selected)
	return c.done(op)
}

// InsertRow inserts a new measure before measure ordinal index (0 through
// the measure count) in every staff. Each new measure holds one voice with
// one grouping with one whole rest, placed for its clef. Key, time and clef
// are copied from the measure currently at index, or from the last measure
// when appending.
//
// The row lengths always gain one row of length 1, placed before the row
// that held index. A row split by the new measure keeps its old length.
func (c *Cursor) InsertRow(index int) bool {
	s := c.system
	count := s.MeasureCount()
	if index < 0 || index > count {
		return c.noop("insert_row")
	}

	selected := c.leaf()
	for _, st := range s.Staves {
		ref := st.Measures[min(index, count-1)]
		st.Measures = slices.Insert(st.Measures, index, newRestMeasure(ref.Clef, ref.Key, ref.Time))
	}
	row, _, _ := s.Meta.RowOf(index)
	s.Meta.RowLengths = slices.Insert(s.Meta.RowLengths, row, 1)

	s.Reindex()
	c.follow(selected)
	c.log.Info("measure inserted", slog.Int("measure", index), slog.Int("rows", len(s.Meta.RowLengths)))
	return c.done("insert_row")
}
