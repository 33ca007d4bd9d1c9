package score

import (
	"fmt"
	"math/bits"
)

// Ticks measures musical time exactly. The shortest class, a sixty-fourth,
// is one tick; a whole note is 64.
type Ticks int

// TicksPerWhole is the length of a whole note in ticks.
const TicksPerWhole Ticks = 64

// Ticks returns the length of the duration class, halving from a whole note.
func (d Duration) Ticks() Ticks {
	if !d.Valid() {
		fault("duration class %d out of range", int(d))
	}
	return TicksPerWhole >> uint(d)
}

// String renders the tick count as a reduced fraction of a whole note.
func (t Ticks) String() string {
	if t == 0 {
		return "0"
	}
	num, den := int(t), int(TicksPerWhole)
	shift := min(bits.TrailingZeros(uint(abs(num))), bits.TrailingZeros(uint(den)))
	num, den = num>>shift, den>>shift
	if den == 1 {
		return fmt.Sprint(num)
	}
	return fmt.Sprintf("%d/%d", num, den)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ShiftOf returns the total duration of the entries strictly before e in its
// voice, counted across all of the voice's groupings. It places concurrent
// voices against each other horizontally.
func (s *System) ShiftOf(e *Entry) Ticks {
	v, ok := s.VoiceAt(e.Address().Ancestor(LevelVoice))
	if !ok {
		fault("voice of entry %s missing", e.Address())
	}
	var shift Ticks
	for _, g := range v.Groupings {
		for _, other := range g.Entries {
			if other == e {
				return shift
			}
			shift += other.Duration().Ticks()
		}
	}
	fault("entry %s not found in its voice", e.Address())
	return 0
}

// EntryAtShift returns the last entry of v whose shift does not exceed
// target. Entries are scanned in order, so when several start at the same
// shift the earlier one wins. It returns nil for an empty voice or a
// negative target.
//
// Voices of one measure are not required to add up to the same length; a
// target past the end of a shorter voice selects its last entry.
func EntryAtShift(v *Voice, target Ticks) *Entry {
	var found *Entry
	var shift, foundShift Ticks
	for _, g := range v.Groupings {
		for _, e := range g.Entries {
			if shift > target {
				return found
			}
			if found == nil || shift > foundShift {
				found, foundShift = e, shift
			}
			shift += e.Duration().Ticks()
		}
	}
	return found
}

// VoiceLength returns the total duration of the voice.
func VoiceLength(v *Voice) Ticks {
	var total Ticks
	for _, g := range v.Groupings {
		for _, e := range g.Entries {
			total += e.Duration().Ticks()
		}
	}
	return total
}
