package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDurationTicks(t *testing.T) {
	assert.Equal(t, Ticks(64), Whole.Ticks())
	assert.Equal(t, Ticks(16), Quarter.Ticks())
	assert.Equal(t, Ticks(1), SixtyFourth.Ticks())
	assert.Panics(t, func() { Duration(7).Ticks() })
}

func TestDurationNames(t *testing.T) {
	for d := Whole; d <= SixtyFourth; d++ {
		got, ok := ParseDuration(d.String())
		require.True(t, ok, d.String())
		assert.Equal(t, d, got)
	}
	_, ok := ParseDuration("breve")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Duration(-1).String())
}

func TestTicksString(t *testing.T) {
	tests := map[Ticks]string{
		0:  "0",
		64: "1",
		16: "1/4",
		96: "3/2",
		3:  "3/64",
		-8: "-1/8",
	}
	for ticks, want := range tests {
		assert.Equal(t, want, ticks.String(), "Ticks(%d)", int(ticks))
	}
}

func TestShiftOf(t *testing.T) {
	s := NewSystemWithID(testRoot)
	v := s.AddStaff().AddMeasure(Treble, 0, CommonTime).AddVoice()
	g0 := v.AddGrouping()
	g0.AddChord(Half, 0)
	g0.AddRest(Eighth, 0)
	g1 := v.AddGrouping()
	g1.AddChord(Eighth, 2)
	g1.AddChord(Quarter, 4)
	s.Reindex()

	var shifts []Ticks
	for _, e := range v.Entries() {
		shifts = append(shifts, s.ShiftOf(e))
	}
	assert.Equal(t, []Ticks{0, 32, 40, 48}, shifts)
	assert.Equal(t, TicksPerWhole, VoiceLength(v))

	assert.Same(t, v.Entries()[1], EntryAtShift(v, 35))
	assert.Same(t, v.Entries()[3], EntryAtShift(v, 1000))
	assert.Nil(t, EntryAtShift(v, -1))
	assert.Nil(t, EntryAtShift(&Voice{}, 0))
}

func TestShiftRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := scoreGen().Draw(t, "score")
		s.Walk(func(n Node) bool {
			m, ok := n.(*Measure)
			if !ok {
				return true
			}
			for _, v := range m.Voices {
				for _, e := range v.Entries() {
					if got := EntryAtShift(v, s.ShiftOf(e)); got != e {
						t.Fatalf("EntryAtShift(ShiftOf(%s)) = %v", e.Address(), got)
					}
				}
			}
			return true
		})
	})
}
