// Package estimate sizes measure chunks from their content without
// rendering them. It stands in for a real engraver when laying scores out
// from the command line.
package estimate

import (
	"context"

	"github.com/phroun/score"
)

// Oracle estimates chunk sizes from entry counts and staff geometry. The
// zero value is not useful; start from Default.
type Oracle struct {
	// StaffHeight is the height of one five-line staff.
	StaffHeight float64

	// EntryWidth is the horizontal room one entry takes.
	EntryWidth float64

	// Padding is added to every measure, barline included.
	Padding float64

	// HeaderWidth is added for each of clef, key and time a measure draws.
	HeaderWidth float64
}

// Default returns the geometry used by the command-line tools.
func Default() Oracle {
	return Oracle{StaffHeight: 40, EntryWidth: 28, Padding: 16, HeaderWidth: 22}
}

var _ score.Oracle = Oracle{}

// Measure sizes req.Chunk. Staves stack at the requested offsets when given,
// otherwise from zero with the uniform gap.
func (o Oracle) Measure(ctx context.Context, req score.MeasureRequest) (score.Measurement, error) {
	if err := ctx.Err(); err != nil {
		return score.Measurement{}, err
	}

	staves := req.Chunk.Staves
	widest := 0.0
	for _, st := range staves {
		if len(st.Measures) == 0 {
			continue
		}
		widest = max(widest, o.measureWidth(st.Measures[0]))
	}

	staveY := make([]float64, len(staves))
	for i := range staveY {
		if i < len(req.Stack.StaveY) {
			staveY[i] = req.Stack.StaveY[i]
		} else {
			staveY[i] = float64(i) * (o.StaffHeight + req.Stack.Gap)
		}
	}
	height := 0.0
	if n := len(staveY); n > 0 {
		height = staveY[n-1] + o.StaffHeight
	}
	return score.Measurement{
		Width:  widest,
		Height: height,
		StaveY: staveY,
	}, nil
}

func (o Oracle) measureWidth(m *score.Measure) float64 {
	longest := 0
	for _, v := range m.Voices {
		n := 0
		for _, g := range v.Groupings {
			n += len(g.Entries)
		}
		longest = max(longest, n)
	}
	w := o.Padding + float64(longest)*o.EntryWidth
	for _, drawn := range []bool{m.Meta.DrawClef, m.Meta.DrawKey, m.Meta.DrawTime} {
		if drawn {
			w += o.HeaderWidth
		}
	}
	return w
}
