package estimate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phroun/score"
)

func chunk() *score.System {
	s := score.NewSystemWithID("r")
	m := s.AddStaff().AddMeasure(score.Treble, 0, score.CommonTime)
	m.Meta.DrawClef = true
	g := m.AddVoice().AddGrouping()
	g.AddChord(score.Quarter, 0)
	g.AddChord(score.Quarter, 2)
	g.AddRest(score.Half, 8)
	s.AddStaff().AddMeasure(score.Bass, 0, score.CommonTime).AddVoice().AddGrouping().AddRest(score.Whole, -6)
	s.Reindex()
	return s
}

func TestMeasureUniformGap(t *testing.T) {
	o := Default()
	m, err := o.Measure(context.Background(), score.MeasureRequest{
		Chunk: chunk(),
		Stack: score.StackOptions{Gap: 30},
	})
	require.NoError(t, err)

	assert.Equal(t, o.Padding+3*o.EntryWidth+o.HeaderWidth, m.Width)
	assert.Equal(t, []float64{0, 70}, m.StaveY)
	assert.Equal(t, 110.0, m.Height)
}

func TestMeasureExplicitOffsets(t *testing.T) {
	m, err := Default().Measure(context.Background(), score.MeasureRequest{
		Chunk: chunk(),
		Stack: score.StackOptions{StaveY: []float64{5, 95}, XOffset: 200},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 95}, m.StaveY)
	assert.Equal(t, 135.0, m.Height)
}

func TestMeasureDeterministicAcrossDrivers(t *testing.T) {
	s := score.NewSystemWithID("r")
	for range 2 {
		st := s.AddStaff()
		for i := range 9 {
			g := st.AddMeasure(score.Treble, 0, score.CommonTime).AddVoice().AddGrouping()
			for range i%4 + 1 {
				g.AddChord(score.Quarter, i)
			}
		}
	}
	s.Reindex()
	opts := score.LayoutOptions{ContentWidth: 300, ContentHeight: 500, StaveGap: 25}

	seq, err := score.Run(context.Background(), s, Default(), opts)
	require.NoError(t, err)
	par, err := score.RunConcurrent(context.Background(), s, Default(), opts, 4)
	require.NoError(t, err)
	assert.Equal(t, seq, par)
}
