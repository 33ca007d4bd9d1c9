package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/phroun/score"
)

var (
	highlight  = color.New(color.FgBlack, color.BgYellow).SprintFunc()
	barline    = color.New(color.FgHiBlack).SprintFunc()
	heading    = color.New(color.Bold).SprintFunc()
	restColor  = color.New(color.FgCyan).SprintFunc()
	errorColor = color.New(color.FgRed).SprintFunc()
	okColor    = color.New(color.FgGreen).SprintFunc()
)

var durationSymbols = map[score.Duration]string{
	score.Whole:        "w",
	score.Half:         "h",
	score.Quarter:      "q",
	score.Eighth:       "e",
	score.Sixteenth:    "s",
	score.ThirtySecond: "t",
	score.SixtyFourth:  "x",
}

var accidentalSymbols = map[score.Accidental]string{
	score.Sharp:       "#",
	score.Flat:        "b",
	score.Natural:     "n",
	score.DoubleSharp: "##",
	score.DoubleFlat:  "bb",
}

// printScore draws every staff on one line: measures between barlines,
// voices separated by "/", groupings by spaces, chords as duration and
// positions. The selected leaf is highlighted.
func printScore(w io.Writer, s *score.System) {
	fmt.Fprintf(w, "%s %s  connector=%s rows=%v\n",
		heading("score"), s.ID, s.Meta.Connector, s.Meta.RowLengths)
	for i, st := range s.Staves {
		var b strings.Builder
		fmt.Fprintf(&b, "%2d ", i)
		for _, m := range st.Measures {
			b.WriteString(barline("|"))
			fmt.Fprintf(&b, " %s ", m.Clef.String()[:1])
			for vi, v := range m.Voices {
				if vi > 0 {
					b.WriteString(" / ")
				}
				for gi, g := range v.Groupings {
					if gi > 0 {
						b.WriteString("  ")
					}
					for ei, e := range g.Entries {
						if ei > 0 {
							b.WriteByte(' ')
						}
						b.WriteString(formatEntry(e))
					}
				}
			}
			b.WriteByte(' ')
		}
		b.WriteString(barline("|"))
		fmt.Fprintln(w, b.String())
	}
}

func formatEntry(e *score.Entry) string {
	if e.Rest != nil {
		text := restColor("r" + durationSymbols[e.Rest.Duration])
		if e.Rest.Meta.Highlight {
			return highlight(text)
		}
		return text
	}
	var b strings.Builder
	b.WriteString(durationSymbols[e.Chord.Duration])
	b.WriteString(strings.Repeat(".", e.Chord.Dots))
	b.WriteByte('(')
	for i, n := range e.Chord.Notes {
		if i > 0 {
			b.WriteByte(',')
		}
		text := strconv.Itoa(n.Position) + accidentalSymbols[n.Accidental]
		if n.Meta.Highlight {
			text = highlight(text)
		}
		b.WriteString(text)
	}
	b.WriteByte(')')
	return b.String()
}

func printVisual(w io.Writer, v score.Visual) {
	for pi, p := range v.Pages {
		fmt.Fprintf(w, "%s %d  height=%.0f\n", heading("page"), pi, p.Height)
		for ri, r := range p.Rows {
			ordinals := make([]string, len(r.Chunks))
			for i, c := range r.Chunks {
				ordinals[i] = strconv.Itoa(c.Ordinal)
			}
			fmt.Fprintf(w, "  row %d  y=%.0f  %.0fx%.0f  staves=%v  measures [%s]\n",
				ri, r.Y, r.Width, r.Height, r.StaveY, strings.Join(ordinals, " "))
		}
	}
	fmt.Fprintf(w, "row lengths %v\n", v.RowLengths())
}

func describe(n score.Node) string {
	switch n := n.(type) {
	case *score.System:
		return fmt.Sprintf("%d staves, connector %s", len(n.Staves), n.Meta.Connector)
	case *score.Staff:
		return fmt.Sprintf("%d measures", len(n.Measures))
	case *score.Measure:
		return fmt.Sprintf("%s clef, key %d, %d/%d, %d voices", n.Clef, n.Key, n.Time.Beats, n.Time.Unit, len(n.Voices))
	case *score.Voice:
		return fmt.Sprintf("%d groupings", len(n.Groupings))
	case *score.Grouping:
		return fmt.Sprintf("%d entries, stem up %t", len(n.Entries), n.Meta.StemUp)
	case *score.Entry:
		return formatEntry(n)
	case *score.Note:
		return fmt.Sprintf("note at %d, accidental %s", n.Position, n.Accidental)
	}
	return fmt.Sprintf("%T", n)
}
