package score

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
)

// LayoutState is where a layout pass stands between measurements.
type LayoutState int

const (
	// AwaitingMeasurement means a request is out and nothing was flushed by
	// the last measurement.
	AwaitingMeasurement LayoutState = iota

	// RowFull means the last measurement overflowed the row, which was
	// flushed into the page before the chunk was placed.
	RowFull

	// PageFull means flushing a row overflowed the page, which was flushed
	// into the visual first.
	PageFull

	// Done means every measure has been placed and the visual is ready.
	Done
)

var layoutStateNames = [...]string{"awaiting-measurement", "row-full", "page-full", "done"}

func (s LayoutState) String() string {
	if s < AwaitingMeasurement || s > Done {
		return "unknown"
	}
	return layoutStateNames[s]
}

// StackOptions tells the rendering oracle where to stack the staves of a
// chunk: either at explicit per-staff Y offsets, or from XOffset with a
// uniform Gap between staves when StaveY is nil.
type StackOptions struct {
	StaveY  []float64
	XOffset float64
	Gap     float64
}

// MeasureRequest asks the oracle to render one measure ordinal across all staves.
type MeasureRequest struct {
	Ordinal int

	// Chunk holds only this measure of each staff, re-addressed as measure 0.
	// It is a private copy the oracle may keep.
	Chunk *System
	Stack StackOptions
}

// Measurement is what the oracle reports for a rendered chunk.
type Measurement struct {
	Width  float64
	Height float64

	// StaveY holds the Y offset actually used for each staff.
	StaveY []float64
}

// NoRowGap is the LayoutOptions.RowGap for rows stacked with no gap.
const NoRowGap = -1.0

// LayoutOptions configures a layout pass.
type LayoutOptions struct {
	// ContentWidth bounds the width of a row.
	ContentWidth float64

	// ContentHeight bounds the height of a page. Zero means a single,
	// unbounded page.
	ContentHeight float64

	// RowGap is the vertical space between rows. Zero takes the system's
	// inter-row gap from its metadata; any negative value, such as NoRowGap,
	// stacks rows with no gap at all.
	RowGap float64

	// StaveGap is the uniform gap between staves used when no explicit
	// offsets are known yet.
	StaveGap float64

	Logger  *slog.Logger
	Metrics *Metrics
}

// PlacedChunk is a measured chunk at its final place in a row.
type PlacedChunk struct {
	Ordinal int
	X       float64
	Width   float64
	Height  float64

	// StaveY is the row's merged offsets, so every chunk of a row lines its
	// staves up at the same heights.
	StaveY []float64
}

// Row is a left-to-right run of chunks.
type Row struct {
	Y      float64
	Width  float64
	Height float64
	StaveY []float64
	Chunks []PlacedChunk
}

// Page is a top-to-bottom run of rows.
type Page struct {
	Height float64
	Rows   []Row
}

// Visual is the packed result of a layout pass.
type Visual struct {
	Pages []Page
}

// RowLengths returns how many measures each printed row holds, in order
// across pages, in the same shape as SystemMeta.RowLengths.
func (v Visual) RowLengths() []int {
	var out []int
	for _, p := range v.Pages {
		for _, r := range p.Rows {
			out = append(out, len(r.Chunks))
		}
	}
	return out
}

// Layout packs the measures of a score into rows and pages, one measurement
// at a time. It is a state machine driven by Receive: each measurement is
// placed greedily and never moves again, so row and page breaks fall exactly
// where the first overflow is detected.
//
// A Layout works on its own deep copy of the tree. Abandon a pass by
// dropping it and starting a new one.
type Layout struct {
	src    *System
	opts   LayoutOptions
	log    *slog.Logger
	staves int
	count  int

	next    int
	pending bool
	state   LayoutState

	row    Row
	page   Page
	visual Visual
}

// NewLayout starts a pass over a snapshot of s.
func NewLayout(s *System, opts LayoutOptions) *Layout {
	src := s.Clone()
	switch {
	case opts.RowGap == 0:
		opts.RowGap = src.Meta.RowGap
	case opts.RowGap < 0:
		opts.RowGap = 0
	}
	l := &Layout{
		src:    src,
		opts:   opts,
		log:    opts.Logger,
		staves: len(src.Staves),
		count:  src.MeasureCount(),
	}
	if l.log == nil {
		l.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}

// State returns the state reached by the last transition.
func (l *Layout) State() LayoutState {
	return l.state
}

// MeasureCount returns how many chunks the pass will place.
func (l *Layout) MeasureCount() int {
	return l.count
}

// Start issues the request for measure 0. It returns false, and the pass is
// immediately done with an empty visual, when the score has no measures.
func (l *Layout) Start() (MeasureRequest, bool) {
	if l.count == 0 {
		l.state = Done
		return MeasureRequest{}, false
	}
	l.next = 0
	return l.request(), true
}

// Receive places the measurement for the pending request and returns the
// next request. more is false once the pass is done; Visual then returns
// the result.
func (l *Layout) Receive(m Measurement) (next MeasureRequest, more bool, err error) {
	switch {
	case l.state == Done:
		return MeasureRequest{}, false, ErrLayoutDone
	case !l.pending:
		return MeasureRequest{}, false, ErrUnexpectedMeasurement
	case len(m.StaveY) != l.staves:
		return MeasureRequest{}, false, fmt.Errorf("%w: measure %d reported %d offsets for %d staves",
			ErrStaveCount, l.next, len(m.StaveY), l.staves)
	}
	l.pending = false
	l.state = AwaitingMeasurement

	if len(l.row.Chunks) > 0 && l.row.Width+m.Width > l.opts.ContentWidth {
		l.flushRow()
	}
	l.place(m)
	l.opts.Metrics.chunk()

	l.next++
	if l.next >= l.count {
		l.flushRow()
		l.flushPage()
		l.state = Done
		l.log.Debug("layout done", slog.Int("measures", l.count), slog.Int("pages", len(l.visual.Pages)))
		return MeasureRequest{}, false, nil
	}
	return l.request(), true, nil
}

// Visual returns the packed result once the pass is done.
func (l *Layout) Visual() (Visual, bool) {
	if l.state != Done {
		return Visual{}, false
	}
	return l.visual, true
}

func (l *Layout) request() MeasureRequest {
	l.pending = true
	req := MeasureRequest{
		Ordinal: l.next,
		Chunk:   l.src.MeasureSlice(l.next),
	}
	if len(l.row.Chunks) > 0 {
		req.Stack = StackOptions{StaveY: slices.Clone(l.row.StaveY), XOffset: l.row.Width}
	} else {
		req.Stack = StackOptions{Gap: l.opts.StaveGap}
	}
	return req
}

// place appends the chunk to the current row and merges its offsets into
// the row's watermark, which only ever grows.
func (l *Layout) place(m Measurement) {
	l.row.Chunks = append(l.row.Chunks, PlacedChunk{
		Ordinal: l.next,
		X:       l.row.Width,
		Width:   m.Width,
		Height:  m.Height,
	})
	l.row.Width += m.Width
	l.row.Height = max(l.row.Height, m.Height)
	if l.row.StaveY == nil {
		l.row.StaveY = make([]float64, l.staves)
	}
	for i, y := range m.StaveY {
		l.row.StaveY[i] = max(l.row.StaveY[i], y)
	}
}

func (l *Layout) flushRow() {
	if len(l.row.Chunks) == 0 {
		return
	}
	gap := 0.0
	if len(l.page.Rows) > 0 {
		gap = l.opts.RowGap
	}
	if l.opts.ContentHeight > 0 && len(l.page.Rows) > 0 && l.page.Height+gap+l.row.Height > l.opts.ContentHeight {
		l.flushPage()
		gap = 0
	}

	row := l.row
	row.Y = l.page.Height + gap
	for i := range row.Chunks {
		row.Chunks[i].StaveY = slices.Clone(row.StaveY)
	}
	l.page.Rows = append(l.page.Rows, row)
	l.page.Height = row.Y + row.Height
	l.row = Row{}
	if l.state != PageFull {
		l.state = RowFull
	}
	l.log.Debug("layout row flushed",
		slog.Int("page", len(l.visual.Pages)),
		slog.Int("row", len(l.page.Rows)-1),
		slog.Int("chunks", len(row.Chunks)))
}

func (l *Layout) flushPage() {
	if len(l.page.Rows) == 0 {
		return
	}
	l.visual.Pages = append(l.visual.Pages, l.page)
	l.page = Page{}
	l.state = PageFull
	l.log.Debug("layout page flushed", slog.Int("page", len(l.visual.Pages)-1))
}
