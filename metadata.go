package score

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// Every node kind carries one opaque metadata blob. Blobs are parsed once,
// when a tree is decoded, into the typed structures below. A blob that is
// empty, not a JSON object, or holds a key of the wrong type never fails the
// decode: each unusable key silently takes its default.

// Connector is how the staves of a system are joined at the left edge.
type Connector string

const (
	ConnectorNone    Connector = "none"
	ConnectorBrace   Connector = "brace"
	ConnectorBracket Connector = "bracket"
)

// Metadata defaults.
const (
	DefaultRowGap     = 20.0
	DefaultStaffWidth = 350.0
	DefaultAlpha      = 1.0
)

// SystemMeta is the typed metadata of a System.
type SystemMeta struct {
	Connector Connector `json:"connector"`
	RowGap    float64   `json:"rowGap"`

	// RowLengths lists, per printed row, how many measures it holds.
	RowLengths []int `json:"rowLengths"`
}

// StaffMeta is the typed metadata of a Staff.
type StaffMeta struct {
	Width float64 `json:"width"`
}

// MeasureMeta is the typed metadata of a Measure.
type MeasureMeta struct {
	DrawClef bool `json:"drawClef"`
	DrawKey  bool `json:"drawKey"`
	DrawTime bool `json:"drawTime"`
}

// GroupingMeta is the typed metadata of a Grouping.
type GroupingMeta struct {
	StemUp bool `json:"stemUp"`
}

// LeafMeta is the presentation metadata of a Note or Rest.
type LeafMeta struct {
	Highlight bool    `json:"highlight"`
	Alpha     float64 `json:"alpha"`
}

func DefaultSystemMeta() SystemMeta {
	return SystemMeta{Connector: ConnectorNone, RowGap: DefaultRowGap}
}

func DefaultStaffMeta() StaffMeta {
	return StaffMeta{Width: DefaultStaffWidth}
}

func DefaultGroupingMeta() GroupingMeta {
	return GroupingMeta{StemUp: true}
}

func DefaultLeafMeta() LeafMeta {
	return LeafMeta{Alpha: DefaultAlpha}
}

// ParseSystemMeta decodes a system blob.
func ParseSystemMeta(blob string) SystemMeta {
	m := DefaultSystemMeta()
	fields := metaFields(blob)

	switch c := metaField(fields, "connector", m.Connector); c {
	case ConnectorNone, ConnectorBrace, ConnectorBracket:
		m.Connector = c
	}
	if gap := metaField(fields, "rowGap", m.RowGap); gap >= 0 {
		m.RowGap = gap
	}
	rows := metaField[[]int](fields, "rowLengths", nil)
	for _, n := range rows {
		if n <= 0 {
			rows = nil
			break
		}
	}
	m.RowLengths = rows
	return m
}

// ParseStaffMeta decodes a staff blob.
func ParseStaffMeta(blob string) StaffMeta {
	m := DefaultStaffMeta()
	if w := metaField(metaFields(blob), "width", m.Width); w > 0 {
		m.Width = w
	}
	return m
}

// ParseMeasureMeta decodes a measure blob.
func ParseMeasureMeta(blob string) MeasureMeta {
	fields := metaFields(blob)
	return MeasureMeta{
		DrawClef: metaField(fields, "drawClef", false),
		DrawKey:  metaField(fields, "drawKey", false),
		DrawTime: metaField(fields, "drawTime", false),
	}
}

// ParseGroupingMeta decodes a grouping blob.
func ParseGroupingMeta(blob string) GroupingMeta {
	m := DefaultGroupingMeta()
	m.StemUp = metaField(metaFields(blob), "stemUp", m.StemUp)
	return m
}

// ParseLeafMeta decodes a note or rest blob.
func ParseLeafMeta(blob string) LeafMeta {
	m := DefaultLeafMeta()
	fields := metaFields(blob)
	m.Highlight = metaField(fields, "highlight", false)
	if a := metaField(fields, "alpha", m.Alpha); a >= 0 && a <= 1 {
		m.Alpha = a
	}
	return m
}

func (m SystemMeta) Encode() string   { return encodeMeta(m) }
func (m StaffMeta) Encode() string    { return encodeMeta(m) }
func (m MeasureMeta) Encode() string  { return encodeMeta(m) }
func (m GroupingMeta) Encode() string { return encodeMeta(m) }
func (m LeafMeta) Encode() string     { return encodeMeta(m) }

// RowOf returns the printed row holding measure ordinal, and that row's first
// measure ordinal. ok is false when the row lengths do not reach the ordinal.
func (m SystemMeta) RowOf(ordinal int) (row, start int, ok bool) {
	for i, n := range m.RowLengths {
		if ordinal < start+n {
			return i, start, true
		}
		start += n
	}
	return len(m.RowLengths), start, false
}

func metaFields(blob string) map[string]json.RawMessage {
	if len(bytes.TrimSpace([]byte(blob))) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(blob), &fields); err != nil {
		return nil
	}
	return fields
}

func metaField[T any](fields map[string]json.RawMessage, key string, def T) T {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return def
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return def
	}
	return v
}

func encodeMeta(v any) string {
	// Only plain fields are marshaled, so this cannot fail.
	data, _ := json.Marshal(v)
	return string(data)
}
