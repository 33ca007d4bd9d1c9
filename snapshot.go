package score

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Snapshot documents mirror the tree. Every node's metadata travels as the
// opaque blob string the rest of the world exchanges; it is parsed into the
// typed form on decode.

type systemDoc struct {
	ID     string     `json:"id"`
	Meta   string     `json:"meta,omitempty"`
	Staves []staffDoc `json:"staves"`
}

type staffDoc struct {
	Meta     string       `json:"meta,omitempty"`
	Measures []measureDoc `json:"measures"`
}

type measureDoc struct {
	Key    int        `json:"key"`
	Beats  int        `json:"beats"`
	Unit   int        `json:"unit"`
	Clef   string     `json:"clef"`
	Meta   string     `json:"meta,omitempty"`
	Voices []voiceDoc `json:"voices"`
}

type voiceDoc struct {
	Groupings []groupingDoc `json:"groupings"`
}

type groupingDoc struct {
	Meta    string     `json:"meta,omitempty"`
	Entries []entryDoc `json:"entries"`
}

type entryDoc struct {
	Chord *chordDoc `json:"chord,omitempty"`
	Rest  *restDoc  `json:"rest,omitempty"`
}

type chordDoc struct {
	Duration string    `json:"duration"`
	Dots     int       `json:"dots,omitempty"`
	Notes    []noteDoc `json:"notes"`
}

type restDoc struct {
	Duration string `json:"duration"`
	Position int    `json:"position"`
	Meta     string `json:"meta,omitempty"`
}

type noteDoc struct {
	Position   int    `json:"position"`
	Accidental string `json:"accidental,omitempty"`
	Meta       string `json:"meta,omitempty"`
}

// MarshalSystem encodes the whole tree as JSON.
func MarshalSystem(s *System) ([]byte, error) {
	doc := systemDoc{ID: s.ID, Meta: s.Meta.Encode(), Staves: []staffDoc{}}
	for _, st := range s.Staves {
		sd := staffDoc{Meta: st.Meta.Encode(), Measures: []measureDoc{}}
		for _, m := range st.Measures {
			md := measureDoc{
				Key:    m.Key,
				Beats:  m.Time.Beats,
				Unit:   m.Time.Unit,
				Clef:   m.Clef.String(),
				Meta:   m.Meta.Encode(),
				Voices: []voiceDoc{},
			}
			for _, v := range m.Voices {
				vd := voiceDoc{Groupings: []groupingDoc{}}
				for _, g := range v.Groupings {
					gd := groupingDoc{Meta: g.Meta.Encode(), Entries: []entryDoc{}}
					for _, e := range g.Entries {
						gd.Entries = append(gd.Entries, encodeEntry(e))
					}
					vd.Groupings = append(vd.Groupings, gd)
				}
				md.Voices = append(md.Voices, vd)
			}
			sd.Measures = append(sd.Measures, md)
		}
		doc.Staves = append(doc.Staves, sd)
	}
	return json.Marshal(doc)
}

func encodeEntry(e *Entry) entryDoc {
	var ed entryDoc
	if e.Rest != nil {
		ed.Rest = &restDoc{
			Duration: e.Rest.Duration.String(),
			Position: e.Rest.Position,
			Meta:     e.Rest.Meta.Encode(),
		}
	}
	if e.Chord != nil {
		cd := &chordDoc{Duration: e.Chord.Duration.String(), Dots: e.Chord.Dots, Notes: []noteDoc{}}
		for _, n := range e.Chord.Notes {
			cd.Notes = append(cd.Notes, noteDoc{
				Position:   n.Position,
				Accidental: n.Accidental.String(),
				Meta:       n.Meta.Encode(),
			})
		}
		ed.Chord = cd
	}
	return ed
}

// UnmarshalSystem decodes a tree written by MarshalSystem, re-indexes it and
// validates it. Undecodable input wraps ErrCorruptSnapshot; a tree that
// decodes but breaks a structural invariant wraps ErrStructuralViolation.
func UnmarshalSystem(data []byte) (*System, error) {
	var doc systemDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("%w: missing root id", ErrCorruptSnapshot)
	}

	s := &System{ID: doc.ID, Meta: ParseSystemMeta(doc.Meta)}
	for _, sd := range doc.Staves {
		st := &Staff{Meta: ParseStaffMeta(sd.Meta)}
		for _, md := range sd.Measures {
			clef, ok := ParseClef(md.Clef)
			if !ok {
				return nil, fmt.Errorf("%w: unknown clef %q", ErrCorruptSnapshot, md.Clef)
			}
			m := &Measure{
				Key:  md.Key,
				Time: TimeSignature{Beats: md.Beats, Unit: md.Unit},
				Clef: clef,
				Meta: ParseMeasureMeta(md.Meta),
			}
			for _, vd := range md.Voices {
				v := &Voice{}
				for _, gd := range vd.Groupings {
					g := &Grouping{Meta: ParseGroupingMeta(gd.Meta)}
					for _, ed := range gd.Entries {
						e, err := decodeEntry(ed)
						if err != nil {
							return nil, err
						}
						g.Entries = append(g.Entries, e)
					}
					v.Groupings = append(v.Groupings, g)
				}
				m.Voices = append(m.Voices, v)
			}
			st.Measures = append(st.Measures, m)
		}
		s.Staves = append(s.Staves, st)
	}

	s.Reindex()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeEntry(ed entryDoc) (*Entry, error) {
	e := &Entry{}
	if ed.Rest != nil {
		d, ok := ParseDuration(ed.Rest.Duration)
		if !ok {
			return nil, fmt.Errorf("%w: unknown duration %q", ErrCorruptSnapshot, ed.Rest.Duration)
		}
		e.Rest = &Rest{Duration: d, Position: ed.Rest.Position, Meta: ParseLeafMeta(ed.Rest.Meta)}
	}
	if ed.Chord != nil {
		d, ok := ParseDuration(ed.Chord.Duration)
		if !ok {
			return nil, fmt.Errorf("%w: unknown duration %q", ErrCorruptSnapshot, ed.Chord.Duration)
		}
		c := &Chord{Duration: d, Dots: ed.Chord.Dots}
		for _, nd := range ed.Chord.Notes {
			acc := AccidentalNone
			if nd.Accidental != "" {
				if acc, ok = ParseAccidental(nd.Accidental); !ok {
					return nil, fmt.Errorf("%w: unknown accidental %q", ErrCorruptSnapshot, nd.Accidental)
				}
			}
			c.Notes = append(c.Notes, &Note{Position: nd.Position, Accidental: acc, Meta: ParseLeafMeta(nd.Meta)})
		}
		e.Chord = c
	}
	return e, nil
}
