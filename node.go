package score

// Node is any addressable element of a score tree.
type Node interface {
	Address() Address
}

// Leaf is a node the cursor can select: a Note or a Rest.
type Leaf interface {
	Node
	leafMeta() *LeafMeta
}

// Duration is a note or rest duration class. Chords and rests share the
// enumeration, so converting one into the other keeps the class unchanged.
type Duration int

const (
	Whole Duration = iota
	Half
	Quarter
	Eighth
	Sixteenth
	ThirtySecond
	SixtyFourth
)

var durationNames = [...]string{"whole", "half", "quarter", "eighth", "sixteenth", "thirty-second", "sixty-fourth"}

func (d Duration) String() string {
	if !d.Valid() {
		return "unknown"
	}
	return durationNames[d]
}

// Valid reports whether d is one of the defined classes.
func (d Duration) Valid() bool {
	return d >= Whole && d <= SixtyFourth
}

// ParseDuration maps a class name (as returned by String) to its Duration.
func ParseDuration(name string) (Duration, bool) {
	for i, n := range durationNames {
		if n == name {
			return Duration(i), true
		}
	}
	return 0, false
}

// Accidental is the accidental drawn before a note.
type Accidental int

const (
	AccidentalNone Accidental = iota
	Sharp
	Flat
	Natural
	DoubleSharp
	DoubleFlat
)

var accidentalNames = [...]string{"none", "sharp", "flat", "natural", "double-sharp", "double-flat"}

func (a Accidental) String() string {
	if a < AccidentalNone || a > DoubleFlat {
		return "unknown"
	}
	return accidentalNames[a]
}

// ParseAccidental maps an accidental name to its Accidental.
func ParseAccidental(name string) (Accidental, bool) {
	for i, n := range accidentalNames {
		if n == name {
			return Accidental(i), true
		}
	}
	return 0, false
}

// Clef is the clef a measure is written in.
type Clef int

const (
	Treble Clef = iota
	Alto
	Bass
)

var clefNames = [...]string{"treble", "alto", "bass"}

func (c Clef) String() string {
	if c < Treble || c > Bass {
		return "unknown"
	}
	return clefNames[c]
}

// ParseClef maps a clef name to its Clef.
func ParseClef(name string) (Clef, bool) {
	for i, n := range clefNames {
		if n == name {
			return Clef(i), true
		}
	}
	return 0, false
}

// RestPosition is the vertical position of a fresh whole rest in this clef.
func (c Clef) RestPosition() int {
	if c == Treble {
		return 8
	}
	return -6
}

// TimeSignature is a measure's meter, e.g. 3/4.
type TimeSignature struct {
	Beats int
	Unit  int
}

// CommonTime is 4/4.
var CommonTime = TimeSignature{Beats: 4, Unit: 4}

// System is the root of a score tree.
type System struct {
	ID     string
	Meta   SystemMeta
	Staves []*Staff

	// index maps every live address to its node; rebuilt by Reindex.
	index map[Address]Node
}

// Address returns the system's root address.
func (s *System) Address() Address { return SystemAddress(s.ID) }

// Staff is an ordered list of measures.
type Staff struct {
	addr     Address
	sys      *System
	Meta     StaffMeta
	Measures []*Measure
}

func (n *Staff) Address() Address { return n.addr }

// Measure holds the voices played over one bar of a staff.
type Measure struct {
	addr   Address
	sys    *System
	Key    int // sharps when positive, flats when negative
	Time   TimeSignature
	Clef   Clef
	Meta   MeasureMeta
	Voices []*Voice
}

func (n *Measure) Address() Address { return n.addr }

// Voice is an ordered list of groupings.
type Voice struct {
	addr      Address
	sys       *System
	Groupings []*Grouping
}

func (n *Voice) Address() Address { return n.addr }

// Grouping is an ordered list of entries drawn as one rhythmic group.
type Grouping struct {
	addr    Address
	sys     *System
	Meta    GroupingMeta
	Entries []*Entry
}

func (n *Grouping) Address() Address { return n.addr }

// Entry is a slot holding exactly one of Chord or Rest.
type Entry struct {
	addr  Address
	Chord *Chord
	Rest  *Rest
}

func (n *Entry) Address() Address { return n.addr }

// Duration returns the duration class of the entry's event.
func (n *Entry) Duration() Duration {
	switch {
	case n.Chord != nil:
		return n.Chord.Duration
	case n.Rest != nil:
		return n.Rest.Duration
	}
	fault("entry %s holds no event", n.addr)
	return 0
}

// Leaf returns the leaf the cursor selects when it lands on the entry:
// the rest, or the chord's lowest note. It is nil for an empty chord.
func (n *Entry) Leaf() Leaf {
	if n.Rest != nil {
		return n.Rest
	}
	if n.Chord != nil && len(n.Chord.Notes) > 0 {
		return n.Chord.Notes[0]
	}
	return nil
}

// Chord is a set of notes sharing one stem.
type Chord struct {
	addr     Address
	sys      *System
	Duration Duration
	Dots     int
	Notes    []*Note // ordered by Position, positions unique
}

func (n *Chord) Address() Address { return n.addr }

// NoteAt returns the note at a vertical position, or nil.
func (n *Chord) NoteAt(position int) *Note {
	for _, note := range n.Notes {
		if note.Position == position {
			return note
		}
	}
	return nil
}

// Rest is a silence. Position only places it vertically.
type Rest struct {
	addr     Address
	Duration Duration
	Position int
	Meta     LeafMeta
}

func (n *Rest) Address() Address    { return n.addr }
func (n *Rest) leafMeta() *LeafMeta { return &n.Meta }

// Note is one pitch of a chord.
type Note struct {
	addr       Address
	Position   int
	Accidental Accidental
	Meta       LeafMeta
}

func (n *Note) Address() Address    { return n.addr }
func (n *Note) leafMeta() *LeafMeta { return &n.Meta }
