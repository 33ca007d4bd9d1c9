package score

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// Level identifies how deep in the tree an address points.
type Level int

const (
	// LevelSystem addresses the root.
	LevelSystem Level = iota

	// LevelStaff addresses a staff within the system.
	LevelStaff

	// LevelMeasure addresses a measure within a staff.
	LevelMeasure

	// LevelVoice addresses a voice within a measure.
	LevelVoice

	// LevelGrouping addresses a grouping within a voice.
	LevelGrouping

	// LevelEntry addresses a grouping entry, and the chord or rest it holds.
	LevelEntry

	// LevelNote addresses a note by its chord's entry address plus its position.
	LevelNote
)

var levelNames = [...]string{"system", "staff", "measure", "voice", "grouping", "entry", "note"}

func (l Level) String() string {
	if l < LevelSystem || l > LevelNote {
		return "unknown"
	}
	return levelNames[l]
}

// Address identifies a node by the ordinal path from the root.
//
// Components deeper than Level are always zero, so two addresses are equal
// exactly when they name the same structural position, and an Address can be
// used directly as a map key.
type Address struct {
	Root  string
	Level Level

	Staff    int
	Measure  int
	Voice    int
	Grouping int
	Entry    int

	// Position is the note's vertical position. Unlike the other components it
	// is a content key, not an ordinal. Only meaningful at LevelNote.
	Position int
}

// SystemAddress creates the address of a system root.
func SystemAddress(root string) Address {
	return Address{Root: root, Level: LevelSystem}
}

// StaffAddress creates the address of a staff.
func StaffAddress(root string, staff int) Address {
	return Address{Root: root, Level: LevelStaff, Staff: staff}
}

// MeasureAddress creates the address of a measure.
func MeasureAddress(root string, staff, measure int) Address {
	return Address{Root: root, Level: LevelMeasure, Staff: staff, Measure: measure}
}

// EntryAddress creates the address of a grouping entry.
func EntryAddress(root string, staff, measure, voice, grouping, entry int) Address {
	return Address{
		Root:     root,
		Level:    LevelEntry,
		Staff:    staff,
		Measure:  measure,
		Voice:    voice,
		Grouping: grouping,
		Entry:    entry,
	}
}

// NoteAddress creates the address of a note within the chord at an entry.
func NoteAddress(root string, staff, measure, voice, grouping, entry, position int) Address {
	a := EntryAddress(root, staff, measure, voice, grouping, entry)
	a.Level = LevelNote
	a.Position = position
	return a
}

// Child returns the address one level down with the given ordinal. For an
// entry address the ordinal is taken as a note position.
func (a Address) Child(ordinal int) Address {
	c := a
	switch a.Level {
	case LevelSystem:
		c.Staff = ordinal
	case LevelStaff:
		c.Measure = ordinal
	case LevelMeasure:
		c.Voice = ordinal
	case LevelVoice:
		c.Grouping = ordinal
	case LevelGrouping:
		c.Entry = ordinal
	case LevelEntry:
		c.Position = ordinal
	default:
		fault("child of %s address", a.Level)
	}
	c.Level = a.Level + 1
	return c
}

// Parent returns the address one level up. The parent of a system address is itself.
func (a Address) Parent() Address {
	p := a
	switch a.Level {
	case LevelSystem:
		return a
	case LevelStaff:
		p.Staff = 0
	case LevelMeasure:
		p.Measure = 0
	case LevelVoice:
		p.Voice = 0
	case LevelGrouping:
		p.Grouping = 0
	case LevelEntry:
		p.Entry = 0
	case LevelNote:
		p.Position = 0
	}
	p.Level = a.Level - 1
	return p
}

// Ancestor returns the enclosing address at the given level.
func (a Address) Ancestor(level Level) Address {
	for a.Level > level {
		a = a.Parent()
	}
	return a
}

// Ordinal returns the last path component, or the position for a note.
func (a Address) Ordinal() int {
	switch a.Level {
	case LevelStaff:
		return a.Staff
	case LevelMeasure:
		return a.Measure
	case LevelVoice:
		return a.Voice
	case LevelGrouping:
		return a.Grouping
	case LevelEntry:
		return a.Entry
	case LevelNote:
		return a.Position
	}
	return 0
}

// Equal reports whether two addresses name the same structural position.
func (a Address) Equal(b Address) bool {
	return a == b
}

// Key renders the stable structural key: root id, then the ordinal path,
// then "@position" for notes. For example "r1/0.2.0.1.3@-4".
func (a Address) Key() string {
	if a.Level == LevelSystem {
		return a.Root
	}
	path := [...]int{a.Staff, a.Measure, a.Voice, a.Grouping, a.Entry}
	depth := int(a.Level)
	if a.Level == LevelNote {
		depth = int(LevelEntry)
	}

	var b strings.Builder
	b.WriteString(a.Root)
	b.WriteByte('/')
	for i := 0; i < depth; i++ {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(path[i]))
	}
	if a.Level == LevelNote {
		b.WriteByte('@')
		b.WriteString(strconv.Itoa(a.Position))
	}
	return b.String()
}

// Hash returns a 64-bit digest of Key.
func (a Address) Hash() uint64 {
	return xxh3.HashString(a.Key())
}

func (a Address) String() string {
	return a.Level.String() + " " + a.Key()
}

// ParseAddress parses a key produced by Address.Key.
func ParseAddress(key string) (Address, error) {
	slash := strings.LastIndexByte(key, '/')
	if slash < 0 {
		if key == "" {
			return Address{}, fmt.Errorf("%w: empty key", ErrMalformedAddress)
		}
		return SystemAddress(key), nil
	}

	a := SystemAddress(key[:slash])
	rest := key[slash+1:]
	position, hasPosition := "", false
	if at := strings.IndexByte(rest, '@'); at >= 0 {
		rest, position, hasPosition = rest[:at], rest[at+1:], true
	}

	parts := strings.Split(rest, ".")
	if len(parts) > int(LevelEntry) || (hasPosition && len(parts) != int(LevelEntry)) {
		return Address{}, fmt.Errorf("%w: %q", ErrMalformedAddress, key)
	}
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Address{}, fmt.Errorf("%w: %q", ErrMalformedAddress, key)
		}
		a = a.Child(n)
	}
	if hasPosition {
		n, err := strconv.Atoi(position)
		if err != nil {
			return Address{}, fmt.Errorf("%w: %q", ErrMalformedAddress, key)
		}
		a = a.Child(n)
	}
	return a, nil
}
