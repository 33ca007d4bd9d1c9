package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/phroun/score"
	"github.com/phroun/score/internal/estimate"
)

// REPL holds the state of the interactive session
type REPL struct {
	ctx    context.Context
	repo   *score.Repository
	reader *bufio.Reader
	out    io.Writer

	cursor *score.Cursor
}

func (r *REPL) loop() {
	fmt.Fprintln(r.out, "Score REPL - interactive score editor")
	fmt.Fprintln(r.out, "Type 'help' for available commands, 'quit' to exit")
	fmt.Fprintln(r.out)

	for {
		fmt.Fprint(r.out, "score> ")
		input, err := r.reader.ReadString('\n')
		if err != nil {
			fmt.Fprintln(r.out, "\nGoodbye!")
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !r.handleCommand(input) {
			return
		}
	}
}

func (r *REPL) open(s *score.System) error {
	c, err := score.NewCursor(s, score.WithLogger(logger))
	if err != nil {
		return err
	}
	r.cursor = c
	return nil
}

// cursorOps are the argument-free cursor commands. Each reports whether
// the score changed or the cursor moved.
var cursorOps = map[string]func(*score.Cursor) bool{
	"left":   (*score.Cursor).MoveLeft,
	"right":  (*score.Cursor).MoveRight,
	"staff+": (*score.Cursor).IncreaseStaff,
	"staff-": (*score.Cursor).DecreaseStaff,
	"voice+": (*score.Cursor).IncreaseVoice,
	"voice-": (*score.Cursor).DecreaseVoice,
	"chord+": (*score.Cursor).NextChordNote,
	"chord-": (*score.Cursor).PrevChordNote,
	"toggle": (*score.Cursor).ToggleType,
	"del":    (*score.Cursor).DeleteNote,
	"rmm":    (*score.Cursor).RemoveMeasures,
	"swapl":  (*score.Cursor).SwapMeasureLeft,
	"swapr":  (*score.Cursor).SwapMeasureRight,
}

func (r *REPL) handleCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	if op, ok := cursorOps[cmd]; ok {
		if r.ensureScore() {
			r.report(op(r.cursor))
		}
		return true
	}

	switch cmd {
	case "help":
		r.printHelp()

	case "quit", "exit":
		fmt.Fprintln(r.out, "Goodbye!")
		return false

	case "new":
		r.cmdNew(args)

	case "load":
		r.cmdLoad(args)

	case "save":
		r.cmdSave()

	case "show":
		if r.ensureScore() {
			printScore(r.out, r.cursor.System())
		}

	case "status":
		r.cmdStatus()

	case "inspect":
		r.cmdInspect(args)

	case "dur":
		r.cmdDuration(args)

	case "acc":
		r.cmdAccidental(args)

	case "add", "pos", "insert":
		r.cmdNumeric(cmd, args)

	case "layout":
		r.cmdLayout(false)

	case "reflow":
		r.cmdLayout(true)

	default:
		fmt.Fprintf(r.out, "Unknown command: %s. Type 'help' for available commands.\n", cmd)
	}

	return true
}

func (r *REPL) printHelp() {
	help := `
Available Commands:
-------------------

SCORES:
  new [staves] [measures]  Create an empty score (default 2 staves, 4 measures)
  load <root-id>           Load a score from the store
  save                     Write the current score to the store
  show                     Print the score, selected leaf highlighted
  status                   Show the score size and cursor address
  inspect <key>            Describe the node at an address key

NAVIGATION:
  left, right              Move to the previous or next entry
  staff+, staff-           Jump to the next or previous staff
  voice+, voice-           Jump to the next or previous voice
  chord+, chord-           Select the next higher or lower note of a chord

EDITING:
  toggle                   Turn a chord into a rest or a rest into a chord
  dur <name>               Set the duration (whole, half, quarter, ...)
  acc <name>               Set the accidental (none, sharp, flat, ...)
  add <position>           Add a note to the selected chord
  pos <delta>              Move the selected leaf up or down
  del                      Delete the selected note

MEASURES:
  rmm                      Remove the selected measure from every staff
  swapl, swapr             Swap the measure with its left or right neighbor
  insert <row>             Insert a rest measure row before the given row

LAYOUT:
  layout                   Lay the score out and print rows and pages
  reflow                   Lay out and keep the computed row lengths

OTHER:
  help                     Show this help message
  quit, exit               Exit the REPL
`
	fmt.Fprintln(r.out, help)
}

func (r *REPL) cmdNew(args []string) {
	staves, measures := 2, 4
	var err error
	if len(args) > 0 {
		if staves, err = strconv.Atoi(args[0]); err != nil || staves < 1 {
			r.fail("staves must be a positive number")
			return
		}
	}
	if len(args) > 1 {
		if measures, err = strconv.Atoi(args[1]); err != nil || measures < 1 {
			r.fail("measures must be a positive number")
			return
		}
	}
	if err := r.open(emptyScore(staves, measures)); err != nil {
		r.fail(err.Error())
		return
	}
	fmt.Fprintf(r.out, "Created score %s with %d staves of %d measures\n",
		r.cursor.System().ID, staves, measures)
}

func (r *REPL) cmdLoad(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "Usage: load <root-id>")
		return
	}
	s, err := fetch(r.ctx, r.repo, args[0])
	if err != nil {
		r.fail(err.Error())
		return
	}
	if err := r.open(s); err != nil {
		r.fail(err.Error())
		return
	}
	fmt.Fprintf(r.out, "Loaded score %s\n", s.ID)
}

func (r *REPL) cmdSave() {
	if !r.ensureScore() {
		return
	}
	s := r.cursor.System()
	if err := r.repo.Replace(r.ctx, s); err != nil {
		r.fail(err.Error())
		return
	}
	fmt.Fprintf(r.out, "Saved score %s\n", s.ID)
}

func (r *REPL) cmdStatus() {
	if !r.ensureScore() {
		return
	}
	s := r.cursor.System()
	fmt.Fprintln(r.out, "Score Status:")
	fmt.Fprintf(r.out, "  ID: %s\n", s.ID)
	fmt.Fprintf(r.out, "  Staves: %d, Measures per staff: %d, Entries: %d\n",
		len(s.Staves), s.MeasureCount(), s.EntryCount())
	fmt.Fprintf(r.out, "  Row lengths: %v\n", s.Meta.RowLengths)
	fmt.Fprintf(r.out, "  Cursor: %s\n", r.cursor.Address())
	if e := r.cursor.Entry(); e != nil {
		fmt.Fprintf(r.out, "  Entry: %s, shift %s\n", e.Duration(), s.ShiftOf(e))
	}
}

func (r *REPL) cmdInspect(args []string) {
	if !r.ensureScore() {
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(r.out, "Usage: inspect <key>")
		return
	}
	n, err := r.cursor.System().Resolve(args[0])
	if err != nil {
		r.fail(err.Error())
		return
	}
	fmt.Fprintf(r.out, "%s: %s\n  hash %016x\n", n.Address(), describe(n), n.Address().Hash())
}

func (r *REPL) cmdDuration(args []string) {
	if !r.ensureScore() {
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(r.out, "Usage: dur <whole|half|quarter|eighth|sixteenth|thirty-second|sixty-fourth>")
		return
	}
	d, ok := score.ParseDuration(args[0])
	if !ok {
		r.fail("unknown duration " + args[0])
		return
	}
	r.report(r.cursor.SetDuration(d))
}

func (r *REPL) cmdAccidental(args []string) {
	if !r.ensureScore() {
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(r.out, "Usage: acc <none|sharp|flat|natural|double-sharp|double-flat>")
		return
	}
	a, ok := score.ParseAccidental(args[0])
	if !ok {
		r.fail("unknown accidental " + args[0])
		return
	}
	r.report(r.cursor.SetAccidental(a))
}

// cmdNumeric runs the commands taking one integer argument.
func (r *REPL) cmdNumeric(cmd string, args []string) {
	if !r.ensureScore() {
		return
	}
	if len(args) != 1 {
		fmt.Fprintf(r.out, "Usage: %s <number>\n", cmd)
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		r.fail("not a number: " + args[0])
		return
	}
	switch cmd {
	case "add":
		r.report(r.cursor.AddChordNote(n))
	case "pos":
		r.report(r.cursor.MovePosition(n))
	case "insert":
		r.report(r.cursor.InsertRow(n))
	}
}

func (r *REPL) cmdLayout(keep bool) {
	if !r.ensureScore() {
		return
	}
	s := r.cursor.System()
	v, err := score.Run(r.ctx, s, estimate.Default(), layoutOptions())
	if err != nil {
		r.fail(err.Error())
		return
	}
	printVisual(r.out, v)
	if keep {
		s.Meta.RowLengths = v.RowLengths()
		fmt.Fprintln(r.out, okColor("row lengths updated; 'save' to store them"))
	}
}

func (r *REPL) report(changed bool) {
	if !changed {
		fmt.Fprintln(r.out, "no change")
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", okColor("at"), r.cursor.Address())
}

func (r *REPL) fail(msg string) {
	fmt.Fprintf(r.out, "%s %s\n", errorColor("Error:"), msg)
}

func (r *REPL) ensureScore() bool {
	if r.cursor == nil {
		fmt.Fprintln(r.out, "No score is open. Use 'new' or 'load <root-id>'.")
		return false
	}
	return true
}
