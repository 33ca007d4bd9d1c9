// score-bench measures the cost of the common score operations on a
// generated score: building, indexing, cursor traversal and edits,
// snapshots, storage and layout.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/phroun/score"
	"github.com/phroun/score/badgerstore"
	"github.com/phroun/score/internal/estimate"
)

type BenchResult struct {
	Name     string
	Duration time.Duration
	Ops      int
	Extra    string
}

func (r BenchResult) String() string {
	if r.Ops > 0 {
		opsPerSec := float64(r.Ops) / r.Duration.Seconds()
		if r.Extra != "" {
			return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec) %s", r.Name, r.Duration.Round(time.Microsecond), r.Ops, opsPerSec, r.Extra)
		}
		return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec)", r.Name, r.Duration.Round(time.Microsecond), r.Ops, opsPerSec)
	}
	if r.Extra != "" {
		return fmt.Sprintf("%-40s %12v  %s", r.Name, r.Duration.Round(time.Microsecond), r.Extra)
	}
	return fmt.Sprintf("%-40s %12v", r.Name, r.Duration.Round(time.Microsecond))
}

var (
	staves   int
	measures int
	entries  int
	workers  int
	latency  time.Duration
	rounds   int

	rootCmd = &cobra.Command{
		Use:          "score-bench",
		Short:        "Benchmark score operations on a generated score",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         run,
	}
)

func init() {
	f := rootCmd.Flags()
	f.IntVar(&staves, "staves", 4, "staves in the generated score")
	f.IntVar(&measures, "measures", 200, "measures per staff")
	f.IntVar(&entries, "entries", 4, "entries per measure")
	f.IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "workers for the concurrent layout")
	f.DurationVar(&latency, "latency", 200*time.Microsecond, "simulated render time per measured chunk")
	f.IntVar(&rounds, "rounds", 20, "repetitions of the cheaper operations")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	fmt.Println("Score Benchmark")
	fmt.Println("===============")
	fmt.Printf("Score: %d staves x %d measures x %d entries\n", staves, measures, entries)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
	fmt.Println()

	var results []BenchResult
	runBench := func(name string, fn func() (BenchResult, error)) error {
		fmt.Printf("  %-40s ", name+"...")
		result, err := fn()
		if err != nil {
			fmt.Println("failed")
			return fmt.Errorf("%s: %w", name, err)
		}
		result.Name = name
		fmt.Printf("%v\n", result.Duration.Round(time.Microsecond))
		results = append(results, result)
		return nil
	}

	var s *score.System
	fmt.Println("Tree operations:")
	steps := []struct {
		name string
		fn   func() (BenchResult, error)
	}{
		{"Build", func() (BenchResult, error) {
			start := time.Now()
			s = generate()
			return BenchResult{Duration: time.Since(start), Extra: fmt.Sprintf("%d entries", s.EntryCount())}, nil
		}},
		{"Reindex", func() (BenchResult, error) { return repeat(rounds, s.Reindex), nil }},
		{"Validate", func() (BenchResult, error) {
			start := time.Now()
			err := s.Validate()
			return BenchResult{Duration: time.Since(start), Ops: 1}, err
		}},
		{"Clone", func() (BenchResult, error) { return repeat(rounds, func() { s.Clone() }), nil }},
		{"Address hash table", func() (BenchResult, error) { return benchHashTable(s) }},
		{"Cursor traversal", func() (BenchResult, error) { return benchTraversal(s) }},
		{"Cursor edits", func() (BenchResult, error) { return benchEdits(s) }},
	}
	for _, st := range steps {
		if err := runBench(st.name, st.fn); err != nil {
			return err
		}
	}

	fmt.Println("\nSnapshots and storage:")
	if err := runBench("Marshal", func() (BenchResult, error) { return benchMarshal(s) }); err != nil {
		return err
	}
	if err := runBench("Repository (memory)", func() (BenchResult, error) {
		return benchRepository(ctx, score.NewMemoryBackend(), s)
	}); err != nil {
		return err
	}
	if err := runBench("Repository (badger in-memory)", func() (BenchResult, error) {
		store, err := badgerstore.OpenInMemory()
		if err != nil {
			return BenchResult{}, err
		}
		defer store.Close()
		return benchRepository(ctx, store, s)
	}); err != nil {
		return err
	}

	fmt.Println("\nLayout:")
	reg := prometheus.NewRegistry()
	opts := score.LayoutOptions{ContentWidth: 800, ContentHeight: 1000, StaveGap: 40, Metrics: score.NewMetrics(reg)}
	oracle := slowOracle{inner: estimate.Default(), delay: latency}
	if err := runBench("Layout (sequential)", func() (BenchResult, error) {
		start := time.Now()
		v, err := score.Run(ctx, s, oracle, opts)
		return BenchResult{Duration: time.Since(start), Ops: s.MeasureCount(), Extra: pageSummary(v)}, err
	}); err != nil {
		return err
	}
	if err := runBench(fmt.Sprintf("Layout (%d workers)", workers), func() (BenchResult, error) {
		start := time.Now()
		v, err := score.RunConcurrent(ctx, s, oracle, opts, workers)
		return BenchResult{Duration: time.Since(start), Ops: s.MeasureCount(), Extra: pageSummary(v)}, err
	}); err != nil {
		return err
	}

	fmt.Println("\n" + "=")
	fmt.Println("SUMMARY")
	fmt.Println("=")
	for _, r := range results {
		fmt.Println(r)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Println()
	fmt.Printf("Peak heap allocation: %d MB\n", m.HeapSys/(1024*1024))
	fmt.Printf("Total allocations: %d MB\n", m.TotalAlloc/(1024*1024))
	return nil
}

// generate builds a score whose measures hold chords of rising positions,
// with a rest every fourth entry.
func generate() *score.System {
	s := score.NewSystem()
	for i := range staves {
		clef := score.Treble
		if i > 0 {
			clef = score.Bass
		}
		st := s.AddStaff()
		for m := range measures {
			g := st.AddMeasure(clef, 0, score.CommonTime).AddVoice().AddGrouping()
			for e := range entries {
				if e%4 == 3 {
					g.AddRest(score.Quarter, clef.RestPosition())
					continue
				}
				p := (m + e) % 12
				g.AddChord(score.Quarter, p, p+4)
			}
		}
	}
	if staves > 1 {
		s.Meta.Connector = score.ConnectorBrace
	}
	s.Reindex()
	return s
}

func repeat(n int, fn func()) BenchResult {
	start := time.Now()
	for range n {
		fn()
	}
	return BenchResult{Duration: time.Since(start), Ops: n}
}

// benchHashTable keys every node by its address digest and resolves each
// one back through the table.
func benchHashTable(s *score.System) (BenchResult, error) {
	start := time.Now()
	table := make(map[uint64]score.Node)
	s.Walk(func(n score.Node) bool {
		table[n.Address().Hash()] = n
		return true
	})
	ops := 0
	missed := 0
	s.Walk(func(n score.Node) bool {
		if table[n.Address().Hash()] != n {
			missed++
		}
		ops++
		return true
	})
	if missed > 0 {
		return BenchResult{}, fmt.Errorf("%d of %d addresses collided", missed, ops)
	}
	return BenchResult{Duration: time.Since(start), Ops: ops, Extra: fmt.Sprintf("%d keys", len(table))}, nil
}

func benchTraversal(s *score.System) (BenchResult, error) {
	c, err := score.NewCursor(s.Clone())
	if err != nil {
		return BenchResult{}, err
	}
	start := time.Now()
	ops := 0
	for c.MoveRight() {
		ops++
	}
	for c.MoveLeft() {
		ops++
	}
	return BenchResult{Duration: time.Since(start), Ops: ops}, nil
}

// benchEdits walks a copy of the score left to right, toggling and
// reshaping every entry on the way.
func benchEdits(s *score.System) (BenchResult, error) {
	c, err := score.NewCursor(s.Clone(), score.WithMetrics(score.NewMetrics(prometheus.NewRegistry())))
	if err != nil {
		return BenchResult{}, err
	}
	start := time.Now()
	ops := 0
	for {
		c.ToggleType()
		c.ToggleType()
		c.SetDuration(score.Eighth)
		c.MovePosition(1)
		c.AddChordNote(20)
		ops += 5
		if !c.MoveRight() {
			break
		}
	}
	return BenchResult{Duration: time.Since(start), Ops: ops}, nil
}

func benchMarshal(s *score.System) (BenchResult, error) {
	start := time.Now()
	var size int
	for range rounds {
		data, err := score.MarshalSystem(s)
		if err != nil {
			return BenchResult{}, err
		}
		size = len(data)
	}
	return BenchResult{Duration: time.Since(start), Ops: rounds, Extra: fmt.Sprintf("%d KB", size/1024)}, nil
}

func benchRepository(ctx context.Context, backend score.Backend, s *score.System) (BenchResult, error) {
	repo := score.NewRepository(backend)
	start := time.Now()
	for range rounds {
		if err := repo.Replace(ctx, s); err != nil {
			return BenchResult{}, err
		}
		if _, err := repo.Fetch(ctx, s.ID); err != nil {
			return BenchResult{}, err
		}
	}
	return BenchResult{Duration: time.Since(start), Ops: 2 * rounds}, nil
}

// slowOracle delays every measurement, standing in for a real renderer.
type slowOracle struct {
	inner score.Oracle
	delay time.Duration
}

func (o slowOracle) Measure(ctx context.Context, req score.MeasureRequest) (score.Measurement, error) {
	select {
	case <-time.After(o.delay):
	case <-ctx.Done():
		return score.Measurement{}, ctx.Err()
	}
	return o.inner.Measure(ctx, req)
}

func pageSummary(v score.Visual) string {
	return fmt.Sprintf("%d pages, %d rows", len(v.Pages), len(v.RowLengths()))
}
