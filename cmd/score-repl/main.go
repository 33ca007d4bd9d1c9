// score-repl is an interactive editor for scores kept in a local store.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration. Flags override it.
type Config struct {
	Store struct {
		// Backend is one of memory, fs or badger.
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
	} `yaml:"store"`

	Page struct {
		Width    float64 `yaml:"width"`
		Height   float64 `yaml:"height"`
		StaveGap float64 `yaml:"staveGap"`
	} `yaml:"page"`

	LogLevel string `yaml:"logLevel"`
}

func defaultConfig() Config {
	var c Config
	c.Store.Backend = "fs"
	c.Store.Path = "scores"
	c.Page.Width = 800
	c.Page.Height = 1000
	c.Page.StaveGap = 40
	c.LogLevel = "warn"
	return c
}

var (
	config     = defaultConfig()
	logger     *slog.Logger
	configPath string

	rootCmd = &cobra.Command{
		Use:   "score-repl",
		Short: "Edit and lay out scores interactively",
		Long: `score-repl opens a score from the configured store and edits it with
a cursor, one command per line. Scores are saved back on request.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
		RunE:              runRepl,
	}

	replCmd = &cobra.Command{
		Use:   "repl [root-id]",
		Short: "Start the interactive editor, optionally opening a stored score",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRepl,
	}

	newCmd = &cobra.Command{
		Use:   "new",
		Short: "Create an empty score and store it",
		Args:  cobra.NoArgs,
		RunE:  runNew,
	}

	layoutCmd = &cobra.Command{
		Use:   "layout <root-id>",
		Short: "Lay a stored score out into rows and pages",
		Args:  cobra.ExactArgs(1),
		RunE:  runLayout,
	}

	rmCmd = &cobra.Command{
		Use:   "rm <root-id>",
		Short: "Delete a stored score",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemove,
	}
)

var (
	newStaves   int
	newMeasures int
	reflow      bool
	workers     int
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "score.yaml", "configuration file; ignored when missing")
	pf.String("store", "", "storage backend: fs (default), badger, or memory for a throwaway repl session")
	pf.String("path", "", "storage directory for the fs and badger backends")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.Float64("page-width", 0, "page content width")
	pf.Float64("page-height", 0, "page content height; 0 for one unbounded page")

	newCmd.Flags().IntVar(&newStaves, "staves", 2, "number of staves")
	newCmd.Flags().IntVar(&newMeasures, "measures", 4, "number of measures per staff")
	layoutCmd.Flags().BoolVar(&reflow, "reflow", false, "store the computed row lengths in the score")
	layoutCmd.Flags().IntVar(&workers, "workers", 0, "measure chunks concurrently with this many workers")

	rootCmd.AddCommand(replCmd, newCmd, layoutCmd, rmCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file, then applies any flags that were set.
func loadConfig(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read %s: %w", configPath, err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		config.Store.Backend, _ = flags.GetString("store")
	}
	if flags.Changed("path") {
		config.Store.Path, _ = flags.GetString("path")
	}
	if flags.Changed("log-level") {
		config.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("page-width") {
		config.Page.Width, _ = flags.GetFloat64("page-width")
	}
	if flags.Changed("page-height") {
		config.Page.Height, _ = flags.GetFloat64("page-height")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(config.LogLevel)); err != nil {
		return fmt.Errorf("log level %q: %w", config.LogLevel, err)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return nil
}
