// mathrain is a terminal arithmetic game: problems fall like raindrops and
// the player answers them before they hit the ground.
//
// Usage:
//
//	mathrain play            - Play in this terminal
//	mathrain presets         - List difficulty presets
//	mathrain review          - Browse the practice journal
//	mathrain serve           - Start SSH server for remote play
//
// Global flags:
//
//	--fps <rate>        - Set frame rate (default: 30)
//	--seed <value>      - Set RNG seed for reproducible sessions
//	--db <path>         - Set journal path (default: ~/.mathrain/journal.db)
//	--config <path>     - Use a custom config YAML
//	--log-level <lvl>   - debug, info, warn or error
//	--log-file <path>   - Write logs to a file
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/mathrain/internal/config"
	"github.com/vovakirdan/mathrain/internal/raindrops"
)

var (
	// Global flags
	flagFPS      int
	flagSeed     int64
	flagDBPath   string
	flagConfig   string
	flagLogLevel string
	flagLogFile  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mathrain",
	Short: "Math Rain - answer the sums before they land",
	Long: `Math Rain is a terminal arithmetic game. Problems fall down the
screen; select one and type its answer before it reaches the ground.
Each correct answer scores 10 points times the level, every 100 points
raises the level, and three misses end the game.

Available commands:
  play     - Play in this terminal
  presets  - List difficulty presets
  review   - Browse the practice journal
  serve    - Start SSH server for remote play

Examples:
  mathrain play
  mathrain play --difficulty hard
  mathrain review --plain
  mathrain serve --ssh :2222`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 30, "Frame rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.mathrain/journal.db", "Path to practice journal database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadRules reads the config and builds the session rules from it.
func loadRules() (raindrops.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return raindrops.Config{}, err
	}
	return cfg.SessionRules()
}

// newLogger builds the command logger. Logs go to --log-file when set,
// otherwise to fallback. The returned close func is never nil.
func newLogger(prefix string, fallback io.Writer) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --log-level: %w", err)
	}

	w := fallback
	closeFn := func() {}
	if flagLogFile != "" {
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot open log file: %w", err)
		}
		w = f
		closeFn = func() { f.Close() }
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           level,
	})
	return logger, closeFn, nil
}
