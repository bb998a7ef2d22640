package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/mathrain/internal/core"
	"github.com/vovakirdan/mathrain/internal/platform/tui"
	"github.com/vovakirdan/mathrain/internal/storage"
)

var (
	flagDifficulty string
	flagNoJournal  bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in this terminal",
	Long: `Start Math Rain in the current terminal.

Controls:
  Up/Down        - Choose a difficulty
  Enter          - Start, or submit the typed answer
  Tab/Right      - Select the next drop (or click it)
  Shift+Tab/Left - Select the previous drop
  0-9, -         - Type the answer
  Ctrl+R         - Abandon the session
  ?              - Show all keys
  Esc/Q/Ctrl+C   - Quit

Difficulty options:
  easy   - a drop every 3s, 8s to fall, operands up to 10
  medium - a drop every 2s, 6s to fall, operands up to 20
  hard   - a drop every 1.5s, 4s to fall, operands up to 50

Examples:
  mathrain play
  mathrain play --difficulty easy
  mathrain play --config ./classroom.yaml --no-journal`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Preselected difficulty preset")
	playCmd.Flags().BoolVar(&flagNoJournal, "no-journal", false, "Do not record attempts")
}

func runPlay(_ *cobra.Command, _ []string) {
	rules, err := loadRules()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns the terminal, so logs are discarded unless --log-file is set.
	logger, closeLog, err := newLogger("mathrain", io.Discard)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	var store *storage.Store
	if !flagNoJournal {
		store, err = storage.Open(flagDBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not open practice journal: %v\n", err)
			// Continue without journaling - game still works
			store = nil
		}
	}

	runErr := tui.Run(tui.Options{
		Rules: rules,
		Runtime: core.RuntimeConfig{
			ScreenW: width,
			ScreenH: height,
			FPS:     flagFPS,
			Seed:    flagSeed,
		},
		Store:  store,
		Player: os.Getenv("USER"),
		Preset: flagDifficulty,
		Logger: logger,
	})

	if store != nil {
		store.Close()
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running game: %v\n", runErr)
		os.Exit(1)
	}
}
