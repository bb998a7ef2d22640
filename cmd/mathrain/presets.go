package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/mathrain/internal/problem"
)

var (
	colorTitle   = color.New(color.FgGreen, color.Bold)
	colorInfo    = color.New(color.FgHiBlue)
	colorDefault = color.New(color.FgCyan)
	colorDim     = color.New(color.FgHiBlack)
	colorAlert   = color.New(color.FgRed)
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List difficulty presets",
	Long:  `Shows the difficulty presets from the active configuration and how each level-up changes them.`,
	Args:  cobra.NoArgs,
	Run:   runPresets,
}

func runPresets(_ *cobra.Command, _ []string) {
	rules, err := loadRules()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	colorTitle.Println("Difficulty presets:")
	fmt.Println()

	entries := rules.Presets.Entries()

	maxNameLen := 4 // "Name" header
	for _, e := range entries {
		maxNameLen = max(maxNameLen, len(e.Name))
	}

	fmt.Printf("  %-*s  %-8s  %-8s  %s\n", maxNameLen, "Name", "Spawn", "Fall", "Operands")
	fmt.Printf("  %-*s  %-8s  %-8s  %s\n", maxNameLen, "----", "-----", "----", "--------")

	for _, e := range entries {
		p := e.Profile
		name := string(e.Name)
		if e.Name == rules.Presets.Fallback() {
			name += "*"
		}
		colorDefault.Printf("  %-*s", maxNameLen, name)
		fmt.Printf("  %-8s  %-8s  +/- up to %d, x up to %d\n",
			p.SpawnInterval, p.FallDuration, p.OperandCeiling, problem.MultiplyBound(p.OperandCeiling))
	}

	r := rules.Rule
	fmt.Println()
	colorInfo.Printf("Every %d points: ", rules.LevelUpEvery)
	fmt.Printf("fall time -%v (floor %v), spawn interval -%v (floor %v)\n",
		r.FallStep, r.FallFloor, r.SpawnStep, r.SpawnFloor)
	colorDim.Println("* used for unknown difficulty choices")
}
