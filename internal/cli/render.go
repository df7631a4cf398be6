// Package cli holds shared colored terminal rendering helpers for the
// organizador subcommands, grounded on the teacher's fatih/color usage.
package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/brunoalves/organizador/internal/types"
)

var (
	green  = color.New(color.FgGreen, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	dim    = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// PrintBackendStatus renders the `info` subcommand's backend/config
// status line.
func PrintBackendStatus(backend string, healthy bool, rulesFile string, ruleCount int) {
	fmt.Println(bold("organizador"))
	if healthy {
		fmt.Printf("  backend:  %s %s\n", green("✓"), backend)
	} else {
		fmt.Printf("  backend:  %s %s (unreachable)\n", red("✗"), backend)
	}
	fmt.Printf("  rules:    %s %s (%d rules)\n", dim("·"), rulesFile, ruleCount)
}

// PrintScanSummary renders the `scan` subcommand's statistics.
func PrintScanSummary(total int, warnings []string) {
	fmt.Printf("%s scanned %d files\n", green("✓"), total)
	if len(warnings) == 0 {
		return
	}
	fmt.Printf("%s %d warnings:\n", yellow("!"), len(warnings))
	for _, w := range warnings {
		fmt.Printf("  %s %s\n", dim("·"), w)
	}
}

// PrintPlanSummary renders a Plan's counts by action and the artifact
// paths for the `plan` subcommand. It prints no per-category breakdown.
func PrintPlanSummary(plan types.Plan, structuredPath, markdownPath string) {
	fmt.Printf("%s plan %s (%d items)\n", green("✓"), plan.ID, len(plan.Items))
	fmt.Printf("  %-8s %d\n", "MOVE", plan.Counts.Move)
	fmt.Printf("  %-8s %d\n", "COPY", plan.Counts.Copy)
	fmt.Printf("  %-8s %d\n", "RENAME", plan.Counts.Rename)
	fmt.Printf("  %-8s %d\n", "SKIP", plan.Counts.Skip)
	fmt.Println()
	fmt.Printf("  %s %s\n", dim("structured:"), structuredPath)
	fmt.Printf("  %s %s\n", dim("summary:   "), markdownPath)
}

// PrintManifestSummary renders the `execute` subcommand's per-run
// outcome: counts by status and the manifest path.
func PrintManifestSummary(manifest types.Manifest, manifestPath string) {
	counts := map[types.ExecStatus]int{}
	for _, r := range manifest.Results {
		counts[r.Status]++
	}

	icon := green("✓")
	if counts[types.StatusFailed] > 0 {
		icon = red("✗")
	}
	fmt.Printf("%s %s run: %d results\n", icon, strings.ToUpper(string(manifest.Mode)), len(manifest.Results))
	fmt.Printf("  %-10s %d\n", string(types.StatusApplied)+":", counts[types.StatusApplied])
	fmt.Printf("  %-10s %d\n", string(types.StatusDryRun)+":", counts[types.StatusDryRun])
	fmt.Printf("  %-10s %d\n", string(types.StatusSkipped)+":", counts[types.StatusSkipped])
	if counts[types.StatusFailed] > 0 {
		fmt.Printf("  %-10s %s\n", string(types.StatusFailed)+":", red(fmt.Sprintf("%d", counts[types.StatusFailed])))
		for _, r := range manifest.Results {
			if r.Status == types.StatusFailed {
				fmt.Printf("    %s %s: %s (%s)\n", red("·"), r.Item.Source, r.ErrorMessage, r.ErrorKind)
			}
		}
	}
	fmt.Printf("  %s %s\n", dim("manifest:"), manifestPath)
}

// Confirm prints a yes/no confirmation prompt label; the caller reads
// the actual keystroke (see cmd/organizador/execute.go, which is
// TTY-aware via golang.org/x/term).
func Confirm(label string) string {
	return fmt.Sprintf("%s %s [y/N]: ", yellow("?"), label)
}
