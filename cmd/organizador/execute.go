package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/brunoalves/organizador/internal/cli"
	"github.com/brunoalves/organizador/internal/executor"
	"github.com/brunoalves/organizador/internal/planner"
	"github.com/brunoalves/organizador/internal/types"
)

var applyFlag bool

var executeCmd = &cobra.Command{
	Use:   "execute <plan-file>",
	Short: "Execute a previously generated plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runExecute,
}

func init() {
	executeCmd.Flags().BoolVar(&applyFlag, "apply", false, "perform real filesystem mutations (default: dry-run)")
}

func runExecute(cmd *cobra.Command, args []string) error {
	defer log.Close()

	plan, err := planner.LoadArtifact(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "execute failed: corrupt plan file: %v\n", err)
		os.Exit(2)
	}

	mode := types.ModeDryRun
	if applyFlag {
		if !confirmApply(len(plan.Items)) {
			fmt.Fprintln(os.Stderr, "aborted")
			return nil
		}
		mode = types.ModeApply
	}

	ex := executor.New(cfg.Executor)

	runCtx := cmd.Context()
	if cfg.Executor.OverallTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, cfg.Executor.OverallTimeout)
		defer cancel()
	}

	manifest, manifestPath, runErr := executor.RunGuarded("logs", time.Now(), func() types.Manifest {
		return ex.Run(runCtx, plan, mode)
	})
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "execute failed: %v\n", runErr)
		os.Exit(1)
	}

	cli.PrintManifestSummary(manifest, manifestPath)

	for _, r := range manifest.Results {
		if r.Status == types.StatusFailed {
			os.Exit(1)
		}
	}
	return nil
}

// confirmApply prompts for confirmation before a real apply when stdin
// is a terminal; non-interactive runs (CI, pipes) proceed without
// prompting since --apply itself is the explicit opt-in.
func confirmApply(itemCount int) bool {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return true
	}
	fmt.Fprint(os.Stderr, cli.Confirm(fmt.Sprintf("apply %d plan items", itemCount)))
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
