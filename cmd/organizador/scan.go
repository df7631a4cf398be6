package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brunoalves/organizador/internal/cli"
	"github.com/brunoalves/organizador/internal/scanner"
	"github.com/brunoalves/organizador/internal/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Print scan statistics for a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	defer log.Close()

	root := args[0]
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "scan failed: %s is not a readable directory\n", root)
		os.Exit(2)
	}

	sc := scanner.New(cfg.Scanner)

	out := make(chan types.FileRecord, 256)
	errCh := make(chan error, 1)
	go func() {
		errCh <- sc.Scan(cmd.Context(), []string{root}, out)
	}()

	total := 0
	for range out {
		total++
	}

	if err := <-errCh; err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		os.Exit(2)
	}

	warnings := make([]string, 0, len(sc.Warnings()))
	for _, w := range sc.Warnings() {
		warnings = append(warnings, fmt.Sprintf("%s: %s", w.Path, w.Err))
	}

	cli.PrintScanSummary(total, warnings)
	return nil
}
