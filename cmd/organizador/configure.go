package main

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/brunoalves/organizador/internal/config"
)

var configureKeyCmd = &cobra.Command{
	Use:   "configure-key <openai|gemini>",
	Short: "Store a backend API key in the OS keychain",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureKey,
}

func runConfigureKey(cmd *cobra.Command, args []string) error {
	backend := config.Backend(args[0])
	switch backend {
	case config.BackendOpenAI, config.BackendGemini:
	default:
		return fmt.Errorf("configure-key only supports %q or %q", config.BackendOpenAI, config.BackendGemini)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Enter API key for %s: ", backend)
	key, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if len(key) == 0 {
		return fmt.Errorf("no API key entered")
	}

	if err := config.SaveAPIKey(backend, string(key)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "saved %s API key to OS keychain; run with --use-keychain to use it\n", backend)
	return nil
}
