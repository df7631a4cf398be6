package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/brunoalves/organizador/internal/config"
	"github.com/brunoalves/organizador/internal/obslog"
)

var (
	Version = "dev"

	cfgFile       string
	verbose       bool
	quiet         bool
	backendLocal  bool
	backendGemini bool
	backendOpenAI bool
	backendRules  bool
	modelFlag     string
	useKeychain   bool

	logger *logrus.Logger
	log    *obslog.Logger
	cfg    *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

var rootCmd = &cobra.Command{
	Use:     "organizador",
	Short:   "Organize a local file tree into a fixed, auditable category layout",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logrus.New()
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else if quiet {
			logger.SetLevel(logrus.ErrorLevel)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		applyBackendFlags(cfg)

		runTS := config.RunTimestamp(nowForLog())
		var olog *obslog.Logger
		olog, err = obslog.New(obslog.Config{
			Verbose:    verbose,
			OutputFile: obslog.DefaultPath(runTS),
		})
		if err != nil {
			return err
		}
		log = olog

		return nil
	},
}

// nowForLog returns the current time used to name the run log artifact.
func nowForLog() time.Time { return time.Now() }

func applyBackendFlags(cfg *config.Config) {
	switch {
	case backendRules:
		cfg.LLM.Backend = config.BackendRulesOnly
	case backendGemini:
		cfg.LLM.Backend = config.BackendGemini
	case backendOpenAI:
		cfg.LLM.Backend = config.BackendOpenAI
	case backendLocal:
		cfg.LLM.Backend = config.BackendLocal
	}
	if modelFlag != "" {
		cfg.LLM.Model = modelFlag
	}
	if useKeychain {
		cfg.LLM.UseKeychain = true
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: none; built-in defaults and environment only)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "set the CLI logger to error level; summaries and the run log are still printed")
	rootCmd.PersistentFlags().BoolVar(&backendLocal, "local", false, "use the local Ollama backend")
	rootCmd.PersistentFlags().BoolVar(&backendGemini, "gemini", false, "use the Gemini backend")
	rootCmd.PersistentFlags().BoolVar(&backendOpenAI, "openai", false, "use the OpenAI backend")
	rootCmd.PersistentFlags().BoolVar(&backendRules, "rules-only", false, "disable the LLM classifier entirely")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "override the configured model name")
	rootCmd.PersistentFlags().BoolVar(&useKeychain, "use-keychain", false, "look up backend API keys in the OS keychain when the environment variable is unset")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(configureKeyCmd)
}
