package config

import (
	"fmt"
	"os"
	"syscall"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"

	"github.com/brunoalves/organizador/internal/errkind"
)

// KeyringService is the service name under which organizador stores
// backend API keys in the OS keychain.
const KeyringService = "organizador"

// APIKey resolves the credential for backend, trying in order:
// environment variable, OS keychain (when useKeychain is set), and
// finally an interactive masked prompt if stdin is a terminal. Returns a
// BackendUnavailable-kind error if no credential can be found
// non-interactively.
func APIKey(backend Backend, envValue string, useKeychain bool) (string, error) {
	if envValue != "" {
		return envValue, nil
	}

	item := keyringItem(backend)
	if useKeychain && item != "" {
		if val, err := keyring.Get(KeyringService, item); err == nil && val != "" {
			return val, nil
		}
	}

	if term.IsTerminal(int(syscall.Stdin)) {
		return promptForKey(backend)
	}

	return "", errkind.Newf(errkind.BackendUnavailable,
		"no API key for backend %q; set the environment variable or run with --use-keychain after storing one", backend)
}

// SaveAPIKey stores key in the OS keychain for backend.
func SaveAPIKey(backend Backend, key string) error {
	item := keyringItem(backend)
	if item == "" {
		return errkind.Newf(errkind.Config, "backend %q does not use an API key", backend)
	}
	if key == "" {
		return errkind.New(errkind.Config, "key cannot be empty")
	}
	if err := keyring.Set(KeyringService, item, key); err != nil {
		return errkind.Wrapf(err, errkind.Config, "saving key to OS keychain")
	}
	return nil
}

func keyringItem(backend Backend) string {
	switch backend {
	case BackendOpenAI:
		return "openai-api-key"
	case BackendGemini:
		return "gemini-api-key"
	default:
		return ""
	}
}

func promptForKey(backend Backend) (string, error) {
	fmt.Fprintf(os.Stderr, "Enter API key for %s backend: ", backend)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errkind.Wrapf(err, errkind.Config, "reading API key from terminal")
	}
	if len(b) == 0 {
		return "", errkind.New(errkind.BackendUnavailable, "no API key entered")
	}
	return string(b), nil
}
