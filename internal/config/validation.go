package config

import (
	"fmt"
	"strings"
)

// StoreKind names a secret store backend
type StoreKind string

const (
	StoreKeyring StoreKind = "keyring" // OS keychain
	StoreMemory  StoreKind = "memory"  // process memory, lost on exit
)

// ValidateStore checks if the given string is a valid StoreKind
func ValidateStore(store string) (StoreKind, error) {
	switch StoreKind(store) {
	case StoreKeyring, "":
		return StoreKeyring, nil
	case StoreMemory:
		return StoreMemory, nil
	default:
		return "", fmt.Errorf("invalid store %q: must be 'keyring' or 'memory'", store)
	}
}

// OutputFormat controls how commands render results
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// ValidateOutput checks if the given string is a valid OutputFormat
func ValidateOutput(format string) (OutputFormat, error) {
	switch OutputFormat(format) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	case OutputYAML:
		return OutputYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q: must be 'text', 'json' or 'yaml'", format)
	}
}

// ValidateProvider checks an OAuth provider name before it is put in a URL
func ValidateProvider(provider string) error {
	if strings.TrimSpace(provider) == "" {
		return fmt.Errorf("provider cannot be empty")
	}
	return nil
}
