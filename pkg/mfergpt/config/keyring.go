// Package config – keyring.go resolves secrets from the operating system's
// native keyring (Linux: Secret Service, macOS: Keychain, Windows:
// Credential Manager).
//
// Priority for each secret:
//  1. OS keyring (encrypted by the OS, requires user session)
//  2. Environment variable / .env file (loaded by godotenv)
//  3. config.yaml value (least secure — plaintext on disk)
package config

import (
	"log/slog"

	"github.com/zalando/go-keyring"
)

// keyringService is the service name used in the OS keyring.
const keyringService = "mfergpt"

// Keyring key names for the bot's secrets.
const (
	keyNeynarAPIKey = "neynar_api_key"
	keySignerUUID   = "signer_uuid"
	keyOpenAIAPIKey = "openai_api_key"
	keyImageHostKey = "freeimage_api_key"
)

// StoreKeyring saves a secret to the OS keyring.
func StoreKeyring(key, value string) error {
	return keyring.Set(keyringService, key, value)
}

// GetKeyring retrieves a secret from the OS keyring.
// Returns empty string if not found.
func GetKeyring(key string) string {
	val, err := keyring.Get(keyringService, key)
	if err != nil {
		return ""
	}
	return val
}

// DeleteKeyring removes a secret from the OS keyring.
func DeleteKeyring(key string) error {
	return keyring.Delete(keyringService, key)
}

// ResolveSecrets fills any secret still empty after env/config loading from
// the OS keyring, and reports which secrets remain unset.
func (c *Config) ResolveSecrets(logger *slog.Logger) {
	resolve := func(current *string, key, name string) {
		if *current != "" {
			return
		}
		if val := GetKeyring(key); val != "" {
			*current = val
			logger.Debug("secret resolved from OS keyring", "secret", name)
			return
		}
		logger.Warn("secret not configured", "secret", name)
	}

	resolve(&c.Neynar.APIKey, keyNeynarAPIKey, "neynar api key")
	resolve(&c.Neynar.SignerUUID, keySignerUUID, "signer uuid")
	resolve(&c.OpenAI.APIKey, keyOpenAIAPIKey, "openai api key")
	resolve(&c.ImageHost.APIKey, keyImageHostKey, "freeimage api key")
}
