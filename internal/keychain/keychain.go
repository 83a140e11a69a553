// Package keychain keeps the bot token in the operating system keychain.
package keychain

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "jobshield"

	// TokenAccount is the account the bot token is stored under.
	TokenAccount = "bot_token"
)

// ErrNotFound is returned when the keychain holds no entry for an account.
var ErrNotFound = keyring.ErrNotFound

// Get retrieves a secret from the system keychain.
func Get(account string) (string, error) {
	return keyring.Get(serviceName, account)
}

// Set stores a secret in the system keychain.
func Set(account, value string) error {
	if value == "" {
		return errors.New("refusing to store an empty secret")
	}
	return keyring.Set(serviceName, account, value)
}

// Delete removes a secret. A missing entry is not an error.
func Delete(account string) error {
	if err := keyring.Delete(serviceName, account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// Token returns the stored bot token.
func Token() (string, error) {
	return Get(TokenAccount)
}
