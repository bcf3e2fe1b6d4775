// Package keyring keeps backend secrets in the OS keyring so they never
// appear in the config file.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/shopline/internal/constants"
)

var (
	// ErrNotFound is returned when the account has no stored secret
	ErrNotFound = errors.New("secret not found in keyring")
	// ErrUnavailable is returned when the OS keyring cannot be reached
	ErrUnavailable = errors.New("OS keyring is not available")
)

// Lookup returns the secret stored for account
func Lookup(account string) (string, error) {
	secret, err := keyring.Get(constants.AppName, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return secret, nil
}

// Store saves secret for account, replacing any previous value
func Store(account, secret string) error {
	if secret == "" {
		return errors.New("secret cannot be empty")
	}
	if err := keyring.Set(constants.AppName, account, secret); err != nil {
		return fmt.Errorf("failed to store secret in keyring: %w", err)
	}
	return nil
}

// Remove deletes the secret of account
func Remove(account string) error {
	if err := keyring.Delete(constants.AppName, account); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete secret from keyring: %w", err)
	}
	return nil
}

// ConnectionString returns the stored PostgreSQL connection string
func ConnectionString() (string, error) {
	return Lookup(constants.DefaultKeyringUser)
}

// SetConnectionString stores the PostgreSQL connection string
func SetConnectionString(connStr string) error {
	return Store(constants.DefaultKeyringUser, connStr)
}

// Available is a best-effort check that the keyring answers at all
func Available() bool {
	_, err := keyring.Get(constants.AppName, "availability-probe")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
