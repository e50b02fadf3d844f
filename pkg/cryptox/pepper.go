package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"
)

// Argon2id parameters, following the OWASP low-memory recommendation.
const (
	memory      = 19 * 1024 // KiB
	iterations  = 2
	parallelism = 1
	keyLength   = 32
	saltLength  = 16
)

// The pepper is mixed into every password hash, so a leaked database alone
// is not enough to mount an offline attack. It lives in a file outside the
// database and is created on first use.
var (
	pepper     string
	pepperFile string
)

// SetPepperPath points the package at the pepper file. Must be called before
// the first hash or verify.
func SetPepperPath(file string) {
	pepperFile = file
}

// GetPepper returns the current pepper, loading or creating it on first
// call. A pepper that cannot be read or written is fatal: hashing without
// it would silently produce unverifiable hashes.
func GetPepper() string {
	if pepper != "" {
		return pepper
	}

	var err error
	pepper, err = loadOrGeneratePepper()
	if err != nil {
		slog.Error("failed to load or generate pepper", slog.Any("err", err))
		os.Exit(1)
	}

	return pepper
}

func loadOrGeneratePepper() (string, error) {
	pepperFile = filepath.Clean(pepperFile)
	if err := os.MkdirAll(filepath.Dir(pepperFile), 0750); err != nil {
		return "", err
	}

	if _, err := os.Stat(pepperFile); os.IsNotExist(err) {
		raw := make([]byte, keyLength)
		if _, err := rand.Read(raw); err != nil {
			return "", err
		}
		fresh := base64.RawURLEncoding.EncodeToString(raw)

		if err := os.WriteFile(pepperFile, []byte(fresh), 0600); err != nil {
			return "", err
		}
		return fresh, nil
	}

	raw, err := os.ReadFile(pepperFile)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ReloadPepper rereads the pepper file, e.g. after the file was restored
// from backup.
func ReloadPepper() error {
	var err error
	pepper, err = loadOrGeneratePepper()
	if err != nil {
		slog.Error("failed to load or generate pepper", slog.Any("err", err))
		return err
	}
	return nil
}
