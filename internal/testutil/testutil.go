// Package testutil provides shared test helpers for logs, denylists and keys.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/starford/torlist/internal/denylist"
	"github.com/starford/torlist/internal/logstore"
	"github.com/starford/torlist/internal/sigverify"
)

// Logger returns a logger that only prints errors.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestLog creates a filesystem-backed log in a temp directory.
func TestLog(t *testing.T) *logstore.Log {
	t.Helper()
	dir := t.TempDir()
	objects, err := logstore.NewFSObjects(filepath.Join(dir, "objects"))
	if err != nil {
		t.Fatal(err)
	}
	l, err := logstore.Open(dir, objects, Logger())
	if err != nil {
		t.Fatal(err)
	}
	return l
}

// TestDenylist creates a temporary SQLite denylist that is closed on cleanup.
func TestDenylist(t *testing.T) *denylist.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "torlist-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := denylist.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Signer is a deterministic wallet key for building valid submissions.
type Signer struct {
	Key     *btcec.PrivateKey
	Address string
}

// NewSigner derives a key from seed (any string) and its simpleledger address.
func NewSigner(t *testing.T, seed string) Signer {
	t.Helper()
	raw := []byte(strings.Repeat(seed, 32/len(seed)+1))[:32]
	priv, _ := btcec.PrivKeyFromBytes(raw)
	addr, err := sigverify.EncodeCashAddress(sigverify.PrefixSLP, sigverify.AddressOf(priv, true))
	if err != nil {
		t.Fatal(err)
	}
	return Signer{Key: priv, Address: addr}
}

// Sign returns the base64 signature of entry.
func (s Signer) Sign(t *testing.T, entry string) string {
	t.Helper()
	sig, err := sigverify.SignMessage(s.Key, true, entry)
	if err != nil {
		t.Fatal(err)
	}
	return sig
}
