package logstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FSObjects is an ObjectStore keeping each blob in <root>/<sha256>.json.
type FSObjects struct {
	root string
}

// NewFSObjects creates root if needed.
func NewFSObjects(root string) (*FSObjects, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("logstore: resolve objects dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("logstore: mkdir objects: %w", err)
	}
	return &FSObjects{root: abs}, nil
}

// Put writes data atomically: tmp file, fsync, rename. Writing content that
// already exists is a no-op.
func (o *FSObjects) Put(_ context.Context, data []byte) (string, error) {
	cid := contentID(data)
	dst, err := o.path(cid)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dst); err == nil {
		return cid, nil
	}

	tmp, err := os.CreateTemp(o.root, ".torlist-tmp-*")
	if err != nil {
		return "", fmt.Errorf("logstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return "", fmt.Errorf("logstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("logstore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("logstore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return "", fmt.Errorf("logstore: rename: %w", err)
	}
	success = true
	return cid, nil
}

// Get returns ErrObjectNotFound for unknown or malformed cids.
func (o *FSObjects) Get(_ context.Context, cid string) ([]byte, error) {
	p, err := o.path(cid)
	if err != nil {
		return nil, ErrObjectNotFound
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("logstore: read %s: %w", cid, err)
	}
	return data, nil
}

// path maps a cid to its file, rejecting anything that is not a sha256 hex
// digest so journal contents can never address files outside root.
func (o *FSObjects) path(cid string) (string, error) {
	if len(cid) != sha256.Size*2 {
		return "", fmt.Errorf("logstore: bad cid %q", cid)
	}
	if _, err := hex.DecodeString(cid); err != nil {
		return "", fmt.Errorf("logstore: bad cid %q", cid)
	}
	return filepath.Join(o.root, cid+".json"), nil
}

func contentID(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
