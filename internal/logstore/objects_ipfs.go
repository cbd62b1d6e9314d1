package logstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
)

// IPFSObjects is an ObjectStore backed by an IPFS daemon's HTTP API.
// Objects are pinned on add so the local node keeps them.
type IPFSObjects struct {
	sh *shell.Shell
}

// NewIPFSObjects connects to the daemon at host ("localhost:5001" or a URL).
func NewIPFSObjects(host string, timeout time.Duration) *IPFSObjects {
	sh := shell.NewShell(host)
	if timeout > 0 {
		sh.SetTimeout(timeout)
	}
	return &IPFSObjects{sh: sh}
}

// Put adds data and returns its cid.
func (o *IPFSObjects) Put(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cid, err := o.sh.Add(bytes.NewReader(data), shell.Pin(true))
	if err != nil {
		return "", fmt.Errorf("logstore: ipfs add: %w", err)
	}
	return cid, nil
}

// Get fetches the object behind cid.
func (o *IPFSObjects) Get(ctx context.Context, cid string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := o.sh.Cat(cid)
	if err != nil {
		if isIPFSNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("logstore: ipfs cat %s: %w", cid, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("logstore: ipfs read %s: %w", cid, err)
	}
	return data, nil
}

// Alive reports whether the daemon answers.
func (o *IPFSObjects) Alive() bool {
	return o.sh.IsUp()
}

// the daemon reports malformed or unresolvable paths in the error message.
func isIPFSNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid path") ||
		strings.Contains(msg, "invalid cid") ||
		strings.Contains(msg, "not found")
}
