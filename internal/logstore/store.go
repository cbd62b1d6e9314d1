// Package logstore is the append-only, content-addressed listing log.
//
// Records are serialized to JSON and written to an ObjectStore, which returns
// a content identifier (cid). The order of the log is kept in a journal file
// holding one cid per line. The journal is the only mutable piece and is only
// ever appended to.
package logstore

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/starford/torlist/internal/apperr"
)

// Record is one log entry: a flat string map.
type Record = map[string]string

// Store is the narrow interface the rest of the service depends on.
type Store interface {
	// Append adds r to the end of the log and returns its cid.
	Append(ctx context.Context, r Record) (string, error)
	// All returns every record in log order.
	All(ctx context.Context) ([]Record, error)
	// Query returns the records matching pred, in log order.
	Query(ctx context.Context, pred func(Record) bool) ([]Record, error)
}

// ErrObjectNotFound is returned by ObjectStore.Get for unknown cids.
var ErrObjectNotFound = errors.New("logstore: object not found")

// ObjectStore holds immutable blobs addressed by their content.
type ObjectStore interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, cid string) ([]byte, error)
}

const journalName = "journal"

// Log implements Store over an ObjectStore and a local journal file.
type Log struct {
	mu      sync.Mutex
	dir     string
	objects ObjectStore
	logger  *slog.Logger

	// cids appended by this process and not yet seen by the watcher.
	local map[string]int
}

// Open creates dir if needed and returns a Log writing its journal there.
func Open(dir string, objects ObjectStore, logger *slog.Logger) (*Log, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("logstore: resolve dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("logstore: mkdir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(abs, journalName), os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logstore: open journal: %w", err)
	}
	_ = f.Close()
	return &Log{dir: abs, objects: objects, logger: logger, local: make(map[string]int)}, nil
}

// JournalPath is the absolute path of the journal file.
func (l *Log) JournalPath() string {
	return filepath.Join(l.dir, journalName)
}

// Append implements Store.
func (l *Log) Append(ctx context.Context, r Record) (string, error) {
	const op = "logstore: append"
	if err := ctx.Err(); err != nil {
		return "", apperr.Wrap(apperr.KindUnavailable, op, err)
	}
	data, err := json.Marshal(r)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, op, err)
	}
	cid, err := l.objects.Put(ctx, data)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnavailable, op, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.JournalPath(), os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnavailable, op, err)
	}
	if _, err := f.WriteString(cid + "\n"); err != nil {
		_ = f.Close()
		return "", apperr.Wrap(apperr.KindUnavailable, op, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return "", apperr.Wrap(apperr.KindUnavailable, op, err)
	}
	if err := f.Close(); err != nil {
		return "", apperr.Wrap(apperr.KindUnavailable, op, err)
	}
	l.local[cid]++
	return cid, nil
}

// All implements Store.
func (l *Log) All(ctx context.Context) ([]Record, error) {
	return l.Query(ctx, nil)
}

// Query implements Store. A nil pred matches everything. Journal lines whose
// object is missing or unreadable are skipped with a warning.
func (l *Log) Query(ctx context.Context, pred func(Record) bool) ([]Record, error) {
	const op = "logstore: query"
	cids, err := l.cids()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, op, err)
	}
	out := make([]Record, 0, len(cids))
	for _, cid := range cids {
		if err := ctx.Err(); err != nil {
			return nil, apperr.Wrap(apperr.KindUnavailable, op, err)
		}
		r, err := l.load(ctx, cid)
		if errors.Is(err, ErrObjectNotFound) {
			l.logger.Warn("logstore: missing object", slog.String("cid", cid))
			continue
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.KindUnavailable, op, err)
		}
		if r == nil {
			continue
		}
		if pred == nil || pred(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Get loads the record stored under cid.
func (l *Log) Get(ctx context.Context, cid string) (Record, error) {
	r, err := l.load(ctx, cid)
	if errors.Is(err, ErrObjectNotFound) {
		return nil, apperr.NotFound("logstore: get")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "logstore: get", err)
	}
	return r, nil
}

func (l *Log) load(ctx context.Context, cid string) (Record, error) {
	data, err := l.objects.Get(ctx, cid)
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		l.logger.Warn("logstore: malformed object", slog.String("cid", cid), slog.String("error", err.Error()))
		return nil, nil
	}
	return r, nil
}

// cids reads the journal in order, ignoring blank lines.
func (l *Log) cids() ([]string, error) {
	f, err := os.Open(l.JournalPath())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

// takeLocal reports whether cid was appended by this process and, if so,
// forgets one occurrence of it.
func (l *Log) takeLocal(cid string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.local[cid]
	if n == 0 {
		return false
	}
	if n == 1 {
		delete(l.local, cid)
	} else {
		l.local[cid] = n - 1
	}
	return true
}
