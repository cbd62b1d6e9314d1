package logstore

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// AppendCallback is called for each cid that another writer appended to the
// journal while Watch was running.
type AppendCallback func(cid string)

// Watch follows the journal with fsnotify until ctx is cancelled. Lines
// appended by this process through l.Append are not reported; everything
// else (another replica or a sync tool sharing the directory) is.
func Watch(ctx context.Context, l *Log, logger *slog.Logger, cb AppendCallback) error {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory rather than the file so a replaced journal is
	// picked up too.
	if err := w.Add(l.dir); err != nil {
		return err
	}

	journal := l.JournalPath()
	offset := fileSize(journal)
	logger.Info("watcher: started", slog.String("journal", journal))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != journal {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if size := fileSize(journal); size < offset {
				// Truncated or replaced; start over from the new end.
				logger.Warn("watcher: journal shrank", slog.Int64("offset", offset), slog.Int64("size", size))
				offset = size
				continue
			}

			cids, next, readErr := readFrom(journal, offset)
			if readErr != nil {
				logger.Warn("watcher: read failed", slog.String("error", readErr.Error()))
				continue
			}
			offset = next
			for _, cid := range cids {
				if l.takeLocal(cid) {
					continue
				}
				logger.Debug("watcher: appended", slog.String("cid", cid))
				if cb != nil {
					cb(cid)
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// readFrom returns the complete lines after offset and the offset just past
// the last newline consumed.
func readFrom(path string, offset int64) ([]string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, offset, err
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, offset, err
	}
	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return nil, offset, nil
	}

	var out []string
	for _, line := range strings.Split(string(data[:end]), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out, offset + int64(end) + 1, nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
