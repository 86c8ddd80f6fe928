package ledger

import (
	"fmt"
	"io"
	"os"

	"github.com/golang/snappy"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// RotatingTextLog is a plain structured-log sink (not the billy event
// ledger) used for the human-readable per-round log file, rotated the way
// go-ethereum's own log handler rotates with lumberjack.
type RotatingTextLog struct {
	writer *lumberjack.Logger
}

// NewRotatingTextLog opens path for appending, rotating at maxSizeMB and
// keeping maxBackups uncompressed backups.
func NewRotatingTextLog(path string, maxSizeMB, maxBackups int) *RotatingTextLog {
	return &RotatingTextLog{writer: &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   false, // backups are not compressed here; CompressRotated is a separate, explicit step
	}}
}

// Write appends line (with a trailing newline) to the active log file.
func (r *RotatingTextLog) Write(line string) error {
	_, err := r.writer.Write([]byte(line + "\n"))
	return err
}

// Close flushes and closes the underlying file.
func (r *RotatingTextLog) Close() error {
	return r.writer.Close()
}

// CompressRotated snappy-compresses a rotated backup file in place,
// replacing it with a ".snappy" sibling and removing the original.
func CompressRotated(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("ledger: opening rotated log: %w", err)
	}
	defer in.Close()

	out, err := os.Create(path + ".snappy")
	if err != nil {
		return fmt.Errorf("ledger: creating compressed log: %w", err)
	}
	defer out.Close()

	w := snappy.NewBufferedWriter(out)
	if _, err := io.Copy(w, in); err != nil {
		w.Close()
		return fmt.Errorf("ledger: compressing rotated log: %w", err)
	}
	if err := w.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}
