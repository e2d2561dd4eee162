// Package jsonfile persists assembled matchup sets as JSON documents, one
// file per run.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ricampos/WW3-tools/internal/domain"
)

// Writer stores matchup sets under a directory. It implements pipeline.Sink.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a file sink rooted at dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Store writes the set to <dir>/WW3.Matchups_<tag>_<start>to<end>.json.
// The file is written to a temporary name first and renamed into place, so a
// crashed run never leaves a half-written document behind.
func (w *Writer) Store(set *domain.MatchupSet) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(w.dir, FileName(set))
	tmp, err := os.CreateTemp(w.dir, ".matchups-*.json")
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(set); err != nil {
		tmp.Close()
		return fmt.Errorf("encode matchup set: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move output file into place: %w", err)
	}

	w.logger.Info("matchup set written", "path", path, "records", len(set.Records))
	return nil
}

func (w *Writer) Close() error { return nil }

// FileName derives the output file name from the set's tag and time bounds,
// with timestamps formatted as yyyymmddHH in UTC.
func FileName(set *domain.MatchupSet) string {
	sum := set.Summary()
	return fmt.Sprintf("WW3.Matchups%s_%sto%s.json",
		tagPart(set.Tag), stamp(sum.Start), stamp(sum.End))
}

func tagPart(tag string) string {
	if tag == "" {
		return ""
	}
	return "_" + tag
}

func stamp(epoch float64) string {
	return time.Unix(int64(epoch), 0).UTC().Format("2006010215")
}
