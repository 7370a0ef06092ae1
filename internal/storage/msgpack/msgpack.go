// Package msgpack writes complete simulation runs as MessagePack documents.
package msgpack

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chrissnell/pvlifetime/internal/storage"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// Storage writes one .msgpack file per run below Dir
type Storage struct {
	Dir    string
	logger *zap.SugaredLogger
}

// New creates the output directory if needed
func New(dir string, logger *zap.SugaredLogger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create msgpack output directory: %w", err)
	}
	return &Storage{Dir: dir, logger: logger}, nil
}

// Name identifies the sink
func (s *Storage) Name() string {
	return "msgpack"
}

// Path returns the file a run is written to
func (s *Storage) Path(run *storage.Run) string {
	return filepath.Join(s.Dir, run.ID.String()+".msgpack")
}

// Store encodes the run to its file
func (s *Storage) Store(ctx context.Context, run *storage.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.Path(run)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	defer f.Close()

	if err := Encode(f, run); err != nil {
		return fmt.Errorf("could not encode run to %s: %w", path, err)
	}

	s.logger.Infow("stored run", "sink", s.Name(), "run", run.ID, "path", path)
	return f.Close()
}

// Close is a no-op
func (s *Storage) Close() error {
	return nil
}

// Encode writes run to w
func Encode(w io.Writer, run *storage.Run) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(run)
}

// Decode reads a run written by Encode
func Decode(r io.Reader) (*storage.Run, error) {
	run := &storage.Run{}
	if err := msgpack.NewDecoder(r).Decode(run); err != nil {
		return nil, err
	}
	return run, nil
}
