package managers

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/pvlifetime/internal/storage"
	"github.com/chrissnell/pvlifetime/internal/timeseries"
	"github.com/chrissnell/pvlifetime/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	name string
	err  error

	mu     sync.Mutex
	stored []*storage.Run
	closed bool
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Store(ctx context.Context, run *storage.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, run)
	return f.err
}

func (f *fakeSink) Close() error {
	f.closed = true
	return nil
}

func testRun() *storage.Run {
	return storage.NewRun("managed", "parameters", 2025, timeseries.Series{
		{Time: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), Value: 1},
	})
}

func TestStoreRunFansOut(t *testing.T) {
	s, err := NewStorageManager(context.Background(), config.StorageData{}, nil)
	require.NoError(t, err)
	assert.Empty(t, s.Sinks)

	a := &fakeSink{name: "a"}
	b := &fakeSink{name: "b"}
	s.Add(a)
	s.Add(b)

	run := testRun()
	require.NoError(t, s.StoreRun(context.Background(), run))
	assert.Equal(t, []*storage.Run{run}, a.stored)
	assert.Equal(t, []*storage.Run{run}, b.stored)
	assert.True(t, s.Health.IsHealthy("a", time.Minute))
	assert.True(t, s.Health.IsHealthy("b", time.Minute))

	require.NoError(t, s.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestStoreRunReportsEveryFailure(t *testing.T) {
	s, err := NewStorageManager(context.Background(), config.StorageData{}, nil)
	require.NoError(t, err)

	boom := errors.New("boom")
	ok := &fakeSink{name: "ok"}
	bad := &fakeSink{name: "bad", err: boom}
	s.Add(bad)
	s.Add(ok)

	err = s.StoreRun(context.Background(), testRun())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "bad")

	assert.Len(t, ok.stored, 1, "a failing sink does not stop the others")
	assert.False(t, s.Health.IsHealthy("bad", time.Minute))
	assert.True(t, s.Health.IsHealthy("ok", time.Minute))
}

func TestNewStorageManagerFromConfig(t *testing.T) {
	dir := t.TempDir()
	c := config.StorageData{
		SQLite:  &config.SQLiteData{Path: filepath.Join(dir, "runs.db")},
		Parquet: &config.FileData{Path: filepath.Join(dir, "parquet")},
		Msgpack: &config.FileData{Path: filepath.Join(dir, "msgpack")},
	}

	s, err := NewStorageManager(context.Background(), c, nil)
	require.NoError(t, err)
	defer s.Close()

	var names []string
	for _, sink := range s.Sinks {
		names = append(names, sink.Name())
	}
	assert.Equal(t, []string{"sqlite", "parquet", "msgpack"}, names)

	require.NoError(t, s.StoreRun(context.Background(), testRun()))
	assert.Len(t, s.Health.GetAllHealth(), 3)
}

func TestAddEngineUnknown(t *testing.T) {
	s, err := NewStorageManager(context.Background(), config.StorageData{}, nil)
	require.NoError(t, err)
	assert.Error(t, s.AddEngine(context.Background(), "influxdb", config.StorageData{}))
}
