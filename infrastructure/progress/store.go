// Package progress provides the BadgerDB-backed progress cache. Records are
// written with a TTL, so the cache answers polling cheaply while the job
// ledger stays the durable source of truth.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/vectorscope/vectorscope/domain/job"
)

const keyPrefix = "progress:"

// DefaultTTL is how long a progress record lives without being rewritten.
const DefaultTTL = 24 * time.Hour

// Store implements job.ProgressStore on BadgerDB.
type Store struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger

	// Update locks, striped by job id hash. A fixed stripe set keeps the
	// memory footprint flat no matter how many jobs pass through.
	locks [lockStripes]sync.Mutex
}

const lockStripes = 64

var _ job.ProgressStore = (*Store)(nil)

// badgerLoggerAdapter adapts slog.Logger to the badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens a progress store at the given directory, creating it if needed.
func Open(dir string, ttl time.Duration, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create progress directory: %w", err)
	}
	opts := badger.DefaultOptions(dir)
	return open(opts, ttl, logger)
}

// OpenInMemory opens an ephemeral progress store. Used by tests and by
// deployments that accept losing progress on restart.
func OpenInMemory(ttl time.Duration, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	return open(opts, ttl, logger)
}

func open(opts badger.Options, ttl time.Duration, logger *slog.Logger) (*Store, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open progress store: %w", err)
	}

	return &Store{
		db:     db,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Set writes a progress record, resetting its TTL.
func (s *Store) Set(_ context.Context, record job.ProgressRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode progress record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(makeKey(record.JobID), data).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("set progress record: %w", err)
	}
	return nil
}

// Get reads a progress record. Expired or absent records return
// job.ErrProgressNotFound.
func (s *Store) Get(_ context.Context, jobID job.ID) (job.ProgressRecord, error) {
	var record job.ProgressRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeKey(jobID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return job.ProgressRecord{}, job.ErrProgressNotFound
		}
		return job.ProgressRecord{}, fmt.Errorf("get progress record: %w", err)
	}
	return record, nil
}

// Update applies a read-modify-write under a per-job lock, so stage-ordered
// updates from the pipeline are never interleaved.
func (s *Store) Update(ctx context.Context, jobID job.ID, mutate func(job.ProgressRecord) job.ProgressRecord) error {
	lock := s.lockFor(jobID)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.Get(ctx, jobID)
	if err != nil {
		return err
	}
	return s.Set(ctx, mutate(record))
}

// Delete removes a progress record.
func (s *Store) Delete(_ context.Context, jobID job.ID) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(makeKey(jobID))
	})
	if err != nil {
		return fmt.Errorf("delete progress record: %w", err)
	}
	return nil
}

func (s *Store) lockFor(jobID job.ID) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(jobID.String()))
	return &s.locks[h.Sum32()%lockStripes]
}

func makeKey(jobID job.ID) []byte {
	return []byte(keyPrefix + jobID.String())
}
