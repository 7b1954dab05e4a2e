// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

const checkpointKeyPrefix = "checkpoint/"

// Checkpoint records how far a seeding run got for one source.
type Checkpoint struct {
	// Source is the input the checkpoint belongs to, typically a file name.
	Source string

	// Records is the number of input records fully processed.
	Records uint64

	// UpdatedAt is when the checkpoint was last saved.
	UpdatedAt time.Time
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *Checkpoint) []byte {
	size := ord.String.Size(checkpoint.Source) +
		varint.Uint64.Size(checkpoint.Records) +
		varint.Int64.Size(checkpoint.UpdatedAt.UnixMicro())

	buf := make([]byte, size)
	n := ord.String.Marshal(checkpoint.Source, buf)
	n += varint.Uint64.Marshal(checkpoint.Records, buf[n:])
	varint.Int64.Marshal(checkpoint.UpdatedAt.UnixMicro(), buf[n:])
	return buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*Checkpoint, error) {
	source, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	records, m, err := varint.Uint64.Unmarshal(data[n:])
	if err != nil {
		return nil, err
	}
	n += m
	updatedAt, _, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, err
	}

	return &Checkpoint{
		Source:    source,
		Records:   records,
		UpdatedAt: time.UnixMicro(updatedAt).UTC(),
	}, nil
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
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
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// CheckpointStore persists seeding checkpoints in a local BadgerDB.
type CheckpointStore struct {
	db *badger.DB
}

// OpenCheckpointStore opens a checkpoint store at the specified path.
// Creates the directory if it doesn't exist. If inMemory is true the path
// is ignored and nothing is persisted.
func OpenCheckpointStore(filePath string, inMemory bool) (*CheckpointStore, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			if err := os.MkdirAll(filePath, 0755); err != nil {
				return nil, err
			}
			info, err = os.Stat(filePath)
			if err != nil {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &CheckpointStore{db: db}, nil
}

// Save persists a checkpoint, stamping UpdatedAt.
func (s *CheckpointStore) Save(ctx context.Context, checkpoint *Checkpoint) error {
	if checkpoint.Source == "" {
		return ErrEmptySource
	}

	checkpoint.UpdatedAt = time.Now().UTC()
	return s.db.Update(func(tx *badger.Txn) error {
		key := []byte(checkpointKeyPrefix + checkpoint.Source)
		return tx.Set(key, MarshalCheckpoint(checkpoint))
	})
}

// Load retrieves the checkpoint for a source.
// Returns nil, nil if no checkpoint exists.
func (s *CheckpointStore) Load(ctx context.Context, source string) (*Checkpoint, error) {
	var checkpoint *Checkpoint
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(checkpointKeyPrefix + source))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			checkpoint, unmarshalErr = UnmarshalCheckpoint(val)
			return unmarshalErr
		})
	})

	return checkpoint, err
}

// Delete removes the checkpoint for a source, if any.
func (s *CheckpointStore) Delete(ctx context.Context, source string) error {
	return s.db.Update(func(tx *badger.Txn) error {
		err := tx.Delete([]byte(checkpointKeyPrefix + source))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// Close closes the underlying database.
func (s *CheckpointStore) Close() error {
	return s.db.Close()
}
