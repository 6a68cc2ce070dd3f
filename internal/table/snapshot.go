package table

import (
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

const snapshotVersion = 1

type snapshot struct {
	Version int    `msgpack:"version"`
	Table   *Table `msgpack:"table"`
}

// WriteSnapshot encodes t as MessagePack.
func WriteSnapshot(w io.Writer, t *Table) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(snapshot{Version: snapshotVersion, Table: t}); err != nil {
		return fmt.Errorf("failed to encode table snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a table written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Table, error) {
	var s snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode table snapshot: %w", err)
	}
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	if s.Table == nil {
		return nil, fmt.Errorf("snapshot has no table")
	}
	return s.Table, nil
}

// SaveSnapshotFile writes a snapshot to path.
func SaveSnapshotFile(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	if err := WriteSnapshot(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadSnapshotFile reads a snapshot from path.
func LoadSnapshotFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}
