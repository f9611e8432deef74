package cfr

import (
	"bytes"
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	gzip "github.com/klauspost/pgzip"
	"github.com/pkg/errors"
)

const tableFormatVersion = 1

type nodeRecord struct {
	RegretSum   []float64
	StrategySum []float64
}

// MarshalTo writes the table to w in a gob-encoded format readable by
// LoadTable. Nodes updated concurrently may be captured mid-training but
// each node is captured consistently.
func (t *Table) MarshalTo(w io.Writer) error {
	return t.encode(gob.NewEncoder(w))
}

func (t *Table) encode(enc *gob.Encoder) error {
	var keys []string
	var records []nodeRecord
	t.Range(func(key string, node *Node) bool {
		node.mu.Lock()
		rec := nodeRecord{
			RegretSum:   append([]float64(nil), node.regretSum...),
			StrategySum: append([]float64(nil), node.strategySum...),
		}
		node.mu.Unlock()

		keys = append(keys, key)
		records = append(records, rec)
		return true
	})

	if err := enc.Encode(tableFormatVersion); err != nil {
		return err
	}

	if err := enc.Encode(len(keys)); err != nil {
		return err
	}

	for i, key := range keys {
		if err := enc.Encode(key); err != nil {
			return err
		}

		if err := enc.Encode(&records[i]); err != nil {
			return err
		}
	}

	return nil
}

// LoadTable reads a table written by MarshalTo. Malformed or truncated input
// returns an error wrapping ErrCorruptTable.
func LoadTable(r io.Reader) (*Table, error) {
	return decodeTable(gob.NewDecoder(r))
}

func decodeTable(dec *gob.Decoder) (*Table, error) {
	var version int
	if err := dec.Decode(&version); err != nil {
		return nil, errors.Wrapf(ErrCorruptTable, "read version: %v", err)
	}

	if version != tableFormatVersion {
		return nil, errors.Wrapf(ErrCorruptTable, "unsupported format version %d", version)
	}

	var nNodes int
	if err := dec.Decode(&nNodes); err != nil {
		return nil, errors.Wrapf(ErrCorruptTable, "read node count: %v", err)
	}

	if nNodes < 0 {
		return nil, errors.Wrapf(ErrCorruptTable, "negative node count %d", nNodes)
	}

	table := NewTable()
	for i := 0; i < nNodes; i++ {
		var key string
		if err := dec.Decode(&key); err != nil {
			return nil, errors.Wrapf(ErrCorruptTable, "read key of node %d/%d: %v", i, nNodes, err)
		}

		var rec nodeRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, errors.Wrapf(ErrCorruptTable, "read node %q: %v", key, err)
		}

		if _, ok := table.Get(key); ok {
			return nil, errors.Wrapf(ErrCorruptTable, "duplicate node %q", key)
		}

		if err := table.Restore(key, rec.RegretSum, rec.StrategySum); err != nil {
			return nil, err
		}
	}

	return table, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (t *Table) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.MarshalTo(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler, replacing the
// contents of t. It must not be called while t is being trained.
func (t *Table) UnmarshalBinary(buf []byte) error {
	loaded, err := LoadTable(bytes.NewReader(buf))
	if err != nil {
		return err
	}

	for i := range t.shards {
		shard := &t.shards[i]
		shard.mu.Lock()
		shard.nodes = loaded.shards[i].nodes
		shard.mu.Unlock()
	}

	return nil
}

// SaveFile writes a gzip-compressed copy of the table to path. The file is
// replaced atomically.
func (t *Table) SaveFile(path string) error {
	return writeFileAtomic(path, t.MarshalTo)
}

// LoadTableFile reads a table written by SaveFile.
func LoadTableFile(path string) (*Table, error) {
	var table *Table
	err := readFile(path, func(r io.Reader) error {
		var err error
		table, err = LoadTable(r)
		return err
	})

	return table, err
}

// writeFileAtomic gzips the output of write into a temporary file in the
// same directory as path and renames it into place.
func writeFileAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}

	w := gzip.NewWriter(tmp)
	if err := write(w); err != nil {
		w.Close()
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := w.Close(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "flush gzip stream")
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close temp file")
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "rename to %v", path)
	}

	return nil
}

func readFile(path string, read func(r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(ErrCorruptTable, "open gzip stream: %v", err)
	}
	defer r.Close()

	return read(r)
}
