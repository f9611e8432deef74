package ldbstore

import (
	"bytes"
	"encoding/gob"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/nicehand/go-cfr"
)

var nodePrefix = []byte("node/")

type record struct {
	RegretSum   []float64
	StrategySum []float64
}

// Store is a node table persisted in a LevelDB database.
type Store struct {
	path string
	db   *leveldb.DB

	rOpts *opt.ReadOptions
	wOpts *opt.WriteOptions
}

// Open opens (or creates) a Store backed by a LevelDB database at the given
// directory path.
func Open(path string, opts *opt.Options) (*Store, error) {
	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb %v", path)
	}

	return &Store{
		path:  path,
		db:    db,
		wOpts: &opt.WriteOptions{Sync: true},
	}, nil
}

// Close implements io.Closer.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the contents of the store with a snapshot of table.
// The update is applied as a single atomic batch.
func (s *Store) Save(table *cfr.Table) error {
	batch := new(leveldb.Batch)
	iter := s.db.NewIterator(util.BytesPrefix(nodePrefix), s.rOpts)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}

	iter.Release()
	if err := iter.Error(); err != nil {
		return errors.Wrap(err, "list existing nodes")
	}

	var err error
	n := 0
	table.Range(func(key string, node *cfr.Node) bool {
		var buf []byte
		buf, err = encodeRecord(record{
			RegretSum:   node.RegretSum(),
			StrategySum: node.StrategySum(),
		})
		if err != nil {
			err = errors.Wrapf(err, "encode node %q", key)
			return false
		}

		batch.Put(nodeKey(key), buf)
		n++
		return true
	})
	if err != nil {
		return err
	}

	if err := s.db.Write(batch, s.wOpts); err != nil {
		return errors.Wrap(err, "write batch")
	}

	glog.V(1).Infof("Saved %d nodes to %v", n, s.path)
	return nil
}

// Load reads the entire store into a new Table.
func (s *Store) Load() (*cfr.Table, error) {
	table := cfr.NewTable()
	iter := s.db.NewIterator(util.BytesPrefix(nodePrefix), s.rOpts)
	defer iter.Release()
	for iter.Next() {
		key := string(iter.Key()[len(nodePrefix):])
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return nil, errors.Wrapf(cfr.ErrCorruptTable, "decode node %q: %v", key, err)
		}

		if err := table.Restore(key, rec.RegretSum, rec.StrategySum); err != nil {
			return nil, err
		}
	}

	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "iterate nodes")
	}

	glog.V(1).Infof("Loaded %d nodes from %v", table.Len(), s.path)
	return table, nil
}

// AverageStrategy reads the average strategy of a single information set.
// It returns false if the information set is not in the store.
func (s *Store) AverageStrategy(key string) ([]float64, bool, error) {
	buf, err := s.db.Get(nodeKey(key), s.rOpts)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}

	rec, err := decodeRecord(buf)
	if err != nil {
		return nil, false, errors.Wrapf(cfr.ErrCorruptTable, "decode node %q: %v", key, err)
	}

	node, err := cfr.RestoreNode(key, rec.RegretSum, rec.StrategySum)
	if err != nil {
		return nil, false, err
	}

	return node.AverageStrategy(), true, nil
}

func nodeKey(key string) []byte {
	result := make([]byte, 0, len(nodePrefix)+len(key))
	result = append(result, nodePrefix...)
	return append(result, key...)
}

func encodeRecord(rec record) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&rec); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeRecord(buf []byte) (record, error) {
	var rec record
	err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&rec)
	return rec, err
}
