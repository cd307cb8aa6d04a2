package storage

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
)

// LevelStore is a LevelDB-backed chunk store. Region addressing still shapes
// the keys, which keeps iteration ordered by region.
type LevelStore struct {
	db *leveldb.DB
}

func OpenLevelStore(path string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, &StorageError{Op: "open", Key: path, Err: err}
	}
	return &LevelStore{db: db}, nil
}

func (s *LevelStore) Read(key string) ([]byte, error) {
	b, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "read", Key: key, Err: err}
	}
	return b, nil
}

func (s *LevelStore) Write(key string, data []byte) error {
	if err := s.db.Put([]byte(key), data, nil); err != nil {
		return &StorageError{Op: "write", Key: key, Err: err}
	}
	return nil
}

func (s *LevelStore) Delete(key string) error {
	if err := s.db.Delete([]byte(key), nil); err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (s *LevelStore) List() ([]string, error) {
	var keys []string
	it := s.db.NewIterator(nil, nil)
	defer it.Release()
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	if err := it.Error(); err != nil {
		return nil, &StorageError{Op: "list", Key: "", Err: err}
	}
	return keys, nil
}

func (s *LevelStore) Close() error { return s.db.Close() }
