package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var historyBucket = []byte("history")

// BoltStore is an append-only history log backed by a bbolt file. Entries
// are keyed by a monotonically increasing sequence number.
type BoltStore struct {
	db *bolt.DB
}

func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(historyBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize history store %s: %w", path, err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Record(entry Entry) (Entry, error) {
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now().UTC()
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(historyBucket)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return bucket.Put(key, data)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("record history entry: %w", err)
	}
	return entry, nil
}

// Recent returns up to n entries, newest first.
func (s *BoltStore) Recent(n int) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(historyBucket).Cursor()
		for k, v := cursor.Last(); k != nil && len(entries) < n; k, v = cursor.Prev() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read history entries: %w", err)
	}
	return entries, nil
}
