package agent

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"mygarage/internal/obd"
)

var spoolBucket = []byte("pending_batches")

// Spool persists reading batches that could not be published, so samples
// collected offline survive agent restarts and drain on reconnect.
type Spool struct {
	db *bolt.DB
}

// OpenSpool opens or creates the spool file.
func OpenSpool(path string) (*Spool, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("spool: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(spoolBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("spool: create bucket: %w", err)
	}

	return &Spool{db: db}, nil
}

// Append stores one batch under a monotonically increasing key.
func (s *Spool) Append(batch []obd.Reading) error {
	if len(batch) == 0 {
		return nil
	}

	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("spool: marshal batch: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(spoolBucket)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return bucket.Put(key, payload)
	})
}

// Drain publishes spooled batches oldest first, deleting each after a
// successful publish. It stops at the first publish failure and returns the
// number of batches shipped.
func (s *Spool) Drain(publish func([]obd.Reading) error) (int, error) {
	shipped := 0
	for {
		var key, payload []byte
		err := s.db.View(func(tx *bolt.Tx) error {
			cursor := tx.Bucket(spoolBucket).Cursor()
			k, v := cursor.First()
			if k != nil {
				key = append([]byte(nil), k...)
				payload = append([]byte(nil), v...)
			}
			return nil
		})
		if err != nil {
			return shipped, err
		}
		if key == nil {
			return shipped, nil
		}

		var batch []obd.Reading
		if err := json.Unmarshal(payload, &batch); err != nil {
			// Corrupt entry, drop it rather than wedge the spool.
			if err := s.delete(key); err != nil {
				return shipped, err
			}
			continue
		}

		if err := publish(batch); err != nil {
			return shipped, err
		}
		if err := s.delete(key); err != nil {
			return shipped, err
		}
		shipped++
	}
}

// Len reports how many batches are waiting.
func (s *Spool) Len() (int, error) {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(spoolBucket).Stats().KeyN
		return nil
	})
	return count, err
}

func (s *Spool) delete(key []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(spoolBucket).Delete(key)
	})
}

// Close closes the underlying database.
func (s *Spool) Close() error {
	return s.db.Close()
}
