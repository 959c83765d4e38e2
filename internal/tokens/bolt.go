package tokens

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/upl/internal/models"
	bolt "go.etcd.io/bbolt"
)

const (
	boltDirPerm     = fs.FileMode(0o700)
	boltFilePerm    = fs.FileMode(0o600)
	boltOpenTimeout = 5 * time.Second
)

var credentialBucket = []byte("credential")

// BoltStore persists the credential in a single bbolt bucket.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if needed) a bbolt database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), boltDirPerm); err != nil {
		return nil, fmt.Errorf("creating token directory: %w", err)
	}

	db, err := bolt.Open(path, boltFilePerm, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening token db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(credentialBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing token db: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Set writes all three keys in one bbolt transaction.
func (s *BoltStore) Set(cred models.Credential) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(credentialBucket)
		vals := values(cred)
		for _, field := range Fields {
			v := vals[field]
			if v == nil {
				if err := b.Delete([]byte(field)); err != nil {
					return err
				}
				continue
			}
			if err := b.Put([]byte(field), []byte(*v)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Get(field Field) (string, bool, error) {
	if err := validField(field); err != nil {
		return "", false, err
	}

	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(credentialBucket).Get([]byte(field))
		if v != nil {
			value = string(v)
			found = true
		}
		return nil
	})
	return value, found, err
}

func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(credentialBucket)
		for _, field := range Fields {
			if err := b.Delete([]byte(field)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
