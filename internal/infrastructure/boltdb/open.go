package boltdb

import (
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Bucket names of the embedded store.
var (
	BucketBooks        = []byte("books")
	BucketBooksByISBN  = []byte("books_by_isbn")
	BucketUsers        = []byte("users")
	BucketUsersByEmail = []byte("users_by_email")
	BucketLoans        = []byte("transactions")
)

// Buckets lists every bucket Open creates.
var Buckets = [][]byte{
	BucketBooks,
	BucketBooksByISBN,
	BucketUsers,
	BucketUsersByEmail,
	BucketLoans,
}

// Open initializes the BoltDB file and ensures all buckets exist.
func Open(path string, logger *zap.Logger) (*bolt.DB, error) {
	return OpenWithTimeout(path, time.Second, logger)
}

// OpenWithTimeout is Open with an explicit wait for the file lock held by
// another process.
func OpenWithTimeout(path string, timeout time.Duration, logger *zap.Logger) (*bolt.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range Buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("opened embedded store", zap.String("path", path))
	return db, nil
}
