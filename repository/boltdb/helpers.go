package boltdb

import (
	"strings"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/library/domain"
)

func get(tx *bolt.Tx, bucket []byte, key string, out interface{}) (bool, error) {
	raw := tx.Bucket(bucket).Get([]byte(key))
	if raw == nil {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func put(tx *bolt.Tx, bucket []byte, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return tx.Bucket(bucket).Put([]byte(key), raw)
}

func nextSeq(tx *bolt.Tx, bucket []byte) (uint64, error) {
	return tx.Bucket(bucket).NextSequence()
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// paginate returns the window of items selected by req.
func paginate[T any](items []T, req domain.PageRequest) []T {
	req = req.Normalize()
	start := req.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + req.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
