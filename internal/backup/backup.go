// Package backup moves store snapshots to and from durable locations: a
// local file or an S3 object.
//
// A location is either a filesystem path or an s3://bucket/key URL.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/roach88/houseledger/internal/config"
	"github.com/roach88/houseledger/internal/housestore"
)

// Store reads and writes snapshot documents by key.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Encode renders snap as indented JSON with a trailing newline.
func Encode(snap housestore.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses and validates a snapshot document.
func Decode(data []byte) (housestore.Snapshot, error) {
	var snap housestore.Snapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return housestore.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return housestore.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Save encodes snap and writes it under key.
func Save(ctx context.Context, st Store, key string, snap housestore.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	return st.Put(ctx, key, data)
}

// Load reads and decodes the snapshot under key.
func Load(ctx context.Context, st Store, key string) (housestore.Snapshot, error) {
	data, err := st.Get(ctx, key)
	if err != nil {
		return housestore.Snapshot{}, err
	}
	return Decode(data)
}

// Resolve maps a location to a Store and key. s3://bucket/key uses S3 with
// cfg supplying region, endpoint and credentials; anything else is a file
// path.
func Resolve(ctx context.Context, location string, cfg config.S3Config) (Store, string, error) {
	if !strings.HasPrefix(location, "s3://") {
		if location == "" {
			return nil, "", fmt.Errorf("empty backup location")
		}
		return FileStore{}, location, nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", location, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return nil, "", fmt.Errorf("s3 location %q must be s3://bucket/key", location)
	}
	cfg.Bucket = u.Host
	st, err := NewS3Store(ctx, cfg)
	if err != nil {
		return nil, "", err
	}
	return st, key, nil
}
