package incremental

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

// Store saves and loads snapshots by URL: file paths, file:// or any scheme afs supports.
type Store struct {
	fs afs.Service
}

// NewStore creates a Store. A nil fs uses afs.New().
func NewStore(fs afs.Service) *Store {
	if fs == nil {
		fs = afs.New()
	}
	return &Store{fs: fs}
}

// Save encodes snapshot and writes it to URL.
func (s *Store) Save(ctx context.Context, URL string, snapshot *ScopeSnapshot) error {
	data, err := Encode(snapshot)
	if err != nil {
		return err
	}
	if err = s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return errors.Wrapf(err, "failed to save scope snapshot: %v", URL)
	}
	return nil
}

// Load reads the snapshot at URL. A missing snapshot is not an error: Load returns nil.
func (s *Store) Load(ctx context.Context, URL string) (*ScopeSnapshot, error) {
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check scope snapshot: %v", URL)
	}
	if !exists {
		return nil, nil
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load scope snapshot: %v", URL)
	}
	snapshot, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid scope snapshot: %v", URL)
	}
	return snapshot, nil
}
