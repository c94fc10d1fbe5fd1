package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"oi-monitor/internal/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// FileStore keeps the alert state as one flat JSON object on disk
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns an empty state when the file is missing or unreadable
func (s *FileStore) Load(_ context.Context) (types.AlertState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("⚠️ Could not read state file %s, starting empty: %v", s.path, err)
		}
		return types.AlertState{}, nil
	}

	st := types.AlertState{}
	if err := json.Unmarshal(data, &st); err != nil {
		log.Warnf("⚠️ State file %s is corrupt, starting empty: %v", s.path, err)
		return types.AlertState{}, nil
	}
	if st == nil {
		st = types.AlertState{}
	}
	return st, nil
}

// Save overwrites the file with the full state. The write goes through a
// temp file and a rename so a failed save leaves the old file intact.
func (s *FileStore) Save(_ context.Context, st types.AlertState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return types.E(types.KindState, "save state", errors.Wrap(err, "encode state"))
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return types.E(types.KindState, "save state", errors.Wrap(err, "create temp file"))
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return types.E(types.KindState, "save state", errors.Wrap(err, "write temp file"))
	}
	if err := tmp.Close(); err != nil {
		return types.E(types.KindState, "save state", errors.Wrap(err, "close temp file"))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return types.E(types.KindState, "save state", errors.Wrapf(err, "replace %s", s.path))
	}

	log.Debugf("State saved to %s (%d symbols)", s.path, len(st))
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
