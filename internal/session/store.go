// Package session persists the broker session so that restarts and worker
// spawns do not force a fresh login. The file is written atomically; a
// missing file just means nobody logged in yet.
package session

import (
	"os"
	"path/filepath"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns nil without error when the file does not exist.
func (s *Store) Load() (*models.Session, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "session: read")
	}
	if len(data) == 0 {
		return nil, nil
	}
	var sess models.Session
	if err := sonic.Unmarshal(data, &sess); err != nil {
		return nil, errors.Wrap(err, "session: decode")
	}
	if !sess.Valid() {
		return nil, nil
	}
	return &sess, nil
}

func (s *Store) Save(sess *models.Session) error {
	data, err := sonic.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "session: encode")
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return errors.Wrap(err, "session: temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "session: write")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "session: close")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "session: rename")
	}
	return nil
}

func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
