package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mitin111/stock-dashboard-sub000/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// Store persists one JSON array of candle records per symbol. Writes go to a
// temp file in the same directory followed by a rename, so a concurrent
// reader sees either the previous complete array or the new one, never a
// truncated document.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "store dir")
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(tsym string) string {
	name := strings.ReplaceAll(tsym, ":", "_")
	return filepath.Join(s.dir, name+".json")
}

func (s *Store) Write(tsym string, series []models.Candle) error {
	if series == nil {
		series = []models.Candle{}
	}
	data, err := sonic.Marshal(series)
	if err != nil {
		return errors.Wrap(err, "marshal")
	}

	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(s.path(tsym))+".tmp-")
	if err != nil {
		return errors.Wrap(err, "create temp")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "write temp")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "close temp")
	}
	if err := os.Rename(tmpName, s.path(tsym)); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "rename")
	}
	return nil
}

// Read loads a symbol's merged series. A missing or empty file is a normal
// transient state and returns an empty series.
func (s *Store) Read(tsym string) ([]models.Candle, error) {
	data, err := os.ReadFile(s.path(tsym))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read")
	}
	if len(data) == 0 {
		return nil, nil
	}
	var series []models.Candle
	if err := sonic.Unmarshal(data, &series); err != nil {
		return nil, errors.Wrap(ErrDataQuality, err.Error())
	}
	return series, nil
}
