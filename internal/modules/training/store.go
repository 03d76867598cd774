package training

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aristath/pricecast/internal/artifacts"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrModelNotFound is returned when no model has been persisted for an asset
	ErrModelNotFound = errors.New("model not found")
	// ErrInvalidAssetID is returned for asset ids that cannot name a model file
	ErrInvalidAssetID = errors.New("invalid asset id")
)

const modelSuffix = "_model.msgpack"

// ModelStore persists one model per asset
type ModelStore interface {
	Save(m *LinearModel) error
	Load(assetID string) (*LinearModel, error)
}

// FileModelStore keeps each model in <dir>/<asset>_model.msgpack
type FileModelStore struct {
	dir string
}

// NewFileModelStore creates a model store rooted at dir
func NewFileModelStore(dir string) *FileModelStore {
	return &FileModelStore{dir: dir}
}

var _ ModelStore = (*FileModelStore)(nil)

// Dir returns the model directory
func (s *FileModelStore) Dir() string {
	return s.dir
}

func (s *FileModelStore) path(assetID string) (string, error) {
	if assetID == "" || assetID == "." || assetID == ".." ||
		strings.ContainsAny(assetID, `/\`) || strings.Contains(assetID, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidAssetID, assetID)
	}
	return filepath.Join(s.dir, assetID+modelSuffix), nil
}

// Save replaces the persisted model for m.AssetID
func (s *FileModelStore) Save(m *LinearModel) error {
	path, err := s.path(m.AssetID)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode model for %s: %w", m.AssetID, err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+m.AssetID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp model file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write model for %s: %w", m.AssetID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close model file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace model for %s: %w", m.AssetID, err)
	}
	return nil
}

// Load reads the persisted model for assetID
func (s *FileModelStore) Load(assetID string) (*LinearModel, error) {
	path, err := s.path(assetID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, assetID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read model for %s: %w", assetID, err)
	}

	var m LinearModel
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode model for %s: %w", assetID, err)
	}
	return &m, nil
}

// ModifiedAt returns when the model for assetID was last written
func (s *FileModelStore) ModifiedAt(assetID string) (time.Time, error) {
	path, err := s.path(assetID)
	if err != nil {
		return time.Time{}, err
	}
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrModelNotFound, assetID)
	}
	if err != nil {
		return time.Time{}, err
	}
	return st.ModTime().UTC(), nil
}

// List returns the asset ids that have a persisted model, sorted
func (s *FileModelStore) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+modelSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	assets := make([]string, 0, len(matches))
	for _, m := range matches {
		assets = append(assets, strings.TrimSuffix(filepath.Base(m), modelSuffix))
	}
	sort.Strings(assets)
	return assets, nil
}

// Info reports artifact metadata for diagnostics
func (s *FileModelStore) Info() (artifacts.Info, error) {
	return artifacts.StatDir("models", s.dir, "*"+modelSuffix)
}
