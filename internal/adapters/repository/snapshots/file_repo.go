package snapshots

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/config"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

// FileRepository stores address books as one JSON file per chain, network
// and environment
type FileRepository struct {
	dir string
	mu  sync.Mutex
}

// NewFileRepository creates a repository rooted at dir
func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{dir: dir}
}

// NewFileRepositoryFromConfig uses the configured addresses directory
func NewFileRepositoryFromConfig(cfg *config.RuntimeConfig) *FileRepository {
	dir := cfg.FacetConfig.AddressesDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(cfg.ProjectRoot, dir)
	}
	return NewFileRepository(dir)
}

// Path returns the file an address book is stored in
func (r *FileRepository) Path(key models.SnapshotKey) string {
	return filepath.Join(r.dir, fmt.Sprintf("%d-%s-%s.json", key.ChainID, key.Network, key.Env))
}

// Load reads and validates an address book
func (r *FileRepository) Load(_ context.Context, key models.SnapshotKey) (*models.RegistrySnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.Path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no address book at %s", domain.ErrNotFound, path)
		}
		return nil, err
	}

	var snapshot models.RegistrySnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("invalid address book %s: %w", path, err)
	}
	if snapshot.Key() != key {
		return nil, fmt.Errorf("%w: %s describes chain %d %s/%s", domain.ErrNetworkMismatch, path, snapshot.ChainID, snapshot.Network, snapshot.Env)
	}
	return &snapshot, nil
}

// Save writes an address book atomically
func (r *FileRepository) Save(_ context.Context, snapshot *models.RegistrySnapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", r.dir, err)
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	path := r.Path(snapshot.Key())
	// Write to temp file first
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	// Atomic rename
	return os.Rename(tmpPath, path)
}

var _ usecase.SnapshotRepository = (*FileRepository)(nil)
