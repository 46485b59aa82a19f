package migrations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/config"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
	"github.com/trebuchet-org/facet-cli/internal/domain/protocolinit"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
	"gopkg.in/yaml.v3"
)

var planExtensions = []string{".yaml", ".yml"}

// Loader reads migration plans from <migrationsDir>/<version>.yaml and
// upgrade configs from arbitrary paths under the project root.
type Loader struct {
	root string
	dir  string
	log  *slog.Logger
}

// NewLoader creates a plan loader for the project.
func NewLoader(cfg *config.RuntimeConfig, log *slog.Logger) *Loader {
	dir := cfg.FacetConfig.MigrationsDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(cfg.ProjectRoot, dir)
	}
	return &Loader{root: cfg.ProjectRoot, dir: dir, log: log.With("component", "migrations")}
}

// LoadMigration reads, validates and decodes the plan for version.
func (l *Loader) LoadMigration(_ context.Context, version string) (*models.MigrationPlan, protocolinit.Payload, error) {
	path, err := l.planPath(version)
	if err != nil {
		return nil, nil, err
	}

	var plan models.MigrationPlan
	if err := decodeFile(path, &plan); err != nil {
		return nil, nil, err
	}
	plan.Path = path
	if err := validate(path, &plan); err != nil {
		return nil, nil, err
	}
	if plan.Version != version {
		return nil, nil, fmt.Errorf("%w: %s declares version %q, expected %q", domain.ErrInvalidPlan, path, plan.Version, version)
	}
	if err := checkFacets(path, plan.Facets); err != nil {
		return nil, nil, err
	}
	if plan.Preimage != nil {
		upgraded := lo.Map(plan.Facets.All(), func(f models.FacetSpec, _ int) string { return f.Name })
		if missing, _ := lo.Difference(plan.Preimage.Facets, upgraded); len(missing) > 0 {
			return nil, nil, fmt.Errorf("%w: %s: preimage facets %v are not upgraded by the plan", domain.ErrInvalidPlan, path, missing)
		}
	}

	var payload protocolinit.Payload
	if plan.HasInitializationData() {
		if payload, err = decodePayload(path, plan.Version, &plan.InitializationData); err != nil {
			return nil, nil, err
		}
	}
	l.log.Debug("loaded migration plan", "version", version, "path", path, "payload", payload != nil)
	return &plan, payload, nil
}

// LoadUpgrade reads an upgrade config. Relative paths resolve against the
// project root.
func (l *Loader) LoadUpgrade(_ context.Context, path string) (*models.UpgradeConfig, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.root, path)
	}
	var cfg models.UpgradeConfig
	if err := decodeFile(path, &cfg); err != nil {
		return nil, err
	}
	cfg.Path = path
	if err := validate(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Facets.IsEmpty() {
		return nil, fmt.Errorf("%w: %s: no facets to change", domain.ErrInvalidPlan, path)
	}
	if err := checkFacets(path, cfg.Facets); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ListMigrations returns the versions with a plan file, oldest first.
func (l *Loader) ListMigrations(context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	var versions []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || !lo.Contains(planExtensions, ext) {
			continue
		}
		versions = append(versions, strings.TrimSuffix(e.Name(), ext))
	}
	versions = lo.Uniq(versions)
	sort.Slice(versions, func(i, j int) bool { return compareVersions(versions[i], versions[j]) < 0 })
	return versions, nil
}

func (l *Loader) planPath(version string) (string, error) {
	if version == "" || strings.ContainsAny(version, `/\`) {
		return "", fmt.Errorf("%w: invalid version %q", domain.ErrInvalidPlan, version)
	}
	for _, ext := range planExtensions {
		path := filepath.Join(l.dir, version+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no migration plan for %s in %s", domain.ErrNotFound, version, l.dir)
}

// decodeFile strictly decodes one YAML document; unknown keys are errors.
func decodeFile(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %s is empty", domain.ErrInvalidPlan, path)
		}
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidPlan, path, err)
	}
	return nil
}

// checkFacets rejects a facet listed twice or both upgraded and removed.
func checkFacets(path string, facets models.FacetChanges) error {
	names := lo.Map(facets.All(), func(f models.FacetSpec, _ int) string { return f.Name })
	if dups := lo.FindDuplicates(names); len(dups) > 0 {
		return fmt.Errorf("%w: %s: facets listed more than once: %v", domain.ErrInvalidPlan, path, dups)
	}
	if both := lo.Intersect(names, facets.Remove); len(both) > 0 {
		return fmt.Errorf("%w: %s: facets both upgraded and removed: %v", domain.ErrInvalidPlan, path, both)
	}
	return nil
}

// compareVersions orders dotted numeric versions; non-numeric parts compare
// as strings.
func compareVersions(a, b string) int {
	pa, pb := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < max(len(pa), len(pb)); i++ {
		var x, y string
		if i < len(pa) {
			x = pa[i]
		}
		if i < len(pb) {
			y = pb[i]
		}
		nx, errX := strconv.Atoi(x)
		ny, errY := strconv.Atoi(y)
		switch {
		case errX == nil && errY == nil && nx != ny:
			if nx < ny {
				return -1
			}
			return 1
		case (errX != nil || errY != nil) && x != y:
			return strings.Compare(x, y)
		}
	}
	return 0
}

var _ usecase.PlanLoader = (*Loader)(nil)
