package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/config"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

// Materializer switches the contract sources to historical revisions with
// git and compiles them with forge.
type Materializer struct {
	root      string
	sourceDir string
	outDir    string
	markers   []string
	depCmd    []string
	buildCmd  []string
	output    io.Writer
	repo      gitRepo
	log       *slog.Logger

	baseline string
	touched  bool
}

// NewMaterializer creates a materializer for the configured project
func NewMaterializer(cfg *config.RuntimeConfig, log *slog.Logger) *Materializer {
	return &Materializer{
		root:      cfg.ProjectRoot,
		sourceDir: cfg.FacetConfig.SourceDir,
		outDir:    cfg.OutDir(),
		markers:   cfg.FacetConfig.InterfaceMarkers,
		depCmd:    cfg.FacetConfig.DependencyCommand,
		buildCmd:  []string{"forge", "build"},
		output:    os.Stderr,
		repo:      gitRepo{dir: cfg.ProjectRoot},
		log:       log.With("component", "source"),
	}
}

// CheckClean fails when the source directory has local modifications and
// records HEAD as the revision Restore returns to.
func (m *Materializer) CheckClean(ctx context.Context) error {
	dirty, err := m.repo.status(ctx, m.sourceDir)
	if err != nil {
		return fmt.Errorf("failed to inspect working tree: %w", err)
	}
	if len(dirty) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrDirtyWorkingTree, strings.Join(dirty, ", "))
	}
	head, err := m.repo.resolve(ctx, "HEAD")
	if err != nil {
		return err
	}
	m.baseline = head
	return nil
}

// InstallDependencies runs the dependency command, streaming its output
func (m *Materializer) InstallDependencies(ctx context.Context) error {
	if len(m.depCmd) == 0 {
		return nil
	}
	start := time.Now()
	m.log.Debug("installing dependencies", "cmd", strings.Join(m.depCmd, " "))

	cmd := exec.CommandContext(ctx, m.depCmd[0], m.depCmd[1:]...)
	cmd.Dir = m.root

	// pty keeps the tool's colors and progress bars
	ptyFile, err := pty.Start(cmd)
	if err != nil {
		m.log.Debug("pty unavailable, streaming plain output", "error", err)
		plain := exec.CommandContext(ctx, m.depCmd[0], m.depCmd[1:]...)
		plain.Dir = m.root
		plain.Stdout = m.output
		plain.Stderr = m.output
		if err := plain.Run(); err != nil {
			return fmt.Errorf("%s failed: %w", strings.Join(m.depCmd, " "), err)
		}
		return nil
	}
	defer func() {
		_ = ptyFile.Close()
	}()
	_, _ = io.Copy(m.output, ptyFile)

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s failed: %w", strings.Join(m.depCmd, " "), err)
	}
	m.log.Debug("dependencies installed", "duration", time.Since(start))
	return nil
}

// Materialize checks out the source directory at revision and compiles it
func (m *Materializer) Materialize(ctx context.Context, revision string) (*models.CompiledModuleSet, error) {
	if m.baseline == "" {
		return nil, fmt.Errorf("working tree was not checked, call CheckClean first")
	}
	commit, err := m.repo.resolve(ctx, revision)
	if err != nil {
		return nil, err
	}
	m.touched = true
	// files left over from an earlier revision are untracked
	if err := m.repo.clean(ctx, m.sourceDir); err != nil {
		return nil, fmt.Errorf("failed to clean %s: %w", m.sourceDir, err)
	}
	if err := m.repo.restore(ctx, commit, m.sourceDir); err != nil {
		return nil, fmt.Errorf("failed to check out %s: %w", revision, err)
	}
	m.log.Info("materialized sources", "revision", revision, "commit", commit)

	if err := m.build(ctx); err != nil {
		return nil, err
	}
	return ReadArtifacts(m.outDir, revision, m.markers, m.log)
}

// Restore returns the source directory to the baseline commit and drops the
// artifacts compiled from other revisions. The next build recreates them.
func (m *Materializer) Restore(ctx context.Context) error {
	if !m.touched {
		return nil
	}
	if err := m.repo.restore(ctx, m.baseline, m.sourceDir); err != nil {
		return fmt.Errorf("failed to restore sources: %w", err)
	}
	if err := m.repo.clean(ctx, m.sourceDir); err != nil {
		return fmt.Errorf("failed to restore sources: %w", err)
	}
	if err := os.RemoveAll(m.outDir); err != nil {
		return fmt.Errorf("failed to clear %s: %w", m.outDir, err)
	}
	m.touched = false
	m.log.Debug("restored sources", "commit", m.baseline)
	return nil
}

// LoadCompiled compiles the current working tree as is
func (m *Materializer) LoadCompiled(ctx context.Context) (*models.CompiledModuleSet, error) {
	if err := m.build(ctx); err != nil {
		return nil, err
	}
	revision, err := m.repo.resolve(ctx, "HEAD")
	if err != nil {
		revision = "working-tree"
	}
	return ReadArtifacts(m.outDir, revision, m.markers, m.log)
}

func (m *Materializer) build(ctx context.Context) error {
	start := time.Now()
	m.log.Debug("running build", "cmd", strings.Join(m.buildCmd, " "), "dir", m.root)

	cmd := exec.CommandContext(ctx, m.buildCmd[0], m.buildCmd[1:]...)
	cmd.Dir = m.root
	output, err := cmd.CombinedOutput()
	if err != nil {
		m.log.Error("build failed", "error", err, "duration", time.Since(start))
		return fmt.Errorf("%s failed: %w\nOutput: %s", strings.Join(m.buildCmd, " "), err, string(output))
	}
	m.log.Debug("build completed", "duration", time.Since(start))
	return nil
}

var (
	_ usecase.SourceMaterializer = (*Materializer)(nil)
	_ usecase.ArtifactReader     = (*Materializer)(nil)
)
