package source

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/facet-cli/internal/domain"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := gitRepo{dir: dir}.run(context.Background(), append([]string{"-c", "user.email=ops@example.com", "-c", "user.name=ops"}, args...)...)
	require.NoError(t, err)
	return out
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// newRepo creates a project with two tagged revisions of contracts/
func newRepo(t *testing.T) (string, *Materializer) {
	t.Helper()
	requireGit(t)
	root := t.TempDir()
	git(t, root, "init", "-q")
	writeFile(t, filepath.Join(root, "contracts", "Offer.sol"), "v1")
	writeFile(t, filepath.Join(root, "contracts", "Legacy.sol"), "legacy")
	git(t, root, "add", ".")
	git(t, root, "commit", "-qm", "v1")
	git(t, root, "tag", "v2.3.0")
	writeFile(t, filepath.Join(root, "contracts", "Offer.sol"), "v2")
	git(t, root, "rm", "-q", "contracts/Legacy.sol")
	git(t, root, "add", ".")
	git(t, root, "commit", "-qm", "v2")
	git(t, root, "tag", "v2.4.0")

	out := filepath.Join(root, "out")
	writeArtifact(t, out, artifactFixture{name: "FundsHandlerFacet", abi: fundsFacetABI, bytecode: "0x6001"})

	var output bytes.Buffer
	m := &Materializer{
		root:      root,
		sourceDir: "contracts",
		outDir:    out,
		depCmd:    []string{"echo", "installed"},
		buildCmd:  []string{"true"},
		output:    &output,
		repo:      gitRepo{dir: root},
		log:       discardLogger(),
	}
	return root, m
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestMaterializer_RoundTrip(t *testing.T) {
	root, m := newRepo(t)
	ctx := context.Background()

	require.NoError(t, m.CheckClean(ctx))

	set, err := m.Materialize(ctx, "v2.3.0")
	require.NoError(t, err)
	assert.Equal(t, "v2.3.0", set.Revision)
	assert.Contains(t, set.Modules, "FundsHandlerFacet")
	assert.Equal(t, "v1", readFile(t, filepath.Join(root, "contracts", "Offer.sol")))
	assert.FileExists(t, filepath.Join(root, "contracts", "Legacy.sol"))

	_, err = m.Materialize(ctx, "v2.4.0")
	require.NoError(t, err)
	assert.Equal(t, "v2", readFile(t, filepath.Join(root, "contracts", "Offer.sol")))
	assert.NoFileExists(t, filepath.Join(root, "contracts", "Legacy.sol"))

	_, err = m.Materialize(ctx, "v2.3.0")
	require.NoError(t, err)
	require.NoError(t, m.Restore(ctx))
	assert.Equal(t, "v2", readFile(t, filepath.Join(root, "contracts", "Offer.sol")))
	assert.NoFileExists(t, filepath.Join(root, "contracts", "Legacy.sol"))
	assert.Empty(t, git(t, root, "status", "--porcelain", "--", "contracts"))
	// artifacts of the materialized revisions are gone
	assert.NoDirExists(t, filepath.Join(root, "out"))
}

func TestMaterializer_LoadCompiledAfterRestore(t *testing.T) {
	root, m := newRepo(t)
	ctx := context.Background()
	require.NoError(t, m.CheckClean(ctx))

	_, err := m.Materialize(ctx, "v2.3.0")
	require.NoError(t, err)
	require.NoError(t, m.Restore(ctx))

	_, err = m.LoadCompiled(ctx)
	assert.ErrorContains(t, err, "compiler output not found")

	// a build of the restored tree brings the artifacts back
	writeArtifact(t, filepath.Join(root, "out"), artifactFixture{name: "OfferHandlerFacet", abi: fundsFacetABI, bytecode: "0x6002"})
	set, err := m.LoadCompiled(ctx)
	require.NoError(t, err)
	assert.Contains(t, set.Modules, "OfferHandlerFacet")
	assert.NotContains(t, set.Modules, "FundsHandlerFacet")
}

func TestMaterializer_DirtyTree(t *testing.T) {
	root, m := newRepo(t)
	writeFile(t, filepath.Join(root, "contracts", "Offer.sol"), "local edit")

	err := m.CheckClean(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDirtyWorkingTree)
	assert.Contains(t, err.Error(), "Offer.sol")
}

func TestMaterializer_UntrackedFileIsDirty(t *testing.T) {
	root, m := newRepo(t)
	writeFile(t, filepath.Join(root, "contracts", "Scratch.sol"), "wip")

	assert.ErrorIs(t, m.CheckClean(context.Background()), domain.ErrDirtyWorkingTree)
}

func TestMaterializer_ChangesOutsideSourcesAreIgnored(t *testing.T) {
	root, m := newRepo(t)
	writeFile(t, filepath.Join(root, "README.md"), "notes")

	assert.NoError(t, m.CheckClean(context.Background()))
}

func TestMaterializer_UnknownRevision(t *testing.T) {
	_, m := newRepo(t)
	ctx := context.Background()
	require.NoError(t, m.CheckClean(ctx))

	_, err := m.Materialize(ctx, "v9.9.9")
	assert.ErrorContains(t, err, `unknown revision "v9.9.9"`)
}

func TestMaterializer_RequiresCheckClean(t *testing.T) {
	_, m := newRepo(t)
	_, err := m.Materialize(context.Background(), "v2.3.0")
	assert.ErrorContains(t, err, "CheckClean")
}

func TestMaterializer_RestoreWithoutChanges(t *testing.T) {
	_, m := newRepo(t)
	assert.NoError(t, m.Restore(context.Background()))
}

func TestMaterializer_BuildFailure(t *testing.T) {
	_, m := newRepo(t)
	ctx := context.Background()
	require.NoError(t, m.CheckClean(ctx))
	m.buildCmd = []string{"false"}

	_, err := m.Materialize(ctx, "v2.3.0")
	assert.ErrorContains(t, err, "false failed")
	require.NoError(t, m.Restore(ctx))
}

func TestMaterializer_InstallDependencies(t *testing.T) {
	_, m := newRepo(t)
	require.NoError(t, m.InstallDependencies(context.Background()))
	assert.Contains(t, m.output.(*bytes.Buffer).String(), "installed")

	m.depCmd = []string{"false"}
	assert.Error(t, m.InstallDependencies(context.Background()))
}
