package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFoundryToml = `
[profile.default]
src = "src"
out = "out"

[profile.default.facet]
confirmations = 2
source_dir = "protocol"

[profile.live]
out = "out-live"

[profile.live.facet]
fee_multiplier = 150
sender_key_env = "LIVE_KEY"
backfill_batch_size = 25

[rpc_endpoints]
sepolia = "${SEPOLIA_RPC_URL}"
local = "http://127.0.0.1:8545"
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func TestProvider_DefaultNamespace(t *testing.T) {
	root := writeProject(t, map[string]string{"foundry.toml": testFoundryToml})
	t.Setenv("DEPLOYER_PRIVATE_KEY", "0xabc")

	v := viper.New()
	v.Set("project_root", root)

	cfg, err := Provider(v)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(root, ".facet"), cfg.DataDir)
	assert.Equal(t, "default", cfg.Namespace)
	assert.Equal(t, "test", cfg.Environment)
	assert.Nil(t, cfg.Network)
	assert.Equal(t, "0xabc", cfg.SenderKey)

	require.NotNil(t, cfg.FacetConfig)
	assert.Equal(t, uint64(2), cfg.FacetConfig.Confirmations)
	assert.Equal(t, uint64(100), cfg.FacetConfig.FeeMultiplier)
	assert.Equal(t, "protocol", cfg.FacetConfig.SourceDir)
	assert.Equal(t, "migrations", cfg.FacetConfig.MigrationsDir)
	assert.Equal(t, filepath.Join(root, "out"), cfg.OutDir())
}

func TestProvider_NamespaceOverlay(t *testing.T) {
	root := writeProject(t, map[string]string{"foundry.toml": testFoundryToml})
	t.Setenv("LIVE_KEY", "0xdef")

	v := viper.New()
	v.Set("project_root", root)
	v.Set("namespace", "live")
	v.Set("env", "prod")

	cfg, err := Provider(v)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, uint64(2), cfg.FacetConfig.Confirmations)
	assert.Equal(t, uint64(150), cfg.FacetConfig.FeeMultiplier)
	assert.Equal(t, "protocol", cfg.FacetConfig.SourceDir)
	assert.Equal(t, 25, cfg.FacetConfig.BackfillBatchSize)
	assert.Equal(t, "0xdef", cfg.SenderKey)
	assert.Equal(t, filepath.Join(root, "out-live"), cfg.OutDir())
}

func TestProvider_NetworkWithChainIDOverride(t *testing.T) {
	root := writeProject(t, map[string]string{
		"foundry.toml": testFoundryToml,
		".env":         "SEPOLIA_RPC_URL=https://sepolia.example\n",
	})

	v := viper.New()
	v.Set("project_root", root)
	v.Set("network", "sepolia")
	v.Set("chain_id", 11155111)

	cfg, err := Provider(v)
	require.NoError(t, err)

	require.NotNil(t, cfg.Network)
	assert.Equal(t, "sepolia", cfg.Network.Name)
	assert.Equal(t, uint64(11155111), cfg.Network.ChainID)
	assert.Equal(t, "https://sepolia.example", cfg.Network.RPCURL)
	assert.Equal(t, "https://sepolia.etherscan.io", cfg.Network.ExplorerURL)
}

func TestProvider_UnknownNetwork(t *testing.T) {
	root := writeProject(t, map[string]string{"foundry.toml": testFoundryToml})

	v := viper.New()
	v.Set("project_root", root)
	v.Set("network", "mainnet")

	_, err := Provider(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network 'mainnet' not found")
}

func TestProvider_BadFoundryToml(t *testing.T) {
	root := writeProject(t, map[string]string{"foundry.toml": "[profile\n"})

	v := viper.New()
	v.Set("project_root", root)

	_, err := Provider(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse foundry.toml")
}
