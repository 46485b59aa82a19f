package config

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/facet-cli/internal/domain/config"
)

func chainIDServer(t *testing.T, chainID string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Method string          `json:"method"`
			ID     json.RawMessage `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
			return
		}
		if req.Method != "eth_chainId" {
			t.Errorf("unexpected method %s", req.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": chainID})
	}))
}

func TestNetworkResolver_FetchesAndCaches(t *testing.T) {
	var calls atomic.Int32
	server := chainIDServer(t, "0xaa36a7", &calls)
	defer server.Close()

	root := t.TempDir()
	foundry := &config.FoundryConfig{RpcEndpoints: map[string]string{"sepolia": server.URL}}

	network, err := NewNetworkResolver(root, foundry).Resolve(context.Background(), "sepolia", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(11155111), network.ChainID)
	assert.Equal(t, int32(1), calls.Load())
	assert.FileExists(t, filepath.Join(root, "cache", "chainIds.json"))

	// a fresh resolver reads the cache instead of the endpoint
	network, err = NewNetworkResolver(root, foundry).Resolve(context.Background(), "sepolia", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(11155111), network.ChainID)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNetworkResolver_OverrideSkipsLookup(t *testing.T) {
	var calls atomic.Int32
	server := chainIDServer(t, "0x1", &calls)
	defer server.Close()

	foundry := &config.FoundryConfig{RpcEndpoints: map[string]string{"local": server.URL}}
	network, err := NewNetworkResolver(t.TempDir(), foundry).Resolve(context.Background(), "local", 31337)
	require.NoError(t, err)
	assert.Equal(t, uint64(31337), network.ChainID)
	assert.True(t, network.IsLocal())
	assert.Zero(t, calls.Load())
}

func TestNetworkResolver_CorruptCache(t *testing.T) {
	var calls atomic.Int32
	server := chainIDServer(t, "0x89", &calls)
	defer server.Close()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cache"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cache", "chainIds.json"), []byte("{"), 0644))

	foundry := &config.FoundryConfig{RpcEndpoints: map[string]string{"polygon": server.URL}}
	network, err := NewNetworkResolver(root, foundry).Resolve(context.Background(), "polygon", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(137), network.ChainID)
	assert.Equal(t, "https://polygonscan.com", network.ExplorerURL)
}

func TestNetworkResolver_Names(t *testing.T) {
	foundry := &config.FoundryConfig{RpcEndpoints: map[string]string{"b": "x", "a": "y"}}
	assert.Equal(t, []string{"a", "b"}, NewNetworkResolver(t.TempDir(), foundry).Names())
}
