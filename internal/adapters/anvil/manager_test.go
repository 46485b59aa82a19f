package anvil

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/facet-cli/internal/domain"
)

type rpcRequest struct {
	Jsonrpc string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      json.RawMessage   `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

func newTestManager() *Manager {
	return NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBuildAnvilArgs(t *testing.T) {
	tests := []struct {
		name     string
		instance *domain.AnvilInstance
		want     []string
	}{
		{
			name:     "basic",
			instance: &domain.AnvilInstance{Port: "8545"},
			want:     []string{"--port", "8545", "--host", "127.0.0.1"},
		},
		{
			name:     "chain id",
			instance: &domain.AnvilInstance{Port: "9000", ChainID: "31337"},
			want:     []string{"--port", "9000", "--host", "127.0.0.1", "--chain-id", "31337"},
		},
		{
			name:     "fork",
			instance: &domain.AnvilInstance{Port: "9000", ChainID: "11155111", ForkURL: "https://rpc.sepolia.org"},
			want: []string{
				"--port", "9000",
				"--host", "127.0.0.1",
				"--chain-id", "11155111",
				"--fork-url", "https://rpc.sepolia.org",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildAnvilArgs(tt.instance))
		})
	}
}

func TestSetFilePaths(t *testing.T) {
	m := newTestManager()

	instance := &domain.AnvilInstance{}
	m.setFilePaths(instance)
	assert.Equal(t, "anvil", instance.Name)
	assert.Equal(t, DefaultAnvilPort, instance.Port)
	assert.Equal(t, filepath.Join(os.TempDir(), "facet-anvil.pid"), instance.PidFile)
	assert.Equal(t, filepath.Join(os.TempDir(), "facet-anvil.log"), instance.LogFile)

	preset := &domain.AnvilInstance{
		Name:    "dryrun-sepolia",
		Port:    "54321",
		PidFile: "/custom/path/my.pid",
		LogFile: "/custom/path/my.log",
	}
	m.setFilePaths(preset)
	assert.Equal(t, "/custom/path/my.pid", preset.PidFile)
	assert.Equal(t, "/custom/path/my.log", preset.LogFile)
}

// newMockRPCServer creates a test HTTP server that responds to JSON-RPC requests
func newMockRPCServer(t *testing.T, handler func(req rpcRequest) rpcResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode RPC request: %v", err)
			return
		}
		resp := handler(req)
		resp.Jsonrpc, resp.ID = "2.0", req.ID
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("failed to encode RPC response: %v", err)
		}
	}))
}

// instanceForServer creates an AnvilInstance pointing at the test server
func instanceForServer(t *testing.T, server *httptest.Server) *domain.AnvilInstance {
	t.Helper()
	parts := strings.Split(server.URL, ":")
	dir := t.TempDir()
	return &domain.AnvilInstance{
		Name:    "test",
		Port:    parts[len(parts)-1],
		PidFile: filepath.Join(dir, "test.pid"),
		LogFile: filepath.Join(dir, "test.log"),
	}
}

func param(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var s string
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}

func TestSetBalance(t *testing.T) {
	account := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	server := newMockRPCServer(t, func(req rpcRequest) rpcResponse {
		assert.Equal(t, "anvil_setBalance", req.Method)
		require.Len(t, req.Params, 2)
		assert.Equal(t, strings.ToLower(account.Hex()), strings.ToLower(param(t, req.Params[0])))
		assert.Equal(t, "0xde0b6b3a7640000", param(t, req.Params[1]))
		return rpcResponse{Result: nil}
	})
	defer server.Close()

	err := newTestManager().SetBalance(context.Background(), instanceForServer(t, server), account, big.NewInt(1e18))
	require.NoError(t, err)
}

func TestImpersonate(t *testing.T) {
	account := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	server := newMockRPCServer(t, func(req rpcRequest) rpcResponse {
		if req.Method != "anvil_impersonateAccount" {
			return rpcResponse{Error: &rpcError{Code: -32601, Message: "method not found"}}
		}
		return rpcResponse{}
	})
	defer server.Close()

	m := newTestManager()
	instance := instanceForServer(t, server)
	require.NoError(t, m.Impersonate(context.Background(), instance, account))
}

func TestImpersonate_RPCError(t *testing.T) {
	server := newMockRPCServer(t, func(req rpcRequest) rpcResponse {
		return rpcResponse{Error: &rpcError{Code: -32000, Message: "not a fork"}}
	})
	defer server.Close()

	err := newTestManager().Impersonate(context.Background(), instanceForServer(t, server), common.Address{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a fork")
}

func TestStop_NotRunning(t *testing.T) {
	instance := &domain.AnvilInstance{Name: "idle", PidFile: filepath.Join(t.TempDir(), "idle.pid")}
	assert.NoError(t, newTestManager().Stop(context.Background(), instance))
}
