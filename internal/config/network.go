package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/facet-cli/internal/domain/config"
)

const chainIDTimeout = 10 * time.Second

// NetworkResolver resolves network names from foundry.toml [rpc_endpoints]
// and caches their chain ids.
type NetworkResolver struct {
	projectRoot   string
	foundryConfig *config.FoundryConfig
	cache         *NetworkCache
	mu            sync.RWMutex
}

// NetworkCache caches chain ID lookups
type NetworkCache struct {
	Networks  map[string]uint64 `json:"networks"` // name -> chainID
	RPCs      map[string]uint64 `json:"rpcs"`     // rpcURL -> chainID
	UpdatedAt time.Time         `json:"updatedAt"`
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(projectRoot string, foundryConfig *config.FoundryConfig) *NetworkResolver {
	r := &NetworkResolver{projectRoot: projectRoot, foundryConfig: foundryConfig}
	r.loadCache()
	return r
}

// Names lists the configured networks.
func (r *NetworkResolver) Names() []string {
	names := make([]string, 0, len(r.foundryConfig.RpcEndpoints))
	for name := range r.foundryConfig.RpcEndpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve looks up a network. A non-zero chainID skips the RPC lookup, which
// lets offline commands run against an unreachable endpoint.
func (r *NetworkResolver) Resolve(ctx context.Context, networkName string, chainID uint64) (*config.Network, error) {
	rpcURL, exists := r.foundryConfig.RpcEndpoints[networkName]
	if !exists {
		return nil, fmt.Errorf("network '%s' not found in foundry.toml [rpc_endpoints]", networkName)
	}

	if chainID == 0 {
		r.mu.RLock()
		cached, ok := r.cache.Networks[networkName]
		if cachedRPC, rpcOK := r.cache.RPCs[rpcURL]; ok && rpcOK && cachedRPC == cached {
			chainID = cached
		}
		r.mu.RUnlock()
	}
	if chainID == 0 {
		fetched, err := fetchChainID(ctx, rpcURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch chain ID for network %s: %w", networkName, err)
		}
		chainID = fetched
		r.updateCache(networkName, rpcURL, chainID)
	}

	return &config.Network{
		Name:        networkName,
		RPCURL:      rpcURL,
		ChainID:     chainID,
		ExplorerURL: explorerURL(chainID),
	}, nil
}

// fetchChainID asks the endpoint for eth_chainId
func fetchChainID(ctx context.Context, rpcURL string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, chainIDTimeout)
	defer cancel()

	client, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	var id hexutil.Uint64
	if err := client.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, fmt.Errorf("empty chain ID response")
	}
	return uint64(id), nil
}

// explorerURL returns the block explorer for well-known chains
func explorerURL(chainID uint64) string {
	switch chainID {
	case 1:
		return "https://etherscan.io"
	case 11155111:
		return "https://sepolia.etherscan.io"
	case 10:
		return "https://optimistic.etherscan.io"
	case 137:
		return "https://polygonscan.com"
	case 80002:
		return "https://amoy.polygonscan.com"
	case 8453:
		return "https://basescan.org"
	case 42161:
		return "https://arbiscan.io"
	default:
		return ""
	}
}

func (r *NetworkResolver) cachePath() string {
	return filepath.Join(r.projectRoot, "cache", "chainIds.json")
}

// loadCache loads the chain ID cache from disk
func (r *NetworkResolver) loadCache() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache = &NetworkCache{Networks: make(map[string]uint64), RPCs: make(map[string]uint64)}
	data, err := os.ReadFile(r.cachePath())
	if err != nil {
		return
	}
	var loaded NetworkCache
	if err := json.Unmarshal(data, &loaded); err != nil || loaded.Networks == nil || loaded.RPCs == nil {
		return
	}
	r.cache = &loaded
}

// updateCache records a lookup; failures to persist are ignored
func (r *NetworkResolver) updateCache(networkName, rpcURL string, chainID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Networks[networkName] = chainID
	r.cache.RPCs[rpcURL] = chainID
	r.cache.UpdatedAt = time.Now()

	if err := os.MkdirAll(filepath.Dir(r.cachePath()), 0755); err != nil {
		return
	}
	data, err := json.MarshalIndent(r.cache, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(r.cachePath(), data, 0644)
}
