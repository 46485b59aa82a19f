package config

import (
	"path/filepath"
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Context settings
	Namespace   string   // Maps to foundry profile
	Environment string   // Address book environment label (test, staging, prod)
	Network     *Network // nil if not specified

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool
	Timeout        time.Duration

	// Command-specific settings
	DryRun           bool
	Simulate         bool
	SkipDependencies bool

	// SenderKey is the operator private key read from FacetConfig.SenderKeyEnv
	SenderKey string

	// Resolved configurations
	FoundryConfig *FoundryConfig
	FacetConfig   *FacetConfig // Profile-specific facet config, never nil after loading
}

// Network represents network configuration
type Network struct {
	ChainID     uint64 `json:"chainId"`
	Name        string `json:"name"`
	RPCURL      string `json:"rpcUrl"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

// IsLocal reports whether the network is a local dev chain.
func (n *Network) IsLocal() bool {
	return n != nil && (n.ChainID == 31337 || n.Name == "localhost" || n.Name == "anvil")
}

// OutDir is the compiler output directory of the active profile.
func (c *RuntimeConfig) OutDir() string {
	out := "out"
	if c.FoundryConfig != nil {
		if p, ok := c.FoundryConfig.Profile[c.Namespace]; ok && p.OutPath != "" {
			out = p.OutPath
		} else if p, ok := c.FoundryConfig.Profile["default"]; ok && p.OutPath != "" {
			out = p.OutPath
		}
	}
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(c.ProjectRoot, out)
}
