package config

// FoundryConfig represents the parts of foundry.toml facet reads
type FoundryConfig struct {
	Profile      map[string]ProfileConfig `toml:"profile"`
	RpcEndpoints map[string]string        `toml:"rpc_endpoints"`
}

// ProfileConfig represents a profile's foundry configuration
type ProfileConfig struct {
	SrcPath string       `toml:"src,omitempty"`
	OutPath string       `toml:"out,omitempty"`
	Facet   *FacetConfig `toml:"facet,omitempty"`
}

// FacetConfig holds the [profile.<namespace>.facet] table
type FacetConfig struct {
	// Confirmations to await after every mutation before treating it durable
	Confirmations uint64 `toml:"confirmations,omitempty"`
	// FeeMultiplier scales the suggested priority fee (percent, 100 = as suggested)
	FeeMultiplier uint64 `toml:"fee_multiplier,omitempty"`
	// SenderKeyEnv names the env var that holds the operator private key
	SenderKeyEnv string `toml:"sender_key_env,omitempty"`
	// SourceDir is the contract directory that migrations check out per revision
	SourceDir string `toml:"source_dir,omitempty"`
	// AddressesDir holds the registry snapshot files
	AddressesDir string `toml:"addresses_dir,omitempty"`
	// MigrationsDir holds one YAML plan per protocol version
	MigrationsDir string `toml:"migrations_dir,omitempty"`
	// DependencyCommand refreshes dependencies before compiling a revision
	DependencyCommand []string `toml:"dependency_command,omitempty"`
	// InterfaceMarkers fold to the zero interface id
	InterfaceMarkers []string `toml:"interface_markers,omitempty"`
	// BackfillBatchSize bounds the number of entities per backfill call
	BackfillBatchSize int `toml:"backfill_batch_size,omitempty"`
}

// DefaultFacetConfig returns the settings used when foundry.toml has no facet table
func DefaultFacetConfig() *FacetConfig {
	return &FacetConfig{
		Confirmations:     1,
		FeeMultiplier:     100,
		SenderKeyEnv:      "DEPLOYER_PRIVATE_KEY",
		SourceDir:         "contracts",
		AddressesDir:      "addresses",
		MigrationsDir:     "migrations",
		DependencyCommand: []string{"forge", "install"},
		InterfaceMarkers:  []string{"IDiamondEventsAndErrors"},
		BackfillBatchSize: 100,
	}
}

// WithDefaults fills unset fields from DefaultFacetConfig
func (c *FacetConfig) WithDefaults() *FacetConfig {
	d := DefaultFacetConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Confirmations == 0 {
		out.Confirmations = d.Confirmations
	}
	if out.FeeMultiplier == 0 {
		out.FeeMultiplier = d.FeeMultiplier
	}
	if out.SenderKeyEnv == "" {
		out.SenderKeyEnv = d.SenderKeyEnv
	}
	if out.SourceDir == "" {
		out.SourceDir = d.SourceDir
	}
	if out.AddressesDir == "" {
		out.AddressesDir = d.AddressesDir
	}
	if out.MigrationsDir == "" {
		out.MigrationsDir = d.MigrationsDir
	}
	if len(out.DependencyCommand) == 0 {
		out.DependencyCommand = d.DependencyCommand
	}
	if len(out.InterfaceMarkers) == 0 {
		out.InterfaceMarkers = d.InterfaceMarkers
	}
	if out.BackfillBatchSize <= 0 {
		out.BackfillBatchSize = d.BackfillBatchSize
	}
	return &out
}
