package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/facet-cli/internal/domain/config"
)

// loadEnvFiles loads .env then .env.local from the project root. Variables
// already set in the process environment win.
func loadEnvFiles(projectRoot string) error {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(projectRoot, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// loadFoundryConfig parses foundry.toml and expands ${VAR} references in RPC
// endpoints.
func loadFoundryConfig(projectRoot string) (*config.FoundryConfig, error) {
	var cfg config.FoundryConfig
	if _, err := toml.DecodeFile(filepath.Join(projectRoot, "foundry.toml"), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse foundry.toml: %w", err)
	}
	if cfg.Profile == nil {
		cfg.Profile = make(map[string]config.ProfileConfig)
	}
	if cfg.RpcEndpoints == nil {
		cfg.RpcEndpoints = make(map[string]string)
	}
	for name, url := range cfg.RpcEndpoints {
		cfg.RpcEndpoints[name] = os.ExpandEnv(url)
	}
	return &cfg, nil
}

// facetConfigFor merges the default profile's facet table with the
// namespace's own, then fills defaults.
func facetConfigFor(foundry *config.FoundryConfig, namespace string) *config.FacetConfig {
	var merged config.FacetConfig
	if p, ok := foundry.Profile["default"]; ok && p.Facet != nil {
		merged = *p.Facet
	}
	if namespace != "default" {
		if p, ok := foundry.Profile[namespace]; ok && p.Facet != nil {
			overlayFacetConfig(&merged, p.Facet)
		}
	}
	return merged.WithDefaults()
}

func overlayFacetConfig(dst, src *config.FacetConfig) {
	if src.Confirmations != 0 {
		dst.Confirmations = src.Confirmations
	}
	if src.FeeMultiplier != 0 {
		dst.FeeMultiplier = src.FeeMultiplier
	}
	if src.SenderKeyEnv != "" {
		dst.SenderKeyEnv = src.SenderKeyEnv
	}
	if src.SourceDir != "" {
		dst.SourceDir = src.SourceDir
	}
	if src.AddressesDir != "" {
		dst.AddressesDir = src.AddressesDir
	}
	if src.MigrationsDir != "" {
		dst.MigrationsDir = src.MigrationsDir
	}
	if len(src.DependencyCommand) > 0 {
		dst.DependencyCommand = src.DependencyCommand
	}
	if len(src.InterfaceMarkers) > 0 {
		dst.InterfaceMarkers = src.InterfaceMarkers
	}
	if src.BackfillBatchSize > 0 {
		dst.BackfillBatchSize = src.BackfillBatchSize
	}
}
