package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/facet-cli/internal/domain/config"
)

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	if err := loadEnvFiles(projectRoot); err != nil {
		return nil, err
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:      projectRoot,
		DataDir:          filepath.Join(projectRoot, ".facet"),
		Namespace:        v.GetString("namespace"),
		Environment:      v.GetString("env"),
		Debug:            v.GetBool("debug"),
		NonInteractive:   v.GetBool("non_interactive"),
		JSON:             v.GetBool("json"),
		Timeout:          v.GetDuration("timeout"),
		DryRun:           v.GetBool("dry_run"),
		Simulate:         v.GetBool("simulate"),
		SkipDependencies: v.GetBool("skip_dependencies"),
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "default"
	}
	if cfg.Environment == "" {
		cfg.Environment = "test"
	}

	foundryConfig, err := loadFoundryConfig(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load foundry config: %w", err)
	}
	cfg.FoundryConfig = foundryConfig
	cfg.FacetConfig = facetConfigFor(foundryConfig, cfg.Namespace)
	cfg.SenderKey = os.Getenv(cfg.FacetConfig.SenderKeyEnv)

	if networkName := v.GetString("network"); networkName != "" {
		resolver := NewNetworkResolver(projectRoot, foundryConfig)
		network, err := resolver.Resolve(context.Background(), networkName, v.GetUint64("chain_id"))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve network %s: %w", networkName, err)
		}
		cfg.Network = network
	}

	return cfg, nil
}

// FindProjectRoot walks up from current directory to find foundry.toml
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		foundryToml := filepath.Join(dir, "foundry.toml")
		if _, err := os.Stat(foundryToml); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a Foundry project (foundry.toml not found)")
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	v.SetConfigName("config.local")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, ".facet"))

	v.SetEnvPrefix("FACET")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("namespace", "default")
	v.SetDefault("env", "test")
	v.SetDefault("timeout", "10m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	// missing config file is fine
	_ = v.ReadInConfig()

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	})

	return v
}

// ProvideNetworkResolver creates a NetworkResolver for Wire dependency injection
func ProvideNetworkResolver(cfg *config.RuntimeConfig) *NetworkResolver {
	return NewNetworkResolver(cfg.ProjectRoot, cfg.FoundryConfig)
}
