package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/config"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
)

// snapshotKey is the address book of the configured network and environment.
func snapshotKey(cfg *config.RuntimeConfig) (models.SnapshotKey, error) {
	if cfg.Network == nil {
		return models.SnapshotKey{}, fmt.Errorf("no network configured, use --network")
	}
	return models.SnapshotKey{ChainID: cfg.Network.ChainID, Network: cfg.Network.Name, Env: cfg.Environment}, nil
}

// dialParams builds session parameters for the diamond recorded in snapshot.
func dialParams(cfg *config.RuntimeConfig, snapshot *models.RegistrySnapshot, rpcURL string, impersonate *common.Address) (DialParams, error) {
	diamond, err := snapshot.Address(models.DiamondContract)
	if err != nil {
		return DialParams{}, err
	}
	access, err := snapshot.Address(models.AccessControllerContract)
	if err != nil {
		return DialParams{}, err
	}
	if rpcURL == "" {
		rpcURL = cfg.Network.RPCURL
	}
	return DialParams{
		RPCURL:           rpcURL,
		ChainID:          snapshot.ChainID,
		Diamond:          diamond,
		AccessController: access,
		PrivateKey:       cfg.SenderKey,
		Impersonate:      impersonate,
		Confirmations:    cfg.FacetConfig.Confirmations,
		FeeMultiplier:    cfg.FacetConfig.FeeMultiplier,
	}, nil
}

// openSession loads the address book and connects to its diamond.
func openSession(ctx context.Context, cfg *config.RuntimeConfig, snapshots SnapshotRepository, dialer SessionDialer, rpcURL string, impersonate *common.Address) (*models.RegistrySnapshot, Session, error) {
	key, err := snapshotKey(cfg)
	if err != nil {
		return nil, nil, err
	}
	snapshot, err := snapshots.Load(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load address book: %w", err)
	}
	params, err := dialParams(cfg, snapshot, rpcURL, impersonate)
	if err != nil {
		return nil, nil, err
	}
	session, err := dialer.Dial(ctx, params)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", cfg.Network.Name, err)
	}
	if session.ChainID() != snapshot.ChainID {
		session.Close()
		return nil, nil, fmt.Errorf("%w: address book is for chain %d, RPC reports %d", domain.ErrNetworkMismatch, snapshot.ChainID, session.ChainID())
	}
	return snapshot, session, nil
}

// deployFacets deploys every listed facet from the compiled set.
func deployFacets(ctx context.Context, deployer FacetDeployer, modules *models.CompiledModuleSet, specs []models.FacetSpec, log *slog.Logger) ([]deployedFacet, error) {
	out := make([]deployedFacet, 0, len(specs))
	for _, spec := range specs {
		module, err := modules.Module(spec.Name)
		if err != nil {
			return out, err
		}
		receipt, err := deployer.Deploy(ctx, module)
		if err != nil {
			return out, fmt.Errorf("failed to deploy %s: %w", spec.Name, err)
		}
		log.Info("deployed facet", "facet", spec.Name, "address", receipt.ContractAddress.Hex(), "tx", receipt.TxHash.Hex())
		out = append(out, deployedFacet{spec: spec, module: module, address: receipt.ContractAddress})
	}
	return out, nil
}

// assignInterfaces fills in interface ids. New ids come from the compiled
// set; preimage ids, when captured, override the address book's old ids.
func assignInterfaces(modules *models.CompiledModuleSet, changes []models.FacetChange, preimage map[string]domain.InterfaceID, markers []string) error {
	graph := modules.InterfaceGraph(markers...)
	for i := range changes {
		c := &changes[i]
		if id, ok := preimage[c.Name]; ok {
			c.OldInterfaceID = id
		}
		if c.Removed {
			continue
		}
		module, err := modules.Module(c.Name)
		if err != nil {
			return err
		}
		if c.NewInterfaceID, err = modules.InterfaceIDOf(graph, module); err != nil {
			return fmt.Errorf("failed to compute interface of %s: %w", c.Name, err)
		}
	}
	return nil
}

// subInitializers builds the paired address and calldata arrays for the
// facets that carry their own initializer.
func subInitializers(encoder InitEncoder, facets []deployedFacet) ([]common.Address, [][]byte, error) {
	var (
		addresses []common.Address
		calldata  [][]byte
	)
	for _, f := range facets {
		if f.spec.Init == nil {
			continue
		}
		data, err := encoder.EncodeInit(f.module, f.spec.Init)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode initializer of %s: %w", f.spec.Name, err)
		}
		addresses = append(addresses, f.address)
		calldata = append(calldata, data)
	}
	return addresses, calldata, nil
}

// initializerAddress resolves the facet that receives the bundled call,
// preferring a freshly deployed instance.
func initializerAddress(name string, facets []deployedFacet, snapshot *models.RegistrySnapshot) (common.Address, error) {
	for _, f := range facets {
		if f.spec.Name == name {
			return f.address, nil
		}
	}
	return snapshot.Address(name)
}
