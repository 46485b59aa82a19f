package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	abiadapter "github.com/trebuchet-org/facet-cli/internal/adapters/abi"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/bindings"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

// Dialer opens JSON-RPC sessions against deployed diamonds
type Dialer struct {
	log *slog.Logger
}

// NewDialer creates a new chain dialer
func NewDialer(log *slog.Logger) *Dialer {
	return &Dialer{log: log.With("component", "chain")}
}

// Dial connects to the RPC, verifies the chain id and that the diamond has
// code, then resolves the sender.
func (d *Dialer) Dial(ctx context.Context, params usecase.DialParams) (usecase.Session, error) {
	client, err := ethclient.DialContext(ctx, params.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if params.ChainID != 0 && chainID.Uint64() != params.ChainID {
		client.Close()
		return nil, fmt.Errorf("%w: expected chain %d, RPC reports %d", domain.ErrNetworkMismatch, params.ChainID, chainID.Uint64())
	}

	code, err := client.CodeAt(ctx, params.Diamond, nil)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to check diamond code: %w", err)
	}
	if len(code) == 0 {
		client.Close()
		return nil, fmt.Errorf("no contract at diamond address %s on chain %d", params.Diamond.Hex(), chainID.Uint64())
	}

	key, sender, err := resolveSender(params)
	if err != nil {
		client.Close()
		return nil, err
	}
	d.log.Debug("opened session", "chain", chainID.Uint64(), "diamond", params.Diamond.Hex(), "sender", sender.Hex(), "impersonated", key == nil)

	return &Session{
		client:        client,
		chainID:       chainID,
		diamond:       params.Diamond,
		access:        params.AccessController,
		key:           key,
		sender:        sender,
		confirmations: params.Confirmations,
		feeMultiplier: params.FeeMultiplier,
		log:           d.log,
		diamondABI:    bindings.NewDiamond(),
		accessABI:     bindings.NewAccessController(),
		pauseABI:      bindings.NewPauseHandler(),
		initABI:       bindings.NewProtocolInitializationHandler(),
		accountABI:    bindings.NewAccountHandler(),
		events:        abiadapter.NewReceiptDecoder(),
	}, nil
}

// resolveSender returns the signing key, or a nil key when impersonating.
func resolveSender(params usecase.DialParams) (*ecdsa.PrivateKey, common.Address, error) {
	if params.Impersonate != nil {
		return nil, *params.Impersonate, nil
	}
	if params.PrivateKey == "" {
		return nil, common.Address{}, fmt.Errorf("no sender key configured")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(params.PrivateKey, "0x"))
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("invalid private key: %w", err)
	}
	return key, crypto.PubkeyToAddress(key.PublicKey), nil
}

var _ usecase.SessionDialer = (*Dialer)(nil)
