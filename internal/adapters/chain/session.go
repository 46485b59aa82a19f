package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/samber/lo"
	abiadapter "github.com/trebuchet-org/facet-cli/internal/adapters/abi"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/bindings"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
	"github.com/trebuchet-org/facet-cli/internal/domain/protocolinit"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

const (
	gasHeadroomPercent = 120
	confirmationPoll   = 2 * time.Second
)

// Session talks to a deployed diamond over JSON-RPC. Transactions are signed
// locally, or sent unsigned from an impersonated account on a fork.
type Session struct {
	client        *ethclient.Client
	chainID       *big.Int
	diamond       common.Address
	access        common.Address
	key           *ecdsa.PrivateKey
	sender        common.Address
	confirmations uint64
	feeMultiplier uint64
	log           *slog.Logger

	diamondABI *bindings.Diamond
	accessABI  *bindings.AccessController
	pauseABI   *bindings.PauseHandler
	initABI    *bindings.ProtocolInitializationHandler
	accountABI *bindings.AccountHandler
	events     *abiadapter.ReceiptDecoder
}

func (s *Session) ChainID() uint64 {
	return s.chainID.Uint64()
}

func (s *Session) Sender() common.Address {
	return s.sender
}

func (s *Session) Close() {
	s.client.Close()
}

func (s *Session) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	return s.client.BalanceAt(ctx, account, nil)
}

// SuggestFees scales the node's suggested tip by the configured multiplier
// and caps the fee at twice the current base fee plus the tip.
func (s *Session) SuggestFees(ctx context.Context) (models.FeeParams, error) {
	tip, err := s.client.SuggestGasTipCap(ctx)
	if err != nil {
		return models.FeeParams{}, fmt.Errorf("failed to suggest gas tip: %w", err)
	}
	if s.feeMultiplier > 0 {
		tip = new(big.Int).Div(new(big.Int).Mul(tip, new(big.Int).SetUint64(s.feeMultiplier)), big.NewInt(100))
	}
	head, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return models.FeeParams{}, fmt.Errorf("failed to read head block: %w", err)
	}
	maxFee := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		maxFee.Add(maxFee, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}
	return models.FeeParams{MaxPriorityFeePerGas: tip, MaxFeePerGas: maxFee}, nil
}

func (s *Session) ProtocolVersion(ctx context.Context) (protocolinit.Version, error) {
	out, err := s.call(ctx, s.diamond, s.initABI.PackGetVersion())
	if err != nil {
		return protocolinit.Version{}, fmt.Errorf("failed to read protocol version: %w", err)
	}
	tag, err := s.initABI.UnpackGetVersion(out)
	if err != nil {
		return protocolinit.Version{}, fmt.Errorf("failed to decode protocol version: %w", err)
	}
	return protocolinit.ParseVersion(strings.TrimRight(tag, "\x00"))
}

// SellerExists asks the account handler behind the diamond for a seller.
func (s *Session) SellerExists(ctx context.Context, id *big.Int) (bool, error) {
	out, err := s.call(ctx, s.diamond, s.accountABI.PackGetSeller(id))
	if err != nil {
		return false, fmt.Errorf("failed to read seller %s: %w", id, err)
	}
	return s.accountABI.UnpackGetSellerExists(out)
}

func (s *Session) Facets(ctx context.Context) ([]models.LoupeFacet, error) {
	out, err := s.call(ctx, s.diamond, s.diamondABI.PackFacets())
	if err != nil {
		return nil, fmt.Errorf("failed to read facets: %w", err)
	}
	facets, err := s.diamondABI.UnpackFacets(out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode facets: %w", err)
	}
	return lo.Map(facets, func(f bindings.IDiamondLoupeFacet, _ int) models.LoupeFacet {
		return models.LoupeFacet{Address: f.FacetAddress, Selectors: selectorSet(f.FunctionSelectors)}
	}), nil
}

func (s *Session) FacetAddress(ctx context.Context, selector domain.Selector) (common.Address, error) {
	out, err := s.call(ctx, s.diamond, s.diamondABI.PackFacetAddress(selector))
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to read facet of %s: %w", selector, err)
	}
	return s.diamondABI.UnpackFacetAddress(out)
}

func (s *Session) SupportsInterface(ctx context.Context, id domain.InterfaceID) (bool, error) {
	out, err := s.call(ctx, s.diamond, s.diamondABI.PackSupportsInterface(id))
	if err != nil {
		return false, fmt.Errorf("failed to query interface %s: %w", id, err)
	}
	return s.diamondABI.UnpackSupportsInterface(out)
}

// SubmitCut sends one diamondCut. A reverted cut is returned as an error
// carrying the decoded revert reason and is never retried.
func (s *Session) SubmitCut(ctx context.Context, req models.CutRequest) (*models.Receipt, error) {
	cuts := lo.Map(req.Cuts, func(c models.FacetCut, _ int) bindings.IDiamondCutFacetCut {
		return bindings.IDiamondCutFacetCut{
			FacetAddress:      c.FacetAddress,
			Action:            uint8(c.Action),
			FunctionSelectors: c.Selectors.Bytes4(),
		}
	})
	var init common.Address
	if req.InitTarget != nil {
		init = *req.InitTarget
	}
	data, err := s.diamondABI.TryPackDiamondCut(cuts, init, req.InitCalldata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode diamondCut: %w", err)
	}
	return s.transact(ctx, &s.diamond, data, req.Fee)
}

func (s *Session) HasRole(ctx context.Context, account common.Address, role domain.Role) (bool, error) {
	out, err := s.call(ctx, s.access, s.accessABI.PackHasRole(role, account))
	if err != nil {
		return false, fmt.Errorf("failed to check role %s: %w", role, err)
	}
	return s.accessABI.UnpackHasRole(out)
}

func (s *Session) GrantRole(ctx context.Context, account common.Address, role domain.Role) (*models.Receipt, error) {
	return s.transact(ctx, &s.access, s.accessABI.PackGrantRole(role, account), models.FeeParams{})
}

func (s *Session) RevokeRole(ctx context.Context, account common.Address, role domain.Role) (*models.Receipt, error) {
	return s.transact(ctx, &s.access, s.accessABI.PackRevokeRole(role, account), models.FeeParams{})
}

func (s *Session) Pause(ctx context.Context, regions []domain.PauseRegion) (*models.Receipt, error) {
	return s.transact(ctx, &s.diamond, s.pauseABI.PackPause(domain.PauseRegionsToUint8(regions)), models.FeeParams{})
}

func (s *Session) Unpause(ctx context.Context, regions []domain.PauseRegion) (*models.Receipt, error) {
	return s.transact(ctx, &s.diamond, s.pauseABI.PackUnpause(domain.PauseRegionsToUint8(regions)), models.FeeParams{})
}

// Deploy sends the facet's creation code and waits for the contract.
func (s *Session) Deploy(ctx context.Context, module *models.CompiledModule) (*models.Receipt, error) {
	if len(module.Bytecode) == 0 {
		return nil, fmt.Errorf("%s has no creation bytecode (abstract contract or interface?)", module.Name)
	}
	receipt, err := s.transact(ctx, nil, module.Bytecode, models.FeeParams{})
	if err != nil {
		return nil, err
	}
	code, err := s.client.CodeAt(ctx, receipt.ContractAddress, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to verify deployment of %s: %w", module.Name, err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%s deployed to %s but no code is present", module.Name, receipt.ContractAddress.Hex())
	}
	return receipt, nil
}

func (s *Session) BackfillRoyalties(ctx context.Context, batch protocolinit.RoyaltyBackfill) (*models.Receipt, error) {
	percentages, sellers, offers := batch.Columns()
	data, err := s.initABI.TryPackInitV240External(percentages, sellers, offers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode backfill batch: %w", err)
	}
	return s.transact(ctx, &s.diamond, data, models.FeeParams{})
}

func (s *Session) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	out, err := s.client.CallContract(ctx, ethereum.CallMsg{From: s.sender, To: &to, Data: data}, nil)
	if err != nil {
		return nil, decodeRevert(to, err)
	}
	return out, nil
}

// transact estimates, sends and confirms one transaction. A nil to deploys.
func (s *Session) transact(ctx context.Context, to *common.Address, data []byte, fee models.FeeParams) (*models.Receipt, error) {
	target := lo.FromPtrOr(to, common.Address{})

	if fee.MaxFeePerGas == nil || fee.MaxPriorityFeePerGas == nil {
		suggested, err := s.SuggestFees(ctx)
		if err != nil {
			return nil, err
		}
		fee = suggested
	}

	msg := ethereum.CallMsg{From: s.sender, To: to, Data: data}
	gas, err := s.client.EstimateGas(ctx, msg)
	if err != nil {
		return nil, decodeRevert(target, err)
	}
	gas = gas * gasHeadroomPercent / 100

	var hash common.Hash
	if s.key != nil {
		hash, err = s.sendSigned(ctx, to, data, gas, fee)
	} else {
		hash, err = s.sendImpersonated(ctx, to, data, gas, fee)
	}
	if err != nil {
		return nil, err
	}
	s.log.Debug("sent transaction", "tx", hash.Hex(), "to", target.Hex(), "gas", gas)

	receipt, err := bind.WaitMined(ctx, s.client, hash)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for %s: %w", hash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		// replay at the failing block to recover the reason
		_, callErr := s.client.CallContract(ctx, msg, receipt.BlockNumber)
		if callErr != nil {
			return nil, fmt.Errorf("transaction %s reverted: %w", hash.Hex(), decodeRevert(target, callErr))
		}
		return nil, fmt.Errorf("transaction %s reverted", hash.Hex())
	}

	confirmations, err := s.awaitConfirmations(ctx, receipt.BlockNumber.Uint64())
	if err != nil {
		return nil, err
	}
	return &models.Receipt{
		TxHash:          hash,
		BlockNumber:     receipt.BlockNumber.Uint64(),
		GasUsed:         receipt.GasUsed,
		Confirmations:   confirmations,
		ContractAddress: receipt.ContractAddress,
		Events:          s.events.Decode(receipt.Logs),
	}, nil
}

func (s *Session) sendSigned(ctx context.Context, to *common.Address, data []byte, gas uint64, fee models.FeeParams) (common.Hash, error) {
	nonce, err := s.client.PendingNonceAt(ctx, s.sender)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: fee.MaxPriorityFeePerGas,
		GasFeeCap: fee.MaxFeePerGas,
		Gas:       gas,
		To:        to,
		Data:      data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return signed.Hash(), nil
}

// sendImpersonated relies on the node holding the sender unlocked.
func (s *Session) sendImpersonated(ctx context.Context, to *common.Address, data []byte, gas uint64, fee models.FeeParams) (common.Hash, error) {
	args := map[string]any{
		"from":                 s.sender,
		"data":                 hexutil.Bytes(data),
		"gas":                  hexutil.Uint64(gas),
		"maxFeePerGas":         (*hexutil.Big)(fee.MaxFeePerGas),
		"maxPriorityFeePerGas": (*hexutil.Big)(fee.MaxPriorityFeePerGas),
	}
	if to != nil {
		args["to"] = *to
	}
	var hash common.Hash
	if err := s.client.Client().CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction as %s: %w", s.sender.Hex(), err)
	}
	return hash, nil
}

func (s *Session) awaitConfirmations(ctx context.Context, block uint64) (uint64, error) {
	for {
		head, err := s.client.BlockNumber(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to read block number: %w", err)
		}
		depth := uint64(0)
		if head >= block {
			depth = head - block + 1
		}
		if depth >= s.confirmations {
			return depth, nil
		}
		select {
		case <-ctx.Done():
			return depth, ctx.Err()
		case <-time.After(confirmationPoll):
		}
	}
}

func selectorSet(raw [][4]byte) domain.SelectorSet {
	return domain.NewSelectorSet(lo.Map(raw, func(b [4]byte, _ int) domain.Selector {
		return domain.Selector(b)
	})...)
}

// decodeRevert maps revert data on an RPC error to the contract's custom
// error. Initializer errors unwrap to their protocolinit sentinel.
func decodeRevert(target common.Address, err error) error {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return err
	}
	data, ok := revertData(dataErr.ErrorData())
	if !ok {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("%s reverted without reason: %w", target.Hex(), err)
	}
	name, _ := bindings.DecodeRevert(data)
	if sentinel, ok := protocolinit.ErrorByName(name); ok {
		return fmt.Errorf("%s reverted: %w", target.Hex(), sentinel)
	}
	return &protocolinit.RevertError{Target: target.Hex(), Reason: name}
}

func revertData(v any) ([]byte, bool) {
	switch data := v.(type) {
	case string:
		raw, err := hexutil.Decode(data)
		return raw, err == nil
	case []byte:
		return data, true
	default:
		return nil, false
	}
}

var _ usecase.Session = (*Session)(nil)
