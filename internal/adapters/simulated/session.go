package simulated

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
	"github.com/trebuchet-org/facet-cli/internal/domain/protocolinit"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

// Session is one operator's view of a simulated diamond.
type Session struct {
	diamond *Diamond
	sender  common.Address
}

// NewSession opens a session for sender.
func NewSession(d *Diamond, sender common.Address) *Session {
	return &Session{diamond: d, sender: sender}
}

func (s *Session) ChainID() uint64 {
	return s.diamond.chainID
}

func (s *Session) Sender() common.Address {
	return s.sender
}

func (s *Session) Close() {}

func (s *Session) Balance(_ context.Context, account common.Address) (*big.Int, error) {
	s.diamond.mu.Lock()
	defer s.diamond.mu.Unlock()
	if b, ok := s.diamond.balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (s *Session) SuggestFees(context.Context) (models.FeeParams, error) {
	return models.FeeParams{MaxPriorityFeePerGas: big.NewInt(1), MaxFeePerGas: big.NewInt(2)}, nil
}

func (s *Session) ProtocolVersion(context.Context) (protocolinit.Version, error) {
	s.diamond.mu.Lock()
	defer s.diamond.mu.Unlock()
	return s.diamond.machine.Version(), nil
}

func (s *Session) Facets(context.Context) ([]models.LoupeFacet, error) {
	s.diamond.mu.Lock()
	defer s.diamond.mu.Unlock()
	return s.diamond.facets(), nil
}

func (s *Session) FacetAddress(_ context.Context, selector domain.Selector) (common.Address, error) {
	s.diamond.mu.Lock()
	defer s.diamond.mu.Unlock()
	return s.diamond.routing[selector], nil
}

func (s *Session) SupportsInterface(_ context.Context, id domain.InterfaceID) (bool, error) {
	s.diamond.mu.Lock()
	defer s.diamond.mu.Unlock()
	return s.diamond.machine.State().Interfaces[id], nil
}

func (s *Session) SellerExists(_ context.Context, id *big.Int) (bool, error) {
	s.diamond.mu.Lock()
	defer s.diamond.mu.Unlock()
	return s.diamond.sellerExists(id), nil
}

func (s *Session) SubmitCut(_ context.Context, req models.CutRequest) (*models.Receipt, error) {
	s.diamond.mu.Lock()
	defer s.diamond.mu.Unlock()
	return s.diamond.cut(s.sender, req)
}

func (s *Session) HasRole(_ context.Context, account common.Address, role domain.Role) (bool, error) {
	s.diamond.mu.Lock()
	defer s.diamond.mu.Unlock()
	return s.diamond.hasRole(role, account), nil
}

func (s *Session) GrantRole(_ context.Context, account common.Address, role domain.Role) (*models.Receipt, error) {
	s.diamond.mu.Lock()
	defer s.diamond.mu.Unlock()
	return s.diamond.setRole(s.sender, account, role, true)
}

func (s *Session) RevokeRole(_ context.Context, account common.Address, role domain.Role) (*models.Receipt, error) {
	s.diamond.mu.Lock()
	defer s.diamond.mu.Unlock()
	return s.diamond.setRole(s.sender, account, role, false)
}

func (s *Session) Pause(_ context.Context, regions []domain.PauseRegion) (*models.Receipt, error) {
	s.diamond.mu.Lock()
	defer s.diamond.mu.Unlock()
	return s.diamond.setPaused(s.sender, regions, true)
}

func (s *Session) Unpause(_ context.Context, regions []domain.PauseRegion) (*models.Receipt, error) {
	s.diamond.mu.Lock()
	defer s.diamond.mu.Unlock()
	return s.diamond.setPaused(s.sender, regions, false)
}

func (s *Session) Deploy(_ context.Context, module *models.CompiledModule) (*models.Receipt, error) {
	s.diamond.mu.Lock()
	defer s.diamond.mu.Unlock()
	return s.diamond.deploy(s.sender, module)
}

func (s *Session) BackfillRoyalties(_ context.Context, batch protocolinit.RoyaltyBackfill) (*models.Receipt, error) {
	s.diamond.mu.Lock()
	defer s.diamond.mu.Unlock()
	return s.diamond.backfill(s.sender, batch)
}

// Dialer hands out sessions on one simulated diamond.
type Dialer struct {
	diamond *Diamond
}

// NewDialer creates a dialer over d.
func NewDialer(d *Diamond) *Dialer {
	return &Dialer{diamond: d}
}

// Dial opens a session. The sender is the impersonated account, else the
// owner of the private key.
func (d *Dialer) Dial(_ context.Context, params usecase.DialParams) (usecase.Session, error) {
	if params.Diamond != d.diamond.Address() {
		return nil, fmt.Errorf("no simulated diamond at %s", params.Diamond.Hex())
	}
	sender, err := senderOf(params)
	if err != nil {
		return nil, err
	}
	return NewSession(d.diamond, sender), nil
}

func senderOf(params usecase.DialParams) (common.Address, error) {
	if params.Impersonate != nil {
		return *params.Impersonate, nil
	}
	if params.PrivateKey == "" {
		return common.Address{}, fmt.Errorf("no sender key configured")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(params.PrivateKey, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid private key: %w", err)
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

var (
	_ usecase.Session       = (*Session)(nil)
	_ usecase.SessionDialer = (*Dialer)(nil)
)
