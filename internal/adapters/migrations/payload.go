package migrations

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/protocolinit"
	"gopkg.in/yaml.v3"
)

// number is a uint256 written as a YAML integer or a decimal/hex string.
type number string

func (n *number) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	*n = number(node.Value)
	return nil
}

func (n number) big() *big.Int {
	v, _ := parseUint256(string(n))
	return v
}

func bigs(ns []number) []*big.Int {
	return lo.Map(ns, func(n number, _ int) *big.Int { return n.big() })
}

type v220Data struct {
	MaxPremintedVouchers number `yaml:"maxPremintedVouchers" validate:"required,uint256"`
}

func (d v220Data) payload() protocolinit.Payload {
	return protocolinit.V220Payload{MaxPremintedVouchers: d.MaxPremintedVouchers.big()}
}

type sellerCreator struct {
	SellerID number `yaml:"sellerId" validate:"required,uint256"`
	Creator  string `yaml:"creator" validate:"required,eth_addr"`
}

type v230Data struct {
	MinResolutionPeriod number          `yaml:"minResolutionPeriod" validate:"required,uint256"`
	SellerCreators      []sellerCreator `yaml:"sellerCreators,omitempty" validate:"dive"`
}

func (d v230Data) payload() protocolinit.Payload {
	return protocolinit.V230Payload{
		MinResolutionPeriod: d.MinResolutionPeriod.big(),
		SellerIDs:           lo.Map(d.SellerCreators, func(s sellerCreator, _ int) *big.Int { return s.SellerID.big() }),
		SellerCreators:      lo.Map(d.SellerCreators, func(s sellerCreator, _ int) common.Address { return common.HexToAddress(s.Creator) }),
	}
}

type royaltyBucket struct {
	Percentage number   `yaml:"percentage" validate:"required,uint256"`
	Sellers    []number `yaml:"sellers,omitempty" validate:"dive,uint256"`
	Offers     []number `yaml:"offers,omitempty" validate:"dive,uint256"`
}

type v240Data struct {
	PriceDiscovery string          `yaml:"priceDiscovery" validate:"required,eth_addr"`
	Royalties      []royaltyBucket `yaml:"royalties,omitempty" validate:"dive"`
}

func (d v240Data) payload() protocolinit.Payload {
	return protocolinit.V240Payload{
		PriceDiscovery: common.HexToAddress(d.PriceDiscovery),
		Royalties: protocolinit.RoyaltyBackfill{
			Buckets: lo.Map(d.Royalties, func(b royaltyBucket, _ int) protocolinit.RoyaltyBucket {
				return protocolinit.RoyaltyBucket{
					Percentage: b.Percentage.big(),
					SellerIDs:  bigs(b.Sellers),
					OfferIDs:   bigs(b.Offers),
				}
			}),
		},
	}
}

type payloadData interface {
	payload() protocolinit.Payload
}

// payloadDecoders maps a version to a fresh decode target.
var payloadDecoders = map[string]func() payloadData{
	"2.2.0": func() payloadData { return &v220Data{} },
	"2.3.0": func() payloadData { return &v230Data{} },
	"2.4.0": func() payloadData { return &v240Data{} },
}

// decodePayload turns a plan's initializationData into the version's payload.
func decodePayload(file, version string, node *yaml.Node) (protocolinit.Payload, error) {
	newData, ok := payloadDecoders[version]
	if !ok {
		return nil, fmt.Errorf("%w: %s: version %s takes no initializationData", domain.ErrInvalidPlan, file, version)
	}
	data := newData()
	if err := node.Decode(data); err != nil {
		return nil, fmt.Errorf("%w: %s: initializationData: %v", domain.ErrInvalidPlan, file, err)
	}
	if err := validate(file, data); err != nil {
		return nil, err
	}
	return data.payload(), nil
}
