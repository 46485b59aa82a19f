package snapshots

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
)

const addressBook = `{
  "chainId": 11155111,
  "network": "sepolia",
  "env": "staging",
  "protocolVersion": "2.3.0",
  "contracts": [
    {"name": "ProtocolDiamond", "address": "0x00000000000000000000000000000000000d1a30", "args": [], "interfaceId": ""},
    {"name": "OfferHandlerFacet", "address": "0x0000000000000000000000000000000000000f01", "args": ["0x0000000000000000000000000000000000000001", 3], "interfaceId": "0xdeadbeef"}
  ]
}
`

var sepolia = models.SnapshotKey{ChainID: 11155111, Network: "sepolia", Env: "staging"}

func TestFileRepository_Load(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileRepository(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "11155111-sepolia-staging.json"), []byte(addressBook), 0644))

	snapshot, err := repo.Load(context.Background(), sepolia)
	require.NoError(t, err)
	assert.Equal(t, "2.3.0", snapshot.ProtocolVersion)
	require.Len(t, snapshot.Contracts, 2)

	offer, err := snapshot.Get("OfferHandlerFacet")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xf01"), offer.Address)
	assert.Equal(t, domain.InterfaceID(domain.MustParseSelector("0xdeadbeef")), offer.InterfaceID)
	assert.Len(t, offer.Args, 2)

	diamond, err := snapshot.Get(models.DiamondContract)
	require.NoError(t, err)
	assert.Equal(t, domain.EmptyInterfaceID, diamond.InterfaceID)
}

func TestFileRepository_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileRepository(filepath.Join(dir, "addresses"))
	ctx := context.Background()

	snapshot := &models.RegistrySnapshot{
		ChainID:         31337,
		Network:         "anvil",
		Env:             "test",
		ProtocolVersion: "2.4.0",
		Contracts: []models.ContractEntry{
			{Name: "OfferHandlerFacet", Address: common.HexToAddress("0xf01"), Args: []any{}, InterfaceID: domain.InterfaceID{0xde, 0xad, 0xbe, 0xef}},
		},
	}
	require.NoError(t, repo.Save(ctx, snapshot))
	assert.FileExists(t, filepath.Join(dir, "addresses", "31337-anvil-test.json"))
	assert.NoFileExists(t, filepath.Join(dir, "addresses", "31337-anvil-test.json.tmp"))

	loaded, err := repo.Load(ctx, snapshot.Key())
	require.NoError(t, err)
	assert.Equal(t, snapshot.ProtocolVersion, loaded.ProtocolVersion)
	assert.Equal(t, snapshot.Contracts[0].InterfaceID, loaded.Contracts[0].InterfaceID)
	assert.Equal(t, snapshot.Contracts[0].Address, loaded.Contracts[0].Address)
}

func TestFileRepository_Missing(t *testing.T) {
	_, err := NewFileRepository(t.TempDir()).Load(context.Background(), sepolia)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileRepository_RejectsDuplicates(t *testing.T) {
	repo := NewFileRepository(t.TempDir())
	snapshot := &models.RegistrySnapshot{
		ChainID: 1, Network: "mainnet", Env: "prod",
		Contracts: []models.ContractEntry{{Name: "A"}, {Name: "A"}},
	}
	assert.ErrorContains(t, repo.Save(context.Background(), snapshot), "duplicate")
}

func TestFileRepository_KeyMismatch(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileRepository(dir)
	// a sepolia book copied under a mainnet name
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1-mainnet-staging.json"), []byte(addressBook), 0644))

	_, err := repo.Load(context.Background(), models.SnapshotKey{ChainID: 1, Network: "mainnet", Env: "staging"})
	assert.ErrorIs(t, err, domain.ErrNetworkMismatch)
}
