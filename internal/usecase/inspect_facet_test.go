package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

func TestInspectFacet(t *testing.T) {
	e := newEnv(t)
	uc := usecase.NewInspectFacet(e.cfg, fakeArtifacts{set: e.modules.target()}, e.snapshots)

	result, err := uc.Run(context.Background(), usecase.InspectParams{Name: "OfferHandlerFacet"})
	require.NoError(t, err)

	assert.Equal(t, "IOfferHandler", result.Interface)
	assert.Equal(t, interfaceID(t, e.modules.target(), "OfferHandlerFacet"), result.InterfaceID)
	assert.Equal(t, "initialize()", result.Initializer)
	assert.Equal(t, []usecase.SelectorInfo{
		{Selector: sig("createOffer(uint256)"), Signature: "createOffer(uint256)"},
		{Selector: sig("extendOffer(uint256)"), Signature: "extendOffer(uint256)"},
	}, result.Selectors)
	require.NotNil(t, result.Recorded)
	assert.Equal(t, offerAddr, result.Recorded.Address)
}

func TestInspectFacet_Unrecorded(t *testing.T) {
	e := newEnv(t)
	uc := usecase.NewInspectFacet(e.cfg, fakeArtifacts{set: e.modules.target()}, e.snapshots)

	result, err := uc.Run(context.Background(), usecase.InspectParams{Name: "OfferExtrasFacet"})
	require.NoError(t, err)
	assert.Nil(t, result.Recorded)
	assert.Equal(t, domain.EmptyInterfaceID, result.InterfaceID)
}

func TestInspectFacet_Unknown(t *testing.T) {
	e := newEnv(t)
	uc := usecase.NewInspectFacet(e.cfg, fakeArtifacts{set: e.modules.target()}, e.snapshots)

	_, err := uc.Run(context.Background(), usecase.InspectParams{Name: "OfferHandler"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModuleNotFound)
	var notFound *domain.ModuleNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, notFound.Suggestions, "OfferHandlerFacet")
}
