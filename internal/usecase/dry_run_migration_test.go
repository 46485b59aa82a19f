package usecase_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

type fakeForks struct {
	startErr    error
	started     *domain.AnvilInstance
	stopped     bool
	balances    map[common.Address]*big.Int
	impersonate []common.Address
}

func (f *fakeForks) Start(_ context.Context, instance *domain.AnvilInstance) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = instance
	return nil
}

func (f *fakeForks) Stop(context.Context, *domain.AnvilInstance) error {
	f.stopped = true
	return nil
}

func (f *fakeForks) SetBalance(_ context.Context, _ *domain.AnvilInstance, account common.Address, balance *big.Int) error {
	if f.balances == nil {
		f.balances = make(map[common.Address]*big.Int)
	}
	f.balances[account] = balance
	return nil
}

func (f *fakeForks) Impersonate(_ context.Context, _ *domain.AnvilInstance, account common.Address) error {
	f.impersonate = append(f.impersonate, account)
	return nil
}

func TestDryRunMigration(t *testing.T) {
	e := newEnv(t)
	e.v240Plan()
	forks := &fakeForks{}
	uc := usecase.NewDryRunMigration(e.cfg, e.migrate(), e.snapshots, e.dialer, forks, e.log, usecase.NopProgress{})

	result, err := uc.Run(context.Background(), usecase.DryRunParams{Version: "2.4.0"})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, "2.4.0", result.Snapshot.ProtocolVersion)

	require.NotNil(t, forks.started)
	assert.Equal(t, "dryrun-anvil", forks.started.Name)
	assert.Equal(t, e.cfg.Network.RPCURL, forks.started.ForkURL)
	assert.Equal(t, "31337", forks.started.ChainID)
	assert.True(t, strings.HasPrefix(forks.started.PidFile, e.cfg.DataDir))
	assert.True(t, forks.stopped)
	assert.Equal(t, []common.Address{e.operator}, forks.impersonate)
	assert.Equal(t, int64(1e18), forks.balances[e.operator].Int64())

	// the real address book is untouched
	assert.Zero(t, e.snapshots.saves)
	assert.Equal(t, "2.3.0", e.snapshots.current(t).ProtocolVersion)
}

func TestDryRunMigration_ForkFailure(t *testing.T) {
	e := newEnv(t)
	e.v240Plan()
	forks := &fakeForks{startErr: errors.New("anvil not installed")}
	uc := usecase.NewDryRunMigration(e.cfg, e.migrate(), e.snapshots, e.dialer, forks, e.log, usecase.NopProgress{})

	_, err := uc.Run(context.Background(), usecase.DryRunParams{Version: "2.4.0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anvil not installed")
	assert.False(t, forks.stopped)
	assert.Empty(t, e.diamond.Calls())
	assert.Empty(t, e.source.calls)
}

func TestDryRunMigration_StopsForkOnFailure(t *testing.T) {
	e := newEnv(t)
	e.v240Plan()
	e.diamond.SeedVersion("2.2.1")
	forks := &fakeForks{}
	uc := usecase.NewDryRunMigration(e.cfg, e.migrate(), e.snapshots, e.dialer, forks, e.log, usecase.NopProgress{})

	_, err := uc.Run(context.Background(), usecase.DryRunParams{Version: "2.4.0"})
	require.Error(t, err)
	requireStage(t, err, domain.StagePreflight)
	assert.True(t, forks.stopped)
}
