package protocolinit

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// CallContext describes how the initializer was reached. Self is the
// executing address; Implementation is the initializer facet's own address.
// They are equal only when the facet is called directly, bypassing the proxy.
type CallContext struct {
	Self           common.Address
	Implementation common.Address
}

// Direct reports whether the call bypassed the proxy.
func (c CallContext) Direct() bool {
	return c.Self == c.Implementation
}

// FacetInitializer runs one (module, calldata) pair in the proxy's storage
// context. The callee may read and write the protocol state passed to it.
type FacetInitializer func(target common.Address, calldata []byte, state *State) error

// ProtocolInitialized is emitted on every successful initialize.
type ProtocolInitialized struct {
	Version Version
}

// StateMachine is the versioned initializer over protocol storage. Every call
// works on a copy of the state and commits only on success.
type StateMachine struct {
	state      State
	migrations *Registry
	events     []ProtocolInitialized
}

// NewStateMachine wraps existing storage.
func NewStateMachine(state State, migrations *Registry) *StateMachine {
	return &StateMachine{state: state.Clone(), migrations: migrations}
}

// State returns a copy of the committed storage.
func (m *StateMachine) State() State {
	return m.state.Clone()
}

// Version returns the stored version.
func (m *StateMachine) Version() Version {
	return m.state.Version
}

// Events returns every ProtocolInitialized emitted so far.
func (m *StateMachine) Events() []ProtocolInitialized {
	return append([]ProtocolInitialized(nil), m.events...)
}

// Initialize applies one versioned initialization atomically.
func (m *StateMachine) Initialize(ctx CallContext, req InitializeRequest, sub FacetInitializer) error {
	if ctx.Direct() {
		return ErrDirectInitializationNotAllowed
	}
	if err := checkRequest(m.state, req); err != nil {
		return err
	}

	next := m.state.Clone()
	for i, target := range req.Addresses {
		if sub == nil {
			return fmt.Errorf("%w: no initializer for %s", ErrProtocolInitializationFailed, target.Hex())
		}
		if err := sub(target, req.Calldata[i], &next); err != nil {
			return subInitError(target, err)
		}
	}

	if req.IsUpgrade {
		if mig, ok := m.migrations.Lookup(req.Version); ok {
			if next.Version != mig.Requires {
				return fmt.Errorf("%w: stored %q, %s requires %q", ErrWrongCurrentVersion, next.Version, req.Version, mig.Requires)
			}
			if err := mig.Apply(&next, req.InitializationData); err != nil {
				return err
			}
		}
	}

	next.Initialized[req.Version] = true
	next.Version = req.Version
	for _, id := range req.InterfacesToRemove {
		delete(next.Interfaces, id)
	}
	for _, id := range req.InterfacesToAdd {
		next.Interfaces[id] = true
	}

	m.state = next
	m.events = append(m.events, ProtocolInitialized{Version: req.Version})
	return nil
}

// InitV240External applies one further 2.4.0 royalty batch. Batches overwrite,
// so a retried batch is harmless.
func (m *StateMachine) InitV240External(ctx CallContext, batch RoyaltyBackfill) error {
	if ctx.Direct() {
		return ErrDirectInitializationNotAllowed
	}
	if m.state.Version != MustVersion("2.4.0") {
		return fmt.Errorf("%w: stored %q, batch requires %q", ErrWrongCurrentVersion, m.state.Version, "2.4.0")
	}
	next := m.state.Clone()
	if err := applyRoyalties(&next, batch); err != nil {
		return err
	}
	m.state = next
	return nil
}

// Preflight runs every storage-free check the initializer performs, so a bad
// request fails before anything is sent.
func Preflight(stored Version, req InitializeRequest, migrations *Registry) error {
	state := NewState()
	state.Version = stored
	if !stored.IsZero() {
		state.Initialized[stored] = true
	}
	if err := checkRequest(state, req); err != nil {
		return err
	}
	if !req.IsUpgrade {
		return nil
	}
	mig, ok := migrations.Lookup(req.Version)
	if !ok {
		return nil
	}
	if stored != mig.Requires {
		return fmt.Errorf("%w: stored %q, %s requires %q", ErrWrongCurrentVersion, stored, req.Version, mig.Requires)
	}
	return mig.Validate(req.InitializationData)
}

func checkRequest(s State, req InitializeRequest) error {
	if req.Version.IsZero() {
		return ErrVersionMustBeSet
	}
	if len(req.Addresses) != len(req.Calldata) {
		return fmt.Errorf("%w: %d addresses, %d calldata", ErrAddressesCalldataLengthMismatch, len(req.Addresses), len(req.Calldata))
	}
	if s.Initialized[req.Version] || s.Version == req.Version {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, req.Version)
	}
	return nil
}

func subInitError(target common.Address, err error) error {
	var revert *RevertError
	if errors.As(err, &revert) && revert.Reason == "" {
		return fmt.Errorf("%w: %s", ErrProtocolInitializationFailed, target.Hex())
	}
	if err.Error() == "" {
		return fmt.Errorf("%w: %s", ErrProtocolInitializationFailed, target.Hex())
	}
	return err
}
