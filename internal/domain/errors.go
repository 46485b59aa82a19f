package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sahilm/fuzzy"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrModuleNotFound is returned when a facet name is not in the registry snapshot
	ErrModuleNotFound = errors.New("module not found")

	// ErrInterfaceCycle is returned when interface inheritance is not a DAG
	ErrInterfaceCycle = errors.New("interface inheritance cycle")

	// ErrMissingRole is returned when the sender lacks a required access role
	ErrMissingRole = errors.New("missing required role")

	// ErrCollisionUnresolved is returned when a selector collision cannot be resolved
	ErrCollisionUnresolved = errors.New("selector collision not resolved")

	// ErrDirtyWorkingTree is returned when local sources differ from the baseline
	ErrDirtyWorkingTree = errors.New("working tree has local modifications")

	// ErrCutFailed is returned when a diamond cut reverts or is not confirmed
	ErrCutFailed = errors.New("diamond cut failed")

	// ErrInvalidPlan is returned when a migration or upgrade plan is malformed
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrNetworkMismatch is returned when the snapshot and the RPC disagree on the chain
	ErrNetworkMismatch = errors.New("network mismatch")
)

// ModuleNotFoundError reports a facet lookup miss with close matches.
type ModuleNotFoundError struct {
	Name        string
	Suggestions []string
}

// NewModuleNotFoundError ranks candidates by fuzzy similarity to name.
func NewModuleNotFoundError(name string, candidates []string) *ModuleNotFoundError {
	var suggestions []string
	for i, m := range fuzzy.Find(name, candidates) {
		if i == 3 {
			break
		}
		suggestions = append(suggestions, m.Str)
	}
	return &ModuleNotFoundError{Name: name, Suggestions: suggestions}
}

func (e *ModuleNotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("module %q not found", e.Name)
	}
	return fmt.Sprintf("module %q not found (did you mean %s?)", e.Name, strings.Join(e.Suggestions, ", "))
}

func (e *ModuleNotFoundError) Unwrap() error {
	return ErrModuleNotFound
}

// MissingRoleError names the account and role that failed the access check.
type MissingRoleError struct {
	Account common.Address
	Role    Role
}

func (e *MissingRoleError) Error() string {
	return fmt.Sprintf("%s does not hold role %s", e.Account.Hex(), e.Role.Name())
}

func (e *MissingRoleError) Unwrap() error {
	return ErrMissingRole
}

// CollisionError carries the unresolved collision.
type CollisionError struct {
	Collision Collision
	Cause     error
}

func (e *CollisionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Collision, e.Cause)
	}
	return e.Collision.String()
}

func (e *CollisionError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrCollisionUnresolved, e.Cause}
	}
	return []error{ErrCollisionUnresolved}
}

// MigrationStage names the saga step a migration failed in.
type MigrationStage string

const (
	StagePreflight    MigrationStage = "preflight"
	StageAccess       MigrationStage = "access"
	StageWorkingTree  MigrationStage = "working-tree"
	StageDependencies MigrationStage = "dependencies"
	StagePreimage     MigrationStage = "preimage"
	StagePause        MigrationStage = "pause"
	StageMaterialize  MigrationStage = "materialize"
	StageDeploy       MigrationStage = "deploy"
	StageCut          MigrationStage = "cut"
	StageBackfill     MigrationStage = "backfill"
	StagePostcheck    MigrationStage = "postconditions"
	StageUnpause      MigrationStage = "unpause"
	StageCommit       MigrationStage = "commit"
)

// MigrationError wraps the cause of a failed migration run.
type MigrationError struct {
	Version string
	Stage   MigrationStage
	Err     error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration to %s failed during %s: %v", e.Version, e.Stage, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}
