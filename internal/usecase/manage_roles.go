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

// RoleAction is what ManageRoles does with a role.
type RoleAction string

const (
	RoleGrant  RoleAction = "grant"
	RoleRevoke RoleAction = "revoke"
	RoleCheck  RoleAction = "check"
)

// ManageRoles grants, revokes and checks access controller roles. Grants
// and revocations require ADMIN.
type ManageRoles struct {
	cfg       *config.RuntimeConfig
	snapshots SnapshotRepository
	dialer    SessionDialer
	log       *slog.Logger
	progress  ProgressSink
}

// NewManageRoles creates a new ManageRoles use case
func NewManageRoles(
	cfg *config.RuntimeConfig,
	snapshots SnapshotRepository,
	dialer SessionDialer,
	log *slog.Logger,
	progress ProgressSink,
) *ManageRoles {
	return &ManageRoles{
		cfg:       cfg,
		snapshots: snapshots,
		dialer:    dialer,
		log:       log.With("component", "roles"),
		progress:  progress,
	}
}

// ManageRolesParams contains parameters for a role operation
type ManageRolesParams struct {
	Action  RoleAction
	Account common.Address
	Roles   []domain.Role
}

// RoleStatus is the outcome for one role.
type RoleStatus struct {
	Role    domain.Role
	Held    bool
	Changed bool
	Receipt *models.Receipt
}

// ManageRolesResult contains the result of a role operation
type ManageRolesResult struct {
	Action  RoleAction
	Account common.Address
	Sender  common.Address
	Roles   []RoleStatus
}

// Run applies the action to every role in params.
func (uc *ManageRoles) Run(ctx context.Context, params ManageRolesParams) (*ManageRolesResult, error) {
	if len(params.Roles) == 0 {
		return nil, fmt.Errorf("no roles given")
	}
	_, session, err := openSession(ctx, uc.cfg, uc.snapshots, uc.dialer, "", nil)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	result := &ManageRolesResult{Action: params.Action, Account: params.Account, Sender: session.Sender()}
	switch params.Action {
	case RoleCheck:
	case RoleGrant, RoleRevoke:
		if err := requireRoles(ctx, session, session.Sender(), domain.RoleAdmin); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown role action %q", params.Action)
	}

	for _, role := range params.Roles {
		held, err := session.HasRole(ctx, params.Account, role)
		if err != nil {
			return result, fmt.Errorf("failed to check role %s: %w", role, err)
		}
		status := RoleStatus{Role: role, Held: held}

		switch {
		case params.Action == RoleGrant && !held:
			uc.progress.OnProgress(ctx, ProgressEvent{Stage: "grant", Message: fmt.Sprintf("Granting %s", role), Spinner: true})
			if status.Receipt, err = session.GrantRole(ctx, params.Account, role); err != nil {
				return result, fmt.Errorf("failed to grant %s: %w", role, err)
			}
			status.Held, status.Changed = true, true
		case params.Action == RoleRevoke && held:
			uc.progress.OnProgress(ctx, ProgressEvent{Stage: "revoke", Message: fmt.Sprintf("Revoking %s", role), Spinner: true})
			if status.Receipt, err = session.RevokeRole(ctx, params.Account, role); err != nil {
				return result, fmt.Errorf("failed to revoke %s: %w", role, err)
			}
			status.Held, status.Changed = false, true
		}
		if status.Changed {
			uc.log.Info("role updated", "action", params.Action, "role", role, "account", params.Account.Hex())
		}
		result.Roles = append(result.Roles, status)
	}
	uc.progress.OnProgress(ctx, ProgressEvent{Stage: "completed"})
	return result, nil
}
