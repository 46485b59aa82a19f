package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
)

// deployedFacet is a compiled facet and the address it was deployed at.
type deployedFacet struct {
	spec    models.FacetSpec
	module  *models.CompiledModule
	address common.Address
}

// reconcilePlan is the outcome of diffing every facet against live routing.
type reconcilePlan struct {
	changes  []models.FacetChange
	cuts     []models.FacetCut
	orphaned []models.OrphanedSelector
}

// reconciler turns deployed facets into cut entries. It reads the live
// routing once per plan, immediately before the cuts are built.
type reconciler struct {
	store    RegistryStore
	resolver ConflictResolver
	snapshot *models.RegistrySnapshot
	log      *slog.Logger
}

func (r *reconciler) plan(ctx context.Context, facets []deployedFacet, removals []string) (*reconcilePlan, error) {
	live, err := r.store.Facets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read live facets: %w", err)
	}
	routing := models.NewRoutingTable(live)

	out := &reconcilePlan{}
	skips := make([]domain.SelectorSet, len(facets))
	removing := domain.SelectorSet{}

	for i, f := range facets {
		change := models.FacetChange{Name: f.spec.Name, NewAddress: f.address}
		var old domain.SelectorSet
		if entry, err := r.snapshot.Get(f.spec.Name); err == nil {
			change.OldAddress = entry.Address
			change.OldInterfaceID = entry.InterfaceID
			old = models.SelectorsAt(live, entry.Address)
		}
		skip, err := domain.ParseSelectorSet(f.spec.SkipSelectors)
		if err != nil {
			return nil, fmt.Errorf("%w: %s skipSelectors: %v", domain.ErrInvalidPlan, f.spec.Name, err)
		}
		change.Diff = domain.Diff(old, f.module.Selectors(), skip)
		removing = removing.Union(change.Diff.ToRemove)
		skips[i] = skip
		out.changes = append(out.changes, change)
	}

	var removed []models.FacetChange
	for _, name := range removals {
		entry, err := r.snapshot.Get(name)
		if err != nil {
			return nil, fmt.Errorf("cannot remove facet: %w", err)
		}
		sels := models.SelectorsAt(live, entry.Address)
		removing = removing.Union(sels)
		removed = append(removed, models.FacetChange{
			Name:           name,
			OldAddress:     entry.Address,
			OldInterfaceID: entry.InterfaceID,
			Diff:           domain.FacetDiff{ToRemove: sels},
			Removed:        true,
		})
	}

	// Resolve collisions with live routing first. A selector taken from a
	// facet that is upgraded in the same plan leaves that facet's replace set.
	added := make(map[domain.Selector]string)
	for i := range out.changes {
		change := &out.changes[i]
		for _, sel := range change.Diff.ToAdd.Slice() {
			if other, ok := added[sel]; ok {
				return nil, &domain.CollisionError{Collision: domain.Collision{Selector: sel, Facet: change.Name, OwnerName: other}}
			}
			owner, routed := routing[sel]
			if !routed || removing.Contains(sel) {
				continue
			}
			c := domain.Collision{Selector: sel, Facet: change.Name, Owner: owner, OwnerName: r.nameOf(owner)}
			res, err := r.resolver.Resolve(ctx, c)
			if err != nil {
				return nil, &domain.CollisionError{Collision: c, Cause: err}
			}
			r.log.Info("selector collision resolved", "selector", sel, "facet", change.Name, "owner", c.OwnerName, "resolution", res)
			change.Diff, skips[i] = change.Diff.Resolve(c, res, skips[i])
			if res != domain.ResolutionReplace {
				continue
			}
			out.orphaned = append(out.orphaned, models.OrphanedSelector{
				Selector: sel,
				From:     c.OwnerName,
				FromAddr: owner,
				TakenBy:  change.Name,
			})
			for j := range out.changes {
				if j != i && out.changes[j].Diff.ToReplace.Contains(sel) {
					out.changes[j].Diff.ToReplace = out.changes[j].Diff.ToReplace.Remove(sel)
					skips[j] = skips[j].Add(sel)
				}
			}
		}
		for _, sel := range change.Diff.ToAdd.Slice() {
			added[sel] = change.Name
		}
	}

	// Every selector ends up with exactly one facet of the plan.
	claimed := make(map[domain.Selector]string)
	for i := range out.changes {
		change := &out.changes[i]
		d := change.Diff
		for _, sel := range d.ToAdd.Union(d.ToReplace).Slice() {
			if other, ok := claimed[sel]; ok {
				return nil, &domain.CollisionError{Collision: domain.Collision{Selector: sel, Facet: change.Name, OwnerName: other}}
			}
			claimed[sel] = change.Name
		}
		change.Skipped = skips[i]

		out.cuts = append(out.cuts,
			models.FacetCut{FacetAddress: change.NewAddress, Action: domain.CutAdd, Selectors: d.ToAdd},
			models.FacetCut{FacetAddress: change.NewAddress, Action: domain.CutReplace, Selectors: d.ToReplace},
			models.FacetCut{Action: domain.CutRemove, Selectors: d.ToRemove},
		)
	}

	for _, change := range removed {
		out.cuts = append(out.cuts, models.FacetCut{Action: domain.CutRemove, Selectors: change.Diff.ToRemove})
		out.changes = append(out.changes, change)
	}
	return out, nil
}

// nameOf maps a facet address back to its address book name.
func (r *reconciler) nameOf(addr common.Address) string {
	if entry, ok := r.snapshot.GetByAddress(addr); ok {
		return entry.Name
	}
	return ""
}

// interfaceChanges lists the ids to drop and to register. Unchanged ids are
// left alone.
func interfaceChanges(changes []models.FacetChange) (toRemove, toAdd []domain.InterfaceID) {
	for _, c := range changes {
		if c.OldInterfaceID == c.NewInterfaceID && !c.Removed {
			continue
		}
		if !c.OldInterfaceID.IsEmpty() {
			toRemove = append(toRemove, c.OldInterfaceID)
		}
		if !c.Removed && !c.NewInterfaceID.IsEmpty() {
			toAdd = append(toAdd, c.NewInterfaceID)
		}
	}
	return lo.Uniq(toRemove), lo.Uniq(toAdd)
}

// submitCuts sends the remove cut first, then the add/replace cut carrying
// the initializer. The second cut is sent even without entries when an
// initializer is bundled.
func submitCuts(ctx context.Context, store RegistryStore, fees FeeEstimator, cuts []models.FacetCut, initTarget *common.Address, initCalldata []byte) ([]*models.Receipt, error) {
	addReplace, remove := models.SplitCuts(cuts)
	if len(addReplace) == 0 && len(remove) == 0 && initTarget == nil {
		return nil, nil
	}

	fee, err := fees.SuggestFees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate fees: %w", err)
	}

	var receipts []*models.Receipt
	if len(remove) > 0 {
		receipt, err := store.SubmitCut(ctx, models.CutRequest{Cuts: remove, Fee: fee})
		if err != nil {
			return receipts, fmt.Errorf("%w: remove cut: %w", domain.ErrCutFailed, err)
		}
		receipts = append(receipts, receipt)
	}
	if len(addReplace) > 0 || initTarget != nil {
		receipt, err := store.SubmitCut(ctx, models.CutRequest{
			Cuts:         addReplace,
			InitTarget:   initTarget,
			InitCalldata: initCalldata,
			Fee:          fee,
		})
		if err != nil {
			return receipts, fmt.Errorf("%w: add/replace cut: %w", domain.ErrCutFailed, err)
		}
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}

// checkPostconditions verifies routing facts after the cut. Mismatches are
// logged and reported, never returned as errors.
func checkPostconditions(ctx context.Context, store RegistryStore, pc models.Postconditions, log *slog.Logger) ([]models.PostconditionResult, error) {
	var results []models.PostconditionResult
	check := func(values []string, expected string) error {
		for _, v := range values {
			sel, err := domain.ParseSelector(v)
			if err != nil {
				return fmt.Errorf("%w: postcondition %q: %v", domain.ErrInvalidPlan, v, err)
			}
			addr, err := store.FacetAddress(ctx, sel)
			if err != nil {
				return fmt.Errorf("failed to read route of %s: %w", sel, err)
			}
			routed := addr != (common.Address{})
			ok := routed == (expected == "present")
			if !ok {
				log.Warn("postcondition failed", "selector", sel, "expected", expected, "facet", addr.Hex())
			}
			results = append(results, models.PostconditionResult{Selector: sel, Expected: expected, Actual: addr, OK: ok})
		}
		return nil
	}
	if err := check(pc.Absent, "absent"); err != nil {
		return results, err
	}
	if err := check(pc.Present, "present"); err != nil {
		return results, err
	}
	return results, nil
}

// requireRoles fails with a MissingRoleError for the first role the account
// lacks.
func requireRoles(ctx context.Context, access AccessRegistry, account common.Address, roles ...domain.Role) error {
	for _, role := range roles {
		ok, err := access.HasRole(ctx, account, role)
		if err != nil {
			return fmt.Errorf("failed to check role %s: %w", role, err)
		}
		if !ok {
			return &domain.MissingRoleError{Account: account, Role: role}
		}
	}
	return nil
}

// applyChanges writes the new facet records into the snapshot and drops the
// records of facets whose every selector was taken. Facets upgraded by the
// same plan keep their new record.
func applyChanges(ctx context.Context, store RegistryStore, snapshot *models.RegistrySnapshot, changes []models.FacetChange, orphaned []models.OrphanedSelector, log *slog.Logger) error {
	kept := make(map[string]bool)
	for _, c := range changes {
		if c.Removed {
			snapshot.Remove(c.Name)
			continue
		}
		kept[c.Name] = true
		snapshot.Upsert(models.ContractEntry{
			Name:        c.Name,
			Address:     c.NewAddress,
			Args:        []any{},
			InterfaceID: c.NewInterfaceID,
		})
	}
	if len(orphaned) == 0 {
		return nil
	}

	live, err := store.Facets(ctx)
	if err != nil {
		return fmt.Errorf("failed to read live facets: %w", err)
	}
	for _, o := range lo.UniqBy(orphaned, func(o models.OrphanedSelector) common.Address { return o.FromAddr }) {
		if o.From == "" || kept[o.From] || !models.SelectorsAt(live, o.FromAddr).IsEmpty() {
			continue
		}
		if snapshot.Remove(o.From) {
			log.Info("dropped facet record with no routed selectors", "facet", o.From, "address", o.FromAddr.Hex())
		}
	}
	return nil
}
