package interactive

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/config"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

type choice struct {
	label      string
	resolution domain.Resolution
	abort      bool
}

var collisionChoices = []choice{
	{label: "Replace: route the selector to the facet being upgraded", resolution: domain.ResolutionReplace},
	{label: "Skip: leave the selector with its current owner", resolution: domain.ResolutionSkip},
	{label: "Abort", abort: true},
}

// selectFunc runs a prompt and returns the chosen index.
type selectFunc func(label string, items []string) (int, error)

// PromptResolver asks the operator how to settle each selector collision.
type PromptResolver struct {
	run selectFunc
}

// NewPromptResolver creates a resolver backed by a terminal prompt.
func NewPromptResolver() *PromptResolver {
	return &PromptResolver{run: promptSelect}
}

// Resolve shows the collision and waits for a decision. Aborting or
// cancelling the prompt fails closed.
func (r *PromptResolver) Resolve(ctx context.Context, collision domain.Collision) (domain.Resolution, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	items := make([]string, len(collisionChoices))
	for i, c := range collisionChoices {
		items[i] = c.label
	}
	label := fmt.Sprintf("%s %s", color.New(color.FgYellow, color.Bold).Sprint("Selector collision:"), collision)

	index, err := r.run(label, items)
	if err != nil {
		return 0, &domain.CollisionError{Collision: collision, Cause: fmt.Errorf("selection cancelled: %w", err)}
	}
	picked := collisionChoices[index]
	if picked.abort {
		return 0, &domain.CollisionError{Collision: collision}
	}
	return picked.resolution, nil
}

func promptSelect(label string, items []string) (int, error) {
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}
	prompt := promptui.Select{
		Label:     label,
		Items:     items,
		Templates: templates,
		Size:      len(items),
	}
	index, _, err := prompt.Run()
	return index, err
}

// FailClosedResolver is used when nobody can answer a prompt. Every
// collision is an error.
type FailClosedResolver struct{}

func (FailClosedResolver) Resolve(_ context.Context, collision domain.Collision) (domain.Resolution, error) {
	return 0, &domain.CollisionError{Collision: collision}
}

// NewConflictResolver picks the prompt or the fail-closed resolver.
func NewConflictResolver(cfg *config.RuntimeConfig) usecase.ConflictResolver {
	if cfg.NonInteractive {
		return FailClosedResolver{}
	}
	return NewPromptResolver()
}

var (
	_ usecase.ConflictResolver = (*PromptResolver)(nil)
	_ usecase.ConflictResolver = FailClosedResolver{}
)
