package progress

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

func TestSpinnerSink_Stages(t *testing.T) {
	var out bytes.Buffer
	sink := newSpinnerSink(&out)
	ctx := context.Background()

	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: "access", Message: "Checking roles", Spinner: true})
	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: "access", Message: "Still checking", Spinner: true})
	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: "cut", Message: "Cutting facets", Spinner: true})
	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: "completed", Message: "Protocol at 2.4.0"})

	assert.Equal(t, []string{"access", "cut", "completed"}, sink.Stages())
	assert.False(t, sink.spinner.Active())
	assert.Contains(t, out.String(), "Protocol at 2.4.0")
}

func TestSpinnerSink_Messages(t *testing.T) {
	var out bytes.Buffer
	sink := newSpinnerSink(&out)

	sink.Info("fork ready")
	sink.Error("cut reverted")

	assert.Contains(t, out.String(), "fork ready")
	assert.Contains(t, out.String(), "cut reverted")
}
