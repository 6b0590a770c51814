package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectingSink records every increment and asserts none is negative.
type collectingSink struct {
	t          *testing.T
	increments []float64
	total      float64
}

func (s *collectingSink) report(increment float64, message string) {
	assert.GreaterOrEqual(s.t, increment, 0.0, "increments must never be negative")
	s.increments = append(s.increments, increment)
	s.total += increment
}

func runAllStages(a *Aggregator) {
	for _, stage := range []Stage{StageScanning, StageAnalyzing, StageGenerating, StageWriting, StageCompleted} {
		a.StartStage(stage)
		a.UpdateStageProgress(30, "step")
		a.UpdateStageProgress(75, "step")
		a.CompleteStage()
	}
}

// The aggregate is non-decreasing and the increments over a full run
// sum to exactly 100.
func TestAggregator_MonotonicAndSumsTo100(t *testing.T) {
	sink := &collectingSink{t: t}
	a := NewAggregator(context.Background(), sink.report)
	a.Reset()

	last := 0.0
	check := func() {
		current := a.Aggregate()
		assert.GreaterOrEqual(t, current, last-1e-9)
		last = current
	}

	for _, stage := range []Stage{StageScanning, StageAnalyzing, StageGenerating, StageWriting, StageCompleted} {
		a.StartStage(stage)
		a.UpdateStageProgress(50, "halfway")
		check()
		a.CompleteStage()
		check()
	}

	assert.InDelta(t, 100.0, a.Aggregate(), 1e-9)
	assert.InDelta(t, 100.0, sink.total, 1e-9)
}

// Out-of-order percentages within a stage never produce a negative
// tick: the reported aggregate holds its high-water mark.
func TestAggregator_BackwardsStageProgress(t *testing.T) {
	sink := &collectingSink{t: t}
	a := NewAggregator(context.Background(), sink.report)
	a.Reset()

	a.StartStage(StageScanning)
	a.UpdateStageProgress(80, "")
	a.UpdateStageProgress(40, "")
	a.UpdateStageProgress(90, "")
	a.CompleteStage()

	runAllStages(a)
	assert.InDelta(t, 100.0, sink.total, 1e-9)
}

func TestAggregator_ClampsPercent(t *testing.T) {
	a := NewAggregator(context.Background(), nil)
	a.Reset()

	a.StartStage(StageScanning)
	a.UpdateStageProgress(250, "")
	// scanning weight is 20 of 100 total.
	assert.InDelta(t, 20.0, a.Aggregate(), 1e-9)

	a.UpdateStageProgress(-50, "")
	assert.InDelta(t, 0.0, a.Aggregate(), 1e-9)
}

func TestAggregator_CompletedStageHasNoWeight(t *testing.T) {
	a := NewAggregator(context.Background(), nil)
	a.Reset()

	a.StartStage(StageCompleted)
	a.CompleteStage()
	assert.InDelta(t, 0.0, a.Aggregate(), 1e-9)
}

func TestAggregator_UpdateWithoutStageIsNoop(t *testing.T) {
	sink := &collectingSink{t: t}
	a := NewAggregator(context.Background(), sink.report)
	a.Reset()

	a.UpdateStageProgress(50, "")
	a.CompleteStage()

	assert.Empty(t, sink.increments)
	assert.InDelta(t, 0.0, a.Aggregate(), 1e-9)
}

func TestAggregator_Reset(t *testing.T) {
	a := NewAggregator(context.Background(), nil)
	a.Reset()
	runAllStages(a)
	require.InDelta(t, 100.0, a.Aggregate(), 1e-9)

	a.Reset()
	assert.InDelta(t, 0.0, a.Aggregate(), 1e-9)
	assert.Equal(t, Stage(""), a.CurrentStage())
}

func TestAggregator_IsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := NewAggregator(ctx, nil)

	assert.False(t, a.IsCancelled())
	cancel()
	assert.True(t, a.IsCancelled())
}

func TestAggregator_NilContextNeverCancelled(t *testing.T) {
	a := NewAggregator(nil, nil)
	assert.False(t, a.IsCancelled())
}

func TestAggregator_CurrentStage(t *testing.T) {
	a := NewAggregator(context.Background(), nil)
	a.Reset()

	a.StartStage(StageScanning)
	assert.Equal(t, StageScanning, a.CurrentStage())

	a.StartStage(StageAnalyzing)
	assert.Equal(t, StageAnalyzing, a.CurrentStage())
}
