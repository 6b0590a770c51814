// Package progress tracks stage-weighted completion for a generation
// run. One Aggregator is constructed per run and passed by reference
// through the pipeline, so independent runs (and tests) never share
// state.
package progress

import (
	"context"
	"sync"
)

// Stage identifies a pipeline stage.
type Stage string

// Pipeline stages in their fixed declared order.
const (
	StageScanning   Stage = "scanning"
	StageAnalyzing  Stage = "analyzing"
	StageGenerating Stage = "generating"
	StageWriting    Stage = "writing"
	StageCompleted  Stage = "completed"
)

// stageWeights are the fixed per-stage contributions to the aggregate.
// Weights need not sum to 100; the aggregate is renormalized. The
// terminal completed stage carries weight zero so 100% is visibly
// reached without it contributing.
var stageWeights = []struct {
	stage  Stage
	weight int
}{
	{StageScanning, 20},
	{StageAnalyzing, 20},
	{StageGenerating, 50},
	{StageWriting, 10},
	{StageCompleted, 0},
}

// ReportFunc receives delta-increment ticks: only non-negative
// increments, summing to 100 over a full run.
type ReportFunc func(increment float64, message string)

// Aggregator combines per-stage percentages into a monotonically
// non-decreasing aggregate and exposes the caller's cancellation
// signal to long-running stages. It does not enforce stage ordering;
// it trusts callers to start the stage they are entering.
type Aggregator struct {
	mu           sync.Mutex
	ctx          context.Context
	report       ReportFunc
	current      Stage
	percents     map[Stage]float64
	lastReported float64
}

// NewAggregator creates an aggregator bound to the caller's context
// for cancellation. report may be nil when no sink is attached.
func NewAggregator(ctx context.Context, report ReportFunc) *Aggregator {
	if ctx == nil {
		ctx = context.Background()
	}

	return &Aggregator{
		ctx:      ctx,
		report:   report,
		percents: make(map[Stage]float64),
	}
}

// Reset returns all stage percentages and the aggregate to zero. Must
// be called once per top-level run before the first StartStage.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.current = ""
	a.percents = make(map[Stage]float64)
	a.lastReported = 0
}

// StartStage sets the current stage, resets its recorded percentage,
// and emits a progress tick.
func (a *Aggregator) StartStage(stage Stage) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.current = stage
	a.percents[stage] = 0
	a.emitLocked(string(stage))
}

// UpdateStageProgress records a clamped percentage for the current
// stage, recomputes the aggregate, and emits the delta since the last
// reported aggregate so a progress bar only ever sees non-negative
// increments.
func (a *Aggregator) UpdateStageProgress(percent float64, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current == "" {
		return
	}

	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}

	a.percents[a.current] = percent
	a.emitLocked(message)
}

// CompleteStage forces the current stage to 100% and re-emits.
func (a *Aggregator) CompleteStage() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current == "" {
		return
	}

	a.percents[a.current] = 100
	a.emitLocked(string(a.current))
}

// CurrentStage returns the stage most recently started.
func (a *Aggregator) CurrentStage() Stage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Aggregate returns the weighted overall percentage in [0,100].
func (a *Aggregator) Aggregate() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.aggregateLocked()
}

// IsCancelled reflects the caller-supplied cancellation signal. Polled
// cooperatively by long-running stages; there is no preemption.
func (a *Aggregator) IsCancelled() bool {
	return a.ctx.Err() != nil
}

func (a *Aggregator) aggregateLocked() float64 {
	var weighted, totalWeight float64
	for _, sw := range stageWeights {
		weighted += a.percents[sw.stage] / 100 * float64(sw.weight)
		totalWeight += float64(sw.weight)
	}

	if totalWeight == 0 {
		return 0
	}

	return weighted / totalWeight * 100
}

// emitLocked sends the non-negative delta between the current and the
// last reported aggregate. Stage resets can lower the instantaneous
// aggregate; the reported value never goes backwards.
func (a *Aggregator) emitLocked(message string) {
	aggregate := a.aggregateLocked()
	increment := aggregate - a.lastReported
	if increment < 0 {
		increment = 0
	} else {
		a.lastReported = aggregate
	}

	if a.report != nil {
		a.report(increment, message)
	}
}
