package operations

import (
	"fmt"
	"sync"
)

// PipelineState is the lifecycle state of one pipeline run.
type PipelineState string

const (
	StateInit      PipelineState = "init"
	StateExtracted PipelineState = "extracted"
	StateCleaned   PipelineState = "cleaned"
	StateFiltered  PipelineState = "filtered"
	StateValidated PipelineState = "validated"
	StateLoaded    PipelineState = "loaded"
	StateFailed    PipelineState = "failed"
)

// transitions lists the legal forward moves. Failed is terminal and
// reachable from every non-terminal state.
var transitions = map[PipelineState]PipelineState{
	StateInit:      StateExtracted,
	StateExtracted: StateCleaned,
	StateCleaned:   StateFiltered,
	StateFiltered:  StateValidated,
	StateValidated: StateLoaded,
}

// Pipeline tracks the lifecycle state of a single run.
type Pipeline struct {
	mu    sync.RWMutex
	runID string
	state PipelineState
}

// NewPipeline creates a pipeline in the init state.
func NewPipeline(runID string) *Pipeline {
	return &Pipeline{runID: runID, state: StateInit}
}

// RunID returns the run identifier.
func (p *Pipeline) RunID() string {
	return p.runID
}

// State returns the current lifecycle state.
func (p *Pipeline) State() PipelineState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Advance moves the pipeline to the next state. Stages may only move
// forward in order; skipping or repeating a state is an error.
func (p *Pipeline) Advance(next PipelineState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateFailed || p.state == StateLoaded {
		return fmt.Errorf("pipeline is in terminal state %s", p.state)
	}
	if transitions[p.state] != next {
		return fmt.Errorf("illegal transition %s -> %s", p.state, next)
	}
	p.state = next
	return nil
}

// MarkFailed moves the pipeline to the terminal failed state.
func (p *Pipeline) MarkFailed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateLoaded {
		p.state = StateFailed
	}
}
