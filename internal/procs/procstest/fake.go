// Package procstest provides in-memory Runner and Process fakes for
// supervisor and reconciler tests.
package procstest

import (
	"sync"
	"time"

	"nvr-orchestrator-go/internal/procs"
)

// FakeProcess is a Process whose liveness is controlled by the test.
type FakeProcess struct {
	mu      sync.Mutex
	alive   bool
	stopped bool
	Spec    procs.Spec
}

func (p *FakeProcess) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alive
}

func (p *FakeProcess) Stop(grace time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alive = false
	p.stopped = true
	return nil
}

// Stopped reports whether Stop was called.
func (p *FakeProcess) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// Exit marks the process dead without Stop having been called, simulating a
// crash.
func (p *FakeProcess) Exit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alive = false
}

// FakeRunner records every launch and hands back controllable processes.
type FakeRunner struct {
	mu        sync.Mutex
	processes []*FakeProcess
	runs      []procs.Spec

	// StartErr, when set, makes Start fail.
	StartErr error
	// RunErr, when set, makes Run fail.
	RunErr error
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

func (r *FakeRunner) Start(spec procs.Spec) (procs.Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.StartErr != nil {
		return nil, r.StartErr
	}
	p := &FakeProcess{alive: true, Spec: spec}
	r.processes = append(r.processes, p)
	return p, nil
}

func (r *FakeRunner) Run(spec procs.Spec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.RunErr != nil {
		return r.RunErr
	}
	r.runs = append(r.runs, spec)
	return nil
}

// Started returns every process handed out by Start, in launch order.
func (r *FakeRunner) Started() []*FakeProcess {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*FakeProcess, len(r.processes))
	copy(out, r.processes)
	return out
}

// Runs returns every Spec passed to Run, in call order.
func (r *FakeRunner) Runs() []procs.Spec {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]procs.Spec, len(r.runs))
	copy(out, r.runs)
	return out
}
