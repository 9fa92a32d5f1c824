package services

import (
	"context"
	"sync"

	"nvr-orchestrator-go/internal/config"
	"nvr-orchestrator-go/internal/procs"
	"nvr-orchestrator-go/internal/services/continuous"
	"nvr-orchestrator-go/internal/services/detection"
	"nvr-orchestrator-go/internal/services/diskmgr"
	"nvr-orchestrator-go/internal/services/messaging"
	"nvr-orchestrator-go/internal/services/reconciler"
	"nvr-orchestrator-go/internal/services/recorder"
	"nvr-orchestrator-go/internal/store"
)

// ServiceContainer holds all services
type ServiceContainer struct {
	Config      *config.Config
	Store       *store.Store
	Messaging   *messaging.Service
	Registry    *procs.Registry
	Detection   *detection.Supervisor
	Continuous  *continuous.Supervisor
	Recorder    *recorder.Service
	Reconciler  *reconciler.Service
	DiskManager *diskmgr.Service

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServiceContainer creates and wires all services
func NewServiceContainer(cfg *config.Config) (*ServiceContainer, error) {
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	msg, err := messaging.NewService(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	runner := procs.NewRunner(cfg.ProcessLogDir)
	registry := procs.NewRegistry()

	det := detection.NewSupervisor(cfg, runner, registry)
	cont := continuous.NewSupervisor(cfg, runner, registry)
	rec := recorder.NewService(cfg, st, runner, msg)

	return &ServiceContainer{
		Config:      cfg,
		Store:       st,
		Messaging:   msg,
		Registry:    registry,
		Detection:   det,
		Continuous:  cont,
		Recorder:    rec,
		Reconciler:  reconciler.NewService(cfg, st, det, cont, registry),
		DiskManager: diskmgr.NewService(cfg, st, msg, rec),
	}, nil
}

// Start launches the background loops.
func (sc *ServiceContainer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	sc.cancel = cancel

	sc.wg.Add(2)
	go func() {
		defer sc.wg.Done()
		sc.Reconciler.Run(ctx)
	}()
	go func() {
		defer sc.wg.Done()
		sc.DiskManager.Run(ctx)
	}()
}

// Shutdown stops the loops, ends active recording sessions, terminates
// supervised processes and releases external connections.
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	if sc.cancel != nil {
		sc.cancel()
	}
	sc.wg.Wait()

	sc.Recorder.StopAll()
	sc.Reconciler.StopAll()

	if err := sc.Messaging.Shutdown(ctx); err != nil {
		return err
	}
	return sc.Store.Close()
}
