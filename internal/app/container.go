package app

import (
	"cs2panel/internal/api"
	"cs2panel/internal/config"
	"cs2panel/internal/events"
	"cs2panel/internal/manager"
	"cs2panel/internal/pkg/logger"
	"cs2panel/internal/storage"
	"cs2panel/internal/ws"
)

// Container wires the daemon together.
type Container struct {
	Config  *config.AppConfig
	Store   *storage.GormStore
	Bus     *events.Bus
	Manager *manager.Manager
	Streams *ws.Streams
	API     *api.Server
}

// Build loads configuration, opens the database and constructs every
// component. Startup side effects (scheduler, auto-start) are left to
// Manager.Startup so tests can build a container without them.
func Build() (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.LogDir, cfg.LogLevel, cfg.Debug); err != nil {
		return nil, err
	}

	store, err := storage.NewGormStore(cfg.DBPath())
	if err != nil {
		return nil, err
	}

	bus := events.NewBus()

	mgr, err := manager.New(cfg, store, bus)
	if err != nil {
		return nil, err
	}

	streams := ws.NewStreams(bus, mgr)

	return &Container{
		Config:  cfg,
		Store:   store,
		Bus:     bus,
		Manager: mgr,
		Streams: streams,
		API:     api.NewServer(mgr, streams),
	}, nil
}
