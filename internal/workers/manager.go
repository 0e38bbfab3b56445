package workers

import (
	"fmt"
	"log/slog"
)

// Manager starts and stops the configured workers as one unit.
type Manager struct {
	workers []Worker
	logger  *slog.Logger
}

func NewManager(logger *slog.Logger, workers ...Worker) *Manager {
	return &Manager{
		workers: workers,
		logger:  logger,
	}
}

func (m *Manager) Start() error {
	m.logger.Info("starting worker manager", "worker_count", len(m.workers))

	for _, worker := range m.workers {
		if err := worker.Start(); err != nil {
			return fmt.Errorf("start worker %s: %w", worker.Name(), err)
		}
		m.logger.Info("worker started", "name", worker.Name())
	}

	return nil
}

func (m *Manager) Stop() {
	for _, worker := range m.workers {
		m.logger.Info("stopping worker", "name", worker.Name())
		worker.Stop()
	}
}
