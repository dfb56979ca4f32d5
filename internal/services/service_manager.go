package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/exam-platform/grading-service/internal/lock"
	"github.com/exam-platform/grading-service/internal/repositories"
	"github.com/exam-platform/grading-service/internal/similarity"
	"github.com/exam-platform/grading-service/internal/validator"
)

// serviceManager implements ServiceManager interface
type serviceManager struct {
	repo      repositories.Repository
	oracle    similarity.Oracle
	claimer   lock.Claimer
	publisher EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
	config    GradingConfig

	gradingService GradingService
	repairService  RepairService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(repo repositories.Repository, oracle similarity.Oracle, claimer lock.Claimer, publisher EventPublisher, logger *slog.Logger, validator *validator.Validator, config GradingConfig) ServiceManager {
	return &serviceManager{
		repo:      repo,
		oracle:    oracle,
		claimer:   claimer,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	if sm.repo == nil {
		return fmt.Errorf("repository is required")
	}
	if sm.oracle == nil {
		return fmt.Errorf("similarity oracle is required")
	}
	if sm.claimer == nil {
		return fmt.Errorf("claimer is required")
	}

	sm.gradingService = NewGradingService(sm.repo, sm.oracle, sm.claimer, sm.publisher, sm.logger, sm.validator, sm.config)
	sm.repairService = NewRepairService(sm.repo, sm.logger)

	sm.initialized = true
	sm.logger.Info("Service manager initialized")

	return nil
}

func (sm *serviceManager) Grading() GradingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.gradingService
}

func (sm *serviceManager) Repair() RepairService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.repairService
}

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	return sm.repo.Ping(ctx)
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}
	sm.shutdown = true

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.logger.Info("Service manager shut down")
	return nil
}
