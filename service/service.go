package service

import (
	"sync"

	"github.com/kamruzzaman103/library-management-server/config"
	"github.com/kamruzzaman103/library-management-server/internal/jsonlog"
	"github.com/kamruzzaman103/library-management-server/repository"
)

type Service interface {
	books
	loans
	categories
	failedValidation(map[string]string) error
}

// Services defines a service layer.
type service struct {
	config config.Config
	wg     *sync.WaitGroup
	logger *jsonlog.Logger
	repo   repository.Repository
}

// New creates a new instance of Service.
func New(cfg config.Config, wg *sync.WaitGroup, logger *jsonlog.Logger, repo repository.Repository) *service {
	return &service{
		config: cfg,
		wg:     wg,
		logger: logger,
		repo:   repo,
	}
}
