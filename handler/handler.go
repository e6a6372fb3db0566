package handler

import (
	"github.com/jellydator/ttlcache/v3"
	"github.com/kamruzzaman103/library-management-server/config"
	"github.com/kamruzzaman103/library-management-server/internal/jsonlog"
	"github.com/kamruzzaman103/library-management-server/service"
)

// Handler defines Handler layer. The cache tracks per-borrower daily
// loan counts.
type Handler struct {
	config  config.Config
	logger  *jsonlog.Logger
	cache   *ttlcache.Cache[string, int64]
	service service.Service
}

// New creates a new instance of Handler.
func New(cfg config.Config, logger *jsonlog.Logger, cache *ttlcache.Cache[string, int64], service service.Service) *Handler {
	return &Handler{
		config:  cfg,
		logger:  logger,
		cache:   cache,
		service: service,
	}
}
