package service

import (
	"github.com/questlog-app/questlog/internal/config"
	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/internal/store"
)

// Services bundles the server's business layer.
type Services struct {
	AuthService   AuthService
	RecordService RecordService
}

// NewServices wires the services over the storages and the realtime
// publisher.
func NewServices(storages *store.Storages, publisher ChangePublisher, cfg *config.StructuredConfig, logger *logger.Logger) *Services {
	return &Services{
		AuthService:   NewAuthService(storages.Users, cfg.App, logger),
		RecordService: NewRecordService(storages.Records, publisher, logger),
	}
}
