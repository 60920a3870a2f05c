package http

import (
	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/internal/service"
)

type Handler struct {
	services *service.Services
	hub      *Hub

	logger *logger.Logger
}

func NewHandler(services *service.Services, hub *Hub, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services: services,
		hub:      hub,
		logger:   logger,
	}
}
