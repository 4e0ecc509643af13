// handlers/handlers.go - shared wiring for the HTTP handlers
package handlers

import (
	"errors"
	"strings"

	"mediahub/config"
	"mediahub/events"
	"mediahub/logger"
	"mediahub/services"
	"mediahub/utils"

	"github.com/gofiber/fiber/v2"
)

// Deps are the services the handlers call into.
type Deps struct {
	Config   *config.Config
	Store    services.Storage
	Analyzer *services.AnalysisService
	Progress *services.ProgressService
	Hub      *events.Hub
	Log      *logger.Logger
}

var (
	cfg             *config.Config
	store           services.Storage
	analysisService *services.AnalysisService
	progressService *services.ProgressService
	hub             *events.Hub
	log             = logger.Nop()
)

// Init installs the services used by every handler. It must run before RegisterRoutes.
func Init(d Deps) {
	if d.Store == nil || d.Analyzer == nil || d.Progress == nil || d.Config == nil {
		panic("handlers.Init: config, store, analyzer and progress are required")
	}
	cfg = d.Config
	store = d.Store
	analysisService = d.Analyzer
	progressService = d.Progress
	hub = d.Hub
	if d.Log != nil {
		log = d.Log.With("component", "http")
	}
}

// respondError maps service errors onto status codes. failMsg is shown for
// unexpected failures, notFoundMsg for ErrNotFound.
func respondError(c *fiber.Ctx, err error, notFoundMsg, failMsg string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return utils.JSONError(c, fiber.StatusNotFound, notFoundMsg)
	case errors.Is(err, services.ErrInvalidInput):
		return utils.JSONError(c, fiber.StatusBadRequest, clientMessage(err, services.ErrInvalidInput))
	case errors.Is(err, services.ErrConflict):
		return utils.JSONError(c, fiber.StatusConflict, clientMessage(err, services.ErrConflict))
	}
	log.Error(failMsg, "path", c.Path(), "error", err)
	return utils.JSONError(c, fiber.StatusInternalServerError, failMsg)
}

// clientMessage strips the sentinel suffix from a wrapped error.
func clientMessage(err, sentinel error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	if msg == "" || msg == sentinel.Error() {
		return "Invalid input"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
