package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spotiload/api/internal/middleware"
	"github.com/spotiload/api/internal/model"
	"github.com/spotiload/api/internal/service"
	"github.com/spotiload/api/internal/store"
	"github.com/spotiload/api/pkg/response"
)

type DownloadHandler struct {
	service   *service.DownloadService
	validator *validator.Validate
}

func NewDownloadHandler(svc *service.DownloadService, v *validator.Validate) *DownloadHandler {
	return &DownloadHandler{
		service:   svc,
		validator: v,
	}
}

// Start handles POST /api/download/start
func (h *DownloadHandler) Start(c *fiber.Ctx) error {
	var req model.StartDownloadRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Start(c.Context(), req.DownloadID, middleware.GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrJobNotFound):
			return response.NotFound(c, "Download not found")
		case errors.Is(err, service.ErrDownloadInProgress):
			return response.ValidationError(c, "Download already in progress", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// File handles GET /api/download/file/:filename
func (h *DownloadHandler) File(c *fiber.Ctx) error {
	filename := c.Params("filename")
	if filename == "" {
		return response.ValidationError(c, "Filename is required", nil)
	}

	path, err := h.service.FilePath(filename)
	if err != nil {
		return response.NotFound(c, "File not found")
	}

	return c.Download(path)
}

// History handles GET /api/download/history
func (h *DownloadHandler) History(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return response.Unauthorized(c, "Authentication required")
	}

	downloads, err := h.service.History(c.Context(), userID)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, downloads)
}
