package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spotiload/api/internal/model"
	"github.com/spotiload/api/internal/service"
	"github.com/spotiload/api/internal/store"
	"github.com/spotiload/api/pkg/response"
)

type CatalogHandler struct {
	service   *service.CatalogService
	validator *validator.Validate
}

func NewCatalogHandler(svc *service.CatalogService, v *validator.Validate) *CatalogHandler {
	return &CatalogHandler{
		service:   svc,
		validator: v,
	}
}

// Validate handles POST /api/spotify/validate
func (h *CatalogHandler) Validate(c *fiber.Ctx) error {
	var req model.ValidateURLRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Validate(req.URL)
	if err != nil {
		return response.ValidationError(c, "Invalid Spotify URL. Please provide a valid Spotify track or playlist URL.", nil)
	}

	return response.OK(c, result)
}

// Info handles POST /api/spotify/info
func (h *CatalogHandler) Info(c *fiber.Ctx) error {
	var req model.InfoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	job, err := h.service.Resolve(c.Context(), req.URL)
	if err != nil {
		if errors.Is(err, service.ErrInvalidURL) {
			return response.ValidationError(c, "Invalid Spotify URL. Please provide a valid Spotify track or playlist URL.", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, &model.InfoResponse{
		Kind:       job.Kind,
		DownloadID: job.ID,
		Name:       job.Name,
		Tracks:     job.Tracks,
	})
}

// Status handles GET /api/spotify/download/:id
func (h *CatalogHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if jobID == "" {
		return response.ValidationError(c, "Download ID is required", nil)
	}

	job, err := h.service.Status(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return response.NotFound(c, "Download not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, job)
}

// formatValidationErrors formats validator errors for response
func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
