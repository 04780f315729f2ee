package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"stocks-api/internal/models"
)

// CompanyLister supplies the selectable company list
type CompanyLister interface {
	List(ctx context.Context) []models.Company
}

type HealthHandler struct {
	startTime time.Time
	version   string
}

func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		version:   version,
	}
}

// Root handles GET /
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Welcome to Stock API",
		"version": h.version,
		"endpoints": fiber.Map{
			"companies":  "/companies",
			"prices":     "/prices/{symbol}?period=1y&interval=1d",
			"predict":    "/predict/{symbol}",
			"stats":      "/stats/{symbol}",
			"indicators": "/indicators/{symbol}?period=1y&interval=1d",
			"forecast":   "POST /v1/forecast",
			"health":     "/health",
		},
	})
}

// Health handles GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"message": "Stock API is running",
		"version": h.version,
		"uptime":  time.Since(h.startTime).String(),
		"time":    time.Now(),
	})
}

// Ready handles GET /health/ready
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ready",
		"checks": fiber.Map{
			"api": "ok",
		},
	})
}

type CompanyHandler struct {
	catalog CompanyLister
}

func NewCompanyHandler(catalog CompanyLister) *CompanyHandler {
	return &CompanyHandler{catalog: catalog}
}

// List handles GET /companies
func (h *CompanyHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.catalog.List(c.Context()))
}
