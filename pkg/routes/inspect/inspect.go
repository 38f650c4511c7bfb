package inspect

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/services/inspect"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// Handler exposes read-only link diagnostics.
type Handler struct {
	service *inspect.Service
}

func NewHandler(service *inspect.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.Collections)
	g.GET("/links/:collection", h.Links)
	g.GET("/records/:collection/:id", h.Record)
}

func (h *Handler) Collections(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"collections": h.service.Collections()})
}

func (h *Handler) Links(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "inspect_handler.Links")
	defer span.End()

	req, err := utils.BindRequest[models.ListRequest](c)
	if err != nil {
		return err
	}

	report, err := h.service.Links(ctx, c.Param("collection"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) Record(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "inspect_handler.Record")
	defer span.End()

	report, err := h.service.Record(ctx, c.Param("collection"), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}
