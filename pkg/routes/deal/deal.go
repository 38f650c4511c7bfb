package deal

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/services/deal"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
)

type Handler struct {
	service *deal.Service
}

func NewHandler(service *deal.Service) *Handler {
	return &Handler{service: service}
}

// Register registers deal routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "deal_handler.List")
	defer span.End()

	req, err := utils.BindRequest[models.ListDealsRequest](c)
	if err != nil {
		return err
	}

	items, err := h.service.List(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "deal_handler.Create")
	defer span.End()

	req, err := utils.BindRequest[models.CreateDealRequest](c)
	if err != nil {
		return err
	}

	out, err := h.service.Create(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "deal_handler.Get")
	defer span.End()

	out, err := h.service.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "deal_handler.Update")
	defer span.End()

	req, err := utils.BindRequest[models.UpdateDealRequest](c)
	if err != nil {
		return err
	}

	out, err := h.service.Update(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "deal_handler.Delete")
	defer span.End()

	resp, err := h.service.Delete(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}
