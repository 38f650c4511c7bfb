package graph

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/reference"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// NeighborReader is satisfied by graph.Mirror.
type NeighborReader interface {
	Neighbors(ctx context.Context, kind, id string) ([]graph.Neighbor, error)
}

type Handler struct {
	reader NeighborReader
}

// NewHandler builds the graph routes. A nil reader means the mirror is
// disabled and every request answers 503.
func NewHandler(reader NeighborReader) *Handler {
	return &Handler{reader: reader}
}

func (h *Handler) Register(g *echo.Group) {
	g.GET("/:type/:id/neighbors", h.Neighbors)
}

func (h *Handler) Neighbors(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "graph_handler.Neighbors")
	defer span.End()

	if h.reader == nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "graph mirror is not enabled")
	}

	entityType, err := reference.ParseEntityType(c.Param("type"))
	if err != nil {
		return err
	}
	label, _ := graph.Label(entityType)

	neighbors, err := h.reader.Neighbors(ctx, label, c.Param("id"))
	if err != nil {
		return httperror.WrapError(http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, neighbors)
}
