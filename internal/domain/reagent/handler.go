package reagent

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medlab/lims/internal/platform/auth"
	"github.com/medlab/lims/pkg/pagination"
	"github.com/medlab/lims/pkg/respond"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("/reagents", auth.RequireRole("admin", "lab_manager", "lab_technician"))
	read.GET("/getAllReagents", h.ListReagents)
	read.GET("/getReagentById/:id", h.GetReagent)

	write := api.Group("/reagents", auth.RequireRole("admin", "lab_manager"))
	write.POST("/createReagent", h.CreateReagent)
	write.PUT("/updateReagent/:id", h.UpdateReagent)
	write.DELETE("/deleteReagent/:id", h.DeleteReagent)
	write.POST("/refreshAlerts", h.RefreshAlerts)
}

func (h *Handler) CreateReagent(c echo.Context) error {
	var rg Reagent
	if err := c.Bind(&rg); err != nil {
		return respond.Error(c, http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateReagent(c.Request().Context(), &rg); err != nil {
		return writeError(c, err)
	}
	return respond.OK(c, http.StatusCreated, "Reagent created successfully", rg)
}

func (h *Handler) ListReagents(c echo.Context) error {
	pg := pagination.FromContext(c)
	filter := SearchFilter{
		Name:          c.QueryParam("reagent_name"),
		CatalogNumber: c.QueryParam("catalog_number"),
		Manufacturer:  c.QueryParam("manufacturer"),
	}
	views, summary, total, err := h.svc.ListReagents(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return respond.OK(c, http.StatusOK, "Reagents fetched successfully", map[string]interface{}{
		"reagents":      pagination.NewResponse(views, total, pg.Limit, pg.Offset),
		"alert_summary": summary,
	})
}

func (h *Handler) GetReagent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, http.StatusBadRequest, "invalid reagent id")
	}
	rg, err := h.svc.GetReagent(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return respond.OK(c, http.StatusOK, "Reagent fetched successfully", rg)
}

func (h *Handler) UpdateReagent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, http.StatusBadRequest, "invalid reagent id")
	}
	var patch Reagent
	if err := c.Bind(&patch); err != nil {
		return respond.Error(c, http.StatusBadRequest, err.Error())
	}
	rg, err := h.svc.UpdateReagent(c.Request().Context(), id, &patch)
	if err != nil {
		return writeError(c, err)
	}
	return respond.OK(c, http.StatusOK, "Reagent updated successfully", rg)
}

func (h *Handler) DeleteReagent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, http.StatusBadRequest, "invalid reagent id")
	}
	if err := h.svc.DeleteReagent(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return respond.OK(c, http.StatusOK, "Reagent deleted successfully", nil)
}

func (h *Handler) RefreshAlerts(c echo.Context) error {
	summary, dispatched, err := h.svc.RefreshAlerts(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return respond.OK(c, http.StatusOK, "Alert scan complete", map[string]interface{}{
		"alert_summary":            summary,
		"notifications_dispatched": dispatched,
	})
}

func writeError(c echo.Context, err error) error {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		return respond.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateIdentity):
		return respond.Error(c, http.StatusConflict, err.Error())
	case errors.As(err, &ve):
		return respond.Error(c, http.StatusBadRequest, ve.Error())
	default:
		return respond.Error(c, http.StatusInternalServerError, err.Error())
	}
}
