package usage

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medlab/lims/internal/domain/reagent"
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
	g := api.Group("/reagent-usage", auth.RequireRole("admin", "lab_manager", "lab_technician"))
	g.POST("/recordUsage", h.RecordUsage)
	g.GET("/getAllUsageRecords", h.ListUsageRecords)
	g.GET("/getUsageRecordById/:id", h.GetUsageRecord)
}

func (h *Handler) RecordUsage(c echo.Context) error {
	actor := auth.UserNameFromContext(c.Request().Context())
	if actor == "" {
		return respond.Error(c, http.StatusUnauthorized, "could not resolve actor from token")
	}
	var rec UsageRecord
	if err := c.Bind(&rec); err != nil {
		return respond.Error(c, http.StatusBadRequest, err.Error())
	}
	rec.UsedBy = actor

	rg, err := h.svc.RecordUsage(c.Request().Context(), &rec)
	if err != nil {
		return writeError(c, err)
	}
	return respond.OK(c, http.StatusCreated, "Usage recorded successfully", map[string]interface{}{
		"usage_record":       rec,
		"quantity_available": rg.QuantityAvailable,
	})
}

func (h *Handler) ListUsageRecords(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{
		ReagentName: c.QueryParam("reagent_name"),
		UsedBy:      c.QueryParam("used_by"),
	}
	var err error
	if f.FromDate, err = parseDateParam(c.QueryParam("from_date")); err != nil {
		return respond.Error(c, http.StatusBadRequest, "from_date: expected YYYY-MM-DD")
	}
	if f.ToDate, err = parseDateParam(c.QueryParam("to_date")); err != nil {
		return respond.Error(c, http.StatusBadRequest, "to_date: expected YYYY-MM-DD")
	}

	items, total, err := h.svc.ListUsageRecords(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return respond.OK(c, http.StatusOK, "Usage records fetched successfully",
		pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetUsageRecord(c echo.Context) error {
	rec, err := h.svc.GetUsageRecord(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return respond.OK(c, http.StatusOK, "Usage record fetched successfully", rec)
}

func parseDateParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func writeError(c echo.Context, err error) error {
	var ve *ValidationError
	var insErr *reagent.InsufficientBatchQuantityError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, reagent.ErrNotFound):
		return respond.Error(c, http.StatusNotFound, err.Error())
	case errors.As(err, &insErr):
		return respond.ErrorWithData(c, http.StatusBadRequest, insErr.Error(), map[string]interface{}{
			"requested":         insErr.Requested,
			"available_batches": insErr.Available,
		})
	case errors.As(err, &ve):
		return respond.Error(c, http.StatusBadRequest, ve.Error())
	default:
		return respond.Error(c, http.StatusInternalServerError, err.Error())
	}
}
