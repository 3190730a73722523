package supply

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
	g := api.Group("/reagent-supply", auth.RequireRole("admin", "lab_manager", "lab_technician"))
	g.POST("/createSupplyRecord", h.CreateSupplyRecord)
	g.GET("/getAllSupplyRecords", h.ListSupplyRecords)
	g.GET("/getSupplyRecordById/:id", h.GetSupplyRecord)
	g.PUT("/updateSupplyRecord/:id", h.UpdateSupplyRecord)
	g.DELETE("/deleteSupplyRecord/:id", h.DeleteSupplyRecord)
}

func (h *Handler) CreateSupplyRecord(c echo.Context) error {
	actor := auth.UserNameFromContext(c.Request().Context())
	if actor == "" {
		return respond.Error(c, http.StatusUnauthorized, "could not resolve actor from token")
	}
	var rec SupplyRecord
	if err := c.Bind(&rec); err != nil {
		return respond.Error(c, http.StatusBadRequest, err.Error())
	}
	rec.ReceivedBy = actor

	sum, err := h.svc.CreateSupplyRecord(c.Request().Context(), &rec)
	if err != nil {
		return writeError(c, err)
	}
	return respond.OK(c, http.StatusCreated, "Supply record created successfully", map[string]interface{}{
		"supply_record": rec,
		"summary":       sum,
	})
}

func (h *Handler) ListSupplyRecords(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{
		ReagentName: c.QueryParam("reagent_name"),
		VendorName:  c.QueryParam("vendor_name"),
		Status:      c.QueryParam("status"),
	}
	var err error
	if f.FromDate, err = parseDateParam(c.QueryParam("from_date")); err != nil {
		return respond.Error(c, http.StatusBadRequest, "from_date: expected YYYY-MM-DD")
	}
	if f.ToDate, err = parseDateParam(c.QueryParam("to_date")); err != nil {
		return respond.Error(c, http.StatusBadRequest, "to_date: expected YYYY-MM-DD")
	}

	items, total, err := h.svc.ListSupplyRecords(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return respond.OK(c, http.StatusOK, "Supply records fetched successfully",
		pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetSupplyRecord(c echo.Context) error {
	rec, err := h.svc.GetSupplyRecord(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return respond.OK(c, http.StatusOK, "Supply record fetched successfully", rec)
}

func (h *Handler) UpdateSupplyRecord(c echo.Context) error {
	var p Patch
	if err := c.Bind(&p); err != nil {
		return respond.Error(c, http.StatusBadRequest, err.Error())
	}
	rec, sum, err := h.svc.UpdateSupplyRecord(c.Request().Context(), c.Param("id"), &p)
	if err != nil {
		return writeError(c, err)
	}
	return respond.OK(c, http.StatusOK, "Supply record updated successfully", map[string]interface{}{
		"supply_record": rec,
		"summary":       sum,
	})
}

func (h *Handler) DeleteSupplyRecord(c echo.Context) error {
	sum, err := h.svc.DeleteSupplyRecord(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return respond.OK(c, http.StatusOK, "Supply record deleted successfully", sum)
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
			"lot_number":        insErr.LotNumber,
			"requested":         insErr.Requested,
			"available_batches": insErr.Available,
		})
	case errors.As(err, &ve):
		return respond.Error(c, http.StatusBadRequest, ve.Error())
	default:
		return respond.Error(c, http.StatusInternalServerError, err.Error())
	}
}
