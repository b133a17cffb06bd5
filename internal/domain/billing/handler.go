package billing

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "doctor", "nurse", "receptionist"))
	readGroup.GET("/invoices/:id", h.Get)
	readGroup.GET("/invoices/:id/payments", h.ListPayments)
	readGroup.GET("/appointments/:id/invoice", h.GetByAppointment)
	readGroup.GET("/patients/:id/invoices", h.ListByPatient)

	writeGroup := api.Group("", auth.RequireRole("admin", "receptionist"))
	writeGroup.POST("/invoices", h.Create)
	writeGroup.POST("/invoices/:id/payments", h.RecordPayment)
	writeGroup.POST("/invoices/:id/cancel", h.Cancel)
}

func respondError(c echo.Context, err error) error {
	return c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
}

type createInvoiceRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Subtotal      float64   `json:"subtotal"`
	Tax           float64   `json:"tax"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inv, err := h.svc.CreateInvoice(c.Request().Context(), req.AppointmentID, req.Subtotal, req.Tax)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.GetInvoice(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) GetByAppointment(c echo.Context) error {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.GetByAppointment(c.Request().Context(), appointmentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListPayments(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.GetInvoice(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, inv.Payments)
}

func (h *Handler) RecordPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Payment
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inv, err := h.svc.RecordPayment(c.Request().Context(), id, &p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.CancelInvoice(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}
