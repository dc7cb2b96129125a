package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "medintake/internal/errors"
	"medintake/internal/service"
)

// PatientHandler handles patient read endpoints.
type PatientHandler struct {
	patientService service.PatientService
}

// NewPatientHandler creates a new patient handler.
func NewPatientHandler(patientService service.PatientService) *PatientHandler {
	return &PatientHandler{patientService: patientService}
}

// ListAll returns every patient with last-visit timestamps. Staff only.
func (h *PatientHandler) ListAll(c echo.Context) error {
	payload, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}

	patients, err := h.patientService.ListAll(c.Request().Context(), payload.Role)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, patients)
}

// Me returns the calling patient's own profile and recent visits.
func (h *PatientHandler) Me(c echo.Context) error {
	payload, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}

	profile, err := h.patientService.MyProfile(c.Request().Context(), payload.Role, payload.UserID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, profile)
}

// Get returns one patient's full record, subject to ownership checks.
func (h *PatientHandler) Get(c echo.Context) error {
	payload, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{Error: "invalid patient id"})
	}

	detail, err := h.patientService.GetPatient(c.Request().Context(), payload.Role, payload.UserID, uint(id))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, detail)
}
