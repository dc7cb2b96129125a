package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "medintake/internal/errors"
	"medintake/internal/service"
)

// VisitHandler handles visit read endpoints.
type VisitHandler struct {
	visitService service.VisitService
}

// NewVisitHandler creates a new visit handler.
func NewVisitHandler(visitService service.VisitService) *VisitHandler {
	return &VisitHandler{visitService: visitService}
}

// Recent returns the newest visits across all patients. Staff only.
func (h *VisitHandler) Recent(c echo.Context) error {
	payload, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{Error: "invalid limit"})
		}
	}

	visits, err := h.visitService.Recent(c.Request().Context(), payload.Role, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, visits)
}

// MyVisits returns the calling patient's visit history.
func (h *VisitHandler) MyVisits(c echo.Context) error {
	payload, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}

	visits, err := h.visitService.MyVisits(c.Request().Context(), payload.Role, payload.UserID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, visits)
}

// Get returns one visit, subject to ownership checks.
func (h *VisitHandler) Get(c echo.Context) error {
	payload, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{Error: "invalid visit id"})
	}

	detail, err := h.visitService.GetVisit(c.Request().Context(), payload.Role, payload.UserID, uint(id))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, detail)
}
