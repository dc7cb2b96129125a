package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	apperrors "medintake/internal/errors"
	"medintake/internal/service"
)

// IntakeHandler handles the intake wizard endpoints, including the audio
// upload that feeds the transcription pipeline.
type IntakeHandler struct {
	intakeService service.IntakeService
	audioDir      string
	log           zerolog.Logger
}

// NewIntakeHandler creates a new intake handler. Uploaded recordings are
// stored under audioDir.
func NewIntakeHandler(intakeService service.IntakeService, audioDir string, log zerolog.Logger) *IntakeHandler {
	return &IntakeHandler{intakeService: intakeService, audioDir: audioDir, log: log}
}

// ReasonRequest carries the free-text visit reason.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// PainAssessmentRequest carries the pain scale answers. Both fields are
// optional and default server-side.
type PainAssessmentRequest struct {
	PainLevel    *int   `json:"pain_level" validate:"omitempty,min=0,max=10"`
	PainDuration string `json:"pain_duration"`
}

// InsuranceRequest carries the insurance capture fields.
type InsuranceRequest struct {
	InsuranceName     string `json:"insurance_name" validate:"required"`
	InsuranceID       string `json:"insurance_id"`
	Medications       string `json:"medications"`
	MedicalConditions string `json:"medical_conditions"`
}

// State returns the caller's current wizard state.
func (h *IntakeHandler) State(c echo.Context) error {
	payload, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}

	state, err := h.intakeService.State(c.Request().Context(), payload)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, state)
}

// SubmitReason stores the visit reason and advances the wizard.
func (h *IntakeHandler) SubmitReason(c echo.Context) error {
	payload, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}

	var req ReasonRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{Error: err.Error()})
	}

	state, err := h.intakeService.SubmitReason(c.Request().Context(), payload, req.Reason)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "state": state})
}

// ProcessAudio accepts the uploaded recording, stores it, and runs it
// through transcription, symptom extraction and archiving.
func (h *IntakeHandler) ProcessAudio(c echo.Context) error {
	payload, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}

	file, err := c.FormFile("audio")
	if err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{Error: "No audio file provided"})
	}
	if file.Filename == "" {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{Error: "No selected file"})
	}

	audioPath, audioFilename, err := h.saveRecording(file)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to store recording")
		return c.JSON(http.StatusInternalServerError, apperrors.ErrorResponse{Error: "failed to store audio file"})
	}

	result, err := h.intakeService.ProcessAudio(c.Request().Context(), payload, audioPath, audioFilename)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"text":          result.Text,
		"analysis":      result.Analysis,
		"analysis_file": result.AnalysisFile,
		"visit_id":      result.VisitID,
	})
}

// SubmitPainAssessment records the pain answers, overwriting any earlier
// submission for the session.
func (h *IntakeHandler) SubmitPainAssessment(c echo.Context) error {
	payload, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}

	var req PainAssessmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{Error: err.Error()})
	}

	state, err := h.intakeService.SubmitPainAssessment(c.Request().Context(), payload, req.PainLevel, req.PainDuration)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "state": state})
}

// SubmitConfirmation confirms the pending visit and completes the wizard.
func (h *IntakeHandler) SubmitConfirmation(c echo.Context) error {
	payload, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}

	state, err := h.intakeService.SubmitConfirmation(c.Request().Context(), payload)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "state": state})
}

// SubmitInsurance captures the caller's insurance details.
func (h *IntakeHandler) SubmitInsurance(c echo.Context) error {
	payload, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}

	var req InsuranceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{Error: err.Error()})
	}

	err = h.intakeService.SubmitInsurance(c.Request().Context(), payload, service.InsuranceInput{
		InsuranceName:     req.InsuranceName,
		InsuranceID:       req.InsuranceID,
		Medications:       req.Medications,
		MedicalConditions: req.MedicalConditions,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// saveRecording stores the upload as recording_<unix>.wav regardless of the
// client-supplied filename.
func (h *IntakeHandler) saveRecording(file *multipart.FileHeader) (string, string, error) {
	if err := os.MkdirAll(h.audioDir, 0o755); err != nil {
		return "", "", err
	}

	filename := fmt.Sprintf("recording_%d.wav", time.Now().Unix())
	path := filepath.Join(h.audioDir, filename)

	src, err := file.Open()
	if err != nil {
		return "", "", err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return "", "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", "", err
	}

	return path, filename, nil
}
