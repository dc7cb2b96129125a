// Package router wires routes, middleware and the error response shape.
package router

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"medintake/internal/audit"
	"medintake/internal/auth"
	"medintake/internal/config"
	apperrors "medintake/internal/errors"
	"medintake/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	tokens *auth.TokenService,
	authHandler *handler.AuthHandler,
	patientHandler *handler.PatientHandler,
	visitHandler *handler.VisitHandler,
	intakeHandler *handler.IntakeHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.BodyLimit(strconv.FormatInt(cfg.MaxUploadBytes, 10)))

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = errorHandler

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	authn := []echo.MiddlewareFunc{requireToken(tokens), attachRequestInfo}

	// Secured routes
	secured := api.Group("", authn...)

	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/auth/me", authHandler.Me)

	secured.GET("/patient/all", patientHandler.ListAll)
	secured.GET("/patient/me", patientHandler.Me)
	secured.GET("/patient/:id", patientHandler.Get)

	secured.GET("/visit/recent", visitHandler.Recent)
	secured.GET("/visit/my-visits", visitHandler.MyVisits)
	secured.GET("/visit/:id", visitHandler.Get)

	secured.POST("/process_audio", intakeHandler.ProcessAudio)
	secured.GET("/intake/state", intakeHandler.State)
	secured.POST("/intake/reason", intakeHandler.SubmitReason)
	secured.POST("/intake/insurance", intakeHandler.SubmitInsurance)
	secured.POST("/intake/pain-assessment", intakeHandler.SubmitPainAssessment)
	secured.POST("/intake/confirmation", intakeHandler.SubmitConfirmation)

	// Stored media stays behind authentication.
	media := e.Group("", authn...)
	media.GET("/recordings/:filename", serveFile(cfg.AudioDir))
	media.GET("/analysis_files/:filename", serveFile(cfg.AnalysisDir))
}

// requireToken verifies the bearer token against both its signature and its
// server-side session, then exposes the payload to handlers.
func requireToken(tokens *auth.TokenService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ParseTokenFunc: func(c echo.Context, tokenString string) (interface{}, error) {
			return tokens.Verify(c.Request().Context(), tokenString)
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			return c.JSON(http.StatusUnauthorized, apperrors.ErrorResponse{Error: apperrors.ErrInvalidToken.Error()})
		},
		ContextKey: handler.PayloadContextKey,
	})
}

// attachRequestInfo copies the verified identity plus client metadata onto
// the request context so services can audit without touching echo.
func attachRequestInfo(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		info := audit.RequestInfo{
			IPAddress: c.RealIP(),
			UserAgent: c.Request().UserAgent(),
		}
		if payload, ok := c.Get(handler.PayloadContextKey).(*auth.Payload); ok && payload != nil {
			info.ActorID = &payload.UserID
		}
		ctx := audit.WithRequestInfo(c.Request().Context(), info)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// serveFile serves one file from dir. The filename is flattened to its base
// so path traversal cannot escape the directory.
func serveFile(dir string) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := filepath.Base(c.Param("filename"))
		if name == "." || name == string(filepath.Separator) {
			return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{Error: "invalid filename"})
		}
		return c.File(filepath.Join(dir, name))
	}
}

// errorHandler renders every unhandled error as the single-field error body.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "internal server error"

	if httpErr, ok := err.(*echo.HTTPError); ok {
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
	} else {
		mapped := apperrors.MapErrorToHTTP(err)
		status = mapped.StatusCode
		message = mapped.Message
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, apperrors.ErrorResponse{Error: message})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
