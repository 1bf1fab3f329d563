package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/n-kyan/microsoft-auth/internal/dto"
	"github.com/n-kyan/microsoft-auth/internal/models"
	appErrors "github.com/n-kyan/microsoft-auth/pkg/errors"
	"github.com/n-kyan/microsoft-auth/pkg/response"
)

type authService interface {
	InitializeAuth(ctx context.Context) (*models.DeviceFlowSession, error)
	CompleteAuth(ctx context.Context, req models.CompleteAuthRequest) (*models.TokenRecord, error)
	Status() models.AuthStatus
}

// AuthHandler exposes the device flow endpoints.
type AuthHandler struct {
	service authService
}

// NewAuthHandler builds a new handler.
func NewAuthHandler(service authService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Initialize godoc
// @Summary Start device authorization
// @Tags Auth
// @Produce json
// @Success 200 {object} dto.InitializeAuthResponse
// @Failure 500 {object} response.Envelope
// @Router /auth/initialize [post]
func (h *AuthHandler) Initialize(c *gin.Context) {
	session, err := h.service.InitializeAuth(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.InitializeAuthResponse{
		VerificationURI: session.VerificationURI,
		UserCode:        session.UserCode,
		DeviceCode:      session.DeviceCode,
		ExpiresIn:       session.ExpiresIn,
	})
}

// Complete godoc
// @Summary Exchange a device code for an access token
// @Description The device code may be sent as a JSON body or as the device_code (or code) query parameter.
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.CompleteAuthRequest false "Device code"
// @Param device_code query string false "Device code"
// @Success 200 {object} dto.CompleteAuthResponse
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /auth/complete [post]
func (h *AuthHandler) Complete(c *gin.Context) {
	var req dto.CompleteAuthRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, http.StatusBadRequest, "invalid request body"))
			return
		}
	}
	if req.DeviceCode == "" {
		req.DeviceCode = c.Query("device_code")
	}
	if req.DeviceCode == "" {
		req.DeviceCode = c.Query("code")
	}

	if _, err := h.service.CompleteAuth(c.Request.Context(), models.CompleteAuthRequest{DeviceCode: req.DeviceCode}); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.CompleteAuthResponse{Status: "success"})
}

// Status godoc
// @Summary Report authentication state
// @Tags Auth
// @Produce json
// @Success 200 {object} dto.AuthStatusResponse
// @Router /auth/status [get]
func (h *AuthHandler) Status(c *gin.Context) {
	status := h.service.Status()
	response.JSON(c, http.StatusOK, dto.AuthStatusResponse{
		Authenticated: status.Authenticated,
		State:         string(status.State),
		ExpiresAt:     status.ExpiresAt,
	})
}
