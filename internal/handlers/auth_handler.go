package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rendezvous-csd/rendezvous-api/internal/middleware"
	"github.com/rendezvous-csd/rendezvous-api/internal/models"
	"github.com/rendezvous-csd/rendezvous-api/internal/services"
	apperrors "github.com/rendezvous-csd/rendezvous-api/pkg/errors"
)

// AuthHandler handles login, session presence and logout
type AuthHandler struct {
	service services.AuthServiceInterface
	cookie  middleware.SessionCookie
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service services.AuthServiceInterface, cookie middleware.SessionCookie) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookie:  cookie,
	}
}

// Login handles POST /
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorWithDetails(c, http.StatusBadRequest, codeValidationFailed, "Email is required", ParseValidationErrors(err), err)
		return
	}

	session, handle, err := h.service.Login(c.Request.Context(), h.cookie.Read(c), req.Email)
	if err != nil {
		switch {
		case apperrors.Is(err, apperrors.ErrValidation):
			respondError(c, http.StatusBadRequest, codeValidationFailed, "Email is required", err)
		case apperrors.Is(err, apperrors.ErrNotFound):
			attachError(c, err)
			c.JSON(http.StatusUnauthorized, models.SessionStatusResponse{LoggedIn: false})
		default:
			respondError(c, http.StatusInternalServerError, codeStorageError, "An error occurred while processing your request", err)
		}
		return
	}

	h.cookie.Set(c, handle)
	c.JSON(http.StatusOK, models.LoginResponse{Email: session.Email})
}

// Status handles GET /
func (h *AuthHandler) Status(c *gin.Context) {
	handle := h.cookie.Read(c)

	email, ok, err := h.service.CurrentIdentity(c.Request.Context(), handle)
	if err != nil {
		respondError(c, http.StatusInternalServerError, codeStorageError, "Could not read session", err)
		return
	}

	if !ok {
		if handle != "" {
			h.cookie.Clear(c)
		}
		c.JSON(http.StatusOK, models.SessionStatusResponse{LoggedIn: false})
		return
	}

	c.JSON(http.StatusOK, models.SessionStatusResponse{LoggedIn: true, Email: email})
}

// Logout handles POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	err := h.service.Logout(c.Request.Context(), h.cookie.Read(c))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotLoggedIn) {
			h.cookie.Clear(c)
			respondError(c, http.StatusUnauthorized, codeNotLoggedIn, "You are not logged in", err)
			return
		}
		respondError(c, http.StatusInternalServerError, codeStorageError, "An error occurred while logging out", err)
		return
	}

	h.cookie.Clear(c)
	c.JSON(http.StatusOK, models.LogoutResponse{Message: "Logout successful"})
}
