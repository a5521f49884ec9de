package handler

import (
	"net/http"

	"medispa/internal/apierror"
	"medispa/internal/dto"
	"medispa/internal/middleware"
	"medispa/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Login godoc
// @Summary      Iniciar sesión
// @Description  Autentica por email y contraseña, retorna tokens JWT.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body dto.LoginRequest true "Credenciales"
// @Success      200  {object} dto.LoginResponse
// @Failure      401  {object} apierror.APIError
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegisterPatient godoc
// @Summary      Registro de paciente
// @Description  Crea cuenta y perfil de paciente en una sola operación, con código QR asignado.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body dto.RegisterPatientRequest true "Datos del paciente"
// @Success      201  {object} dto.RegisterPatientResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/auth/register-patient [post]
func (h *AuthHandler) RegisterPatient(c *gin.Context) {
	var req dto.RegisterPatientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegisterPatient(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// RegisterStaff godoc
// @Summary      Alta de personal
// @Description  Crea una cuenta doctor/staff/admin. Solo admin.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegisterStaffRequest true "Datos del empleado"
// @Success      201  {object} dto.UserResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/auth/register-staff [post]
func (h *AuthHandler) RegisterStaff(c *gin.Context) {
	var req dto.RegisterStaffRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegisterStaff(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Refresh godoc
// @Summary      Renovar tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body dto.RefreshRequest true "Refresh token"
// @Success      200  {object} dto.LoginResponse
// @Failure      401  {object} apierror.APIError
// @Router       /v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me godoc
// @Summary      Perfil de la sesión actual
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.MeResponse
// @Router       /v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Token mal formado"))
		return
	}
	resp, err := h.svc.Me(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
