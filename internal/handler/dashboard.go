package handler

import (
	"net/http"

	"medispa/internal/apierror"
	"medispa/internal/middleware"
	"medispa/internal/model"
	"medispa/internal/repository"
	"medispa/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DashboardHandler struct {
	svc      service.DashboardService
	patients service.PatientService
	staff    repository.StaffRepository
}

func NewDashboardHandler(svc service.DashboardService, patients service.PatientService, staff repository.StaffRepository) *DashboardHandler {
	return &DashboardHandler{svc: svc, patients: patients, staff: staff}
}

// Stats godoc
// @Summary      Indicadores del panel
// @Description  Ingresos del mes, pacientes nuevos, ticket promedio, tasa de retorno, agenda de hoy y alertas de stock. Los doctores ven los números de sus propios pacientes.
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.DashboardStats
// @Router       /v1/dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var scoped []uuid.UUID
	var staffID *uuid.UUID
	if claims.Role == model.RoleDoctor {
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, apierror.New("Token mal formado"))
			return
		}
		ids, err := h.patients.VisiblePatientIDs(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		if len(ids) == 0 {
			ids = []uuid.UUID{uuid.Nil}
		}
		scoped = ids

		if member, err := h.staff.FindByUserID(c.Request.Context(), userID); err == nil {
			sid := member.ID
			staffID = &sid
		}
	}

	stats, err := h.svc.Stats(c.Request.Context(), scoped, staffID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// StaffMembers godoc
// @Summary      Listar profesionales
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} model.StaffMember
// @Router       /v1/staff-members [get]
func (h *DashboardHandler) StaffMembers(c *gin.Context) {
	members, err := h.staff.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}
