package handler

import (
	"net/http"

	"medispa/internal/apierror"
	"medispa/internal/dto"
	"medispa/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AppointmentsHandler struct{ svc service.AppointmentService }

func NewAppointmentsHandler(svc service.AppointmentService) *AppointmentsHandler {
	return &AppointmentsHandler{svc: svc}
}

// Create godoc
// @Summary      Agendar cita
// @Description  Crea la cita validando que el profesional no tenga otra cita activa en el mismo horario.
// @Tags         citas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateAppointmentRequest true "Datos de la cita"
// @Success      201  {object} dto.AppointmentResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/appointments [post]
func (h *AppointmentsHandler) Create(c *gin.Context) {
	var req dto.CreateAppointmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	appt, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, service.AppointmentToResponse(appt))
}

// List godoc
// @Summary      Listar citas
// @Tags         citas
// @Produce      json
// @Security     BearerAuth
// @Param        date            query string false "Fecha YYYY-MM-DD"
// @Param        status          query string false "scheduled | confirmed | completed | cancelled"
// @Param        patient_id      query string false "UUID del paciente"
// @Param        staff_member_id query string false "UUID del profesional"
// @Success      200             {object} dto.AppointmentListResponse
// @Router       /v1/appointments [get]
func (h *AppointmentsHandler) List(c *gin.Context) {
	var filter dto.AppointmentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Detalle de cita
// @Tags         citas
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la cita"
// @Success      200 {object} dto.AppointmentResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/appointments/{id} [get]
func (h *AppointmentsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	appt, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.AppointmentToResponse(appt))
}

// Update godoc
// @Summary      Reprogramar o modificar cita
// @Tags         citas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID de la cita"
// @Param        body body dto.UpdateAppointmentRequest true "Campos a modificar"
// @Success      200  {object} dto.AppointmentResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/appointments/{id} [put]
func (h *AppointmentsHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.UpdateAppointmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	appt, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.AppointmentToResponse(appt))
}

// UpdateStatus godoc
// @Summary      Cambiar estado de cita
// @Tags         citas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID de la cita"
// @Param        body body dto.UpdateAppointmentStatusRequest true "Nuevo estado"
// @Success      200  {object} dto.AppointmentResponse
// @Router       /v1/appointments/{id}/status [patch]
func (h *AppointmentsHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.UpdateAppointmentStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	appt, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.AppointmentToResponse(appt))
}

// Delete godoc
// @Summary      Eliminar cita
// @Tags         citas
// @Security     BearerAuth
// @Param        id path string true "UUID de la cita"
// @Success      204
// @Router       /v1/appointments/{id} [delete]
func (h *AppointmentsHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
