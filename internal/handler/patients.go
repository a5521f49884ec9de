package handler

import (
	"net/http"

	"medispa/internal/apierror"
	"medispa/internal/dto"
	"medispa/internal/middleware"
	"medispa/internal/model"
	"medispa/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PatientsHandler struct {
	svc     service.PatientService
	loyalty service.LoyaltyService
}

func NewPatientsHandler(svc service.PatientService, loyalty service.LoyaltyService) *PatientsHandler {
	return &PatientsHandler{svc: svc, loyalty: loyalty}
}

// Create godoc
// @Summary      Crear paciente
// @Tags         pacientes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreatePatientRequest true "Datos del paciente"
// @Success      201  {object} dto.PatientResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/patients [post]
func (h *PatientsHandler) Create(c *gin.Context) {
	var req dto.CreatePatientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	patient, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, service.PatientToResponse(patient))
}

// List godoc
// @Summary      Listar pacientes
// @Description  Búsqueda paginada. Los doctores solo ven sus propios pacientes.
// @Tags         pacientes
// @Produce      json
// @Security     BearerAuth
// @Param        search query string false "Nombre o email"
// @Param        page   query int    false "Página (default 1)"
// @Param        limit  query int    false "Registros por página (default 20)"
// @Success      200    {object} dto.PatientListResponse
// @Router       /v1/patients [get]
func (h *PatientsHandler) List(c *gin.Context) {
	var filter dto.PatientFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}

	claims := middleware.GetClaims(c)
	if claims.Role == model.RoleDoctor {
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, apierror.New("Token mal formado"))
			return
		}
		ids, err := h.svc.VisiblePatientIDs(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		if len(ids) == 0 {
			// No attended patients yet: force an empty result instead of
			// leaking the whole roster.
			ids = []uuid.UUID{uuid.Nil}
		}
		filter.VisibleIDs = ids
	}

	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Detalle de paciente
// @Tags         pacientes
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del paciente"
// @Success      200 {object} model.Patient
// @Failure      404 {object} apierror.APIError
// @Router       /v1/patients/{id} [get]
func (h *PatientsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	patient, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, patient)
}

// Update godoc
// @Summary      Actualizar paciente
// @Tags         pacientes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID del paciente"
// @Param        body body dto.UpdatePatientRequest true "Campos a modificar"
// @Success      200  {object} dto.PatientResponse
// @Router       /v1/patients/{id} [put]
func (h *PatientsHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.UpdatePatientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	patient, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.PatientToResponse(patient))
}

// Delete godoc
// @Summary      Eliminar paciente
// @Description  Elimina el paciente con sus fotos, documentos y citas; las ventas históricas se conservan sin referencia.
// @Tags         pacientes
// @Security     BearerAuth
// @Param        id path string true "UUID del paciente"
// @Success      204
// @Router       /v1/patients/{id} [delete]
func (h *PatientsHandler) Delete(c *gin.Context) {
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

// QRCode godoc
// @Summary      Código QR del paciente
// @Description  Asigna el código si aún no existe; llamadas repetidas devuelven el mismo código.
// @Tags         pacientes
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del paciente"
// @Success      200 {object} map[string]string
// @Router       /v1/patients/{id}/qr-code [get]
func (h *PatientsHandler) QRCode(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	code, err := h.svc.EnsureQRCode(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"qr_code": code})
}

// AddLoyalty godoc
// @Summary      Sumar puntos de fidelidad
// @Tags         pacientes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID del paciente"
// @Param        body body dto.LoyaltyRequest true "Puntos a sumar"
// @Success      200  {object} dto.LoyaltyResponse
// @Router       /v1/patients/{id}/loyalty/add [post]
func (h *PatientsHandler) AddLoyalty(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.LoyaltyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	balance, err := h.loyalty.AddPoints(c.Request.Context(), id, req.Points)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LoyaltyResponse{
		Message:       "Puntos acreditados",
		LoyaltyPoints: balance,
	})
}

// RedeemLoyalty godoc
// @Summary      Canjear puntos de fidelidad
// @Tags         pacientes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID del paciente"
// @Param        body body dto.LoyaltyRequest true "Puntos a canjear"
// @Success      200  {object} dto.LoyaltyResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/patients/{id}/loyalty/redeem [post]
func (h *PatientsHandler) RedeemLoyalty(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.LoyaltyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	balance, err := h.loyalty.RedeemPoints(c.Request.Context(), id, req.Points)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LoyaltyResponse{
		Message:       "Puntos canjeados",
		LoyaltyPoints: balance,
	})
}

// UploadPhoto godoc
// @Summary      Subir foto de tratamiento
// @Tags         pacientes
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path     string true "UUID del paciente"
// @Param        photo formData file   true "Imagen"
// @Param        type  formData string true "before | after | other"
// @Success      201   {object} model.PatientPhoto
// @Router       /v1/patients/{id}/photos [post]
func (h *PatientsHandler) UploadPhoto(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var form dto.UploadPhotoForm
	if !bindForm(c, &form) {
		return
	}
	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Archivo 'photo' requerido"))
		return
	}
	photo, err := h.svc.UploadPhoto(c.Request.Context(), id, form, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, photo)
}

// UploadDocument godoc
// @Summary      Subir documento
// @Tags         pacientes
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id       path     string true "UUID del paciente"
// @Param        document formData file   true "Archivo"
// @Param        name     formData string true "Nombre del documento"
// @Param        type     formData string true "consent | contract | prescription | lab_result | other"
// @Success      201      {object} model.PatientDocument
// @Router       /v1/patients/{id}/documents [post]
func (h *PatientsHandler) UploadDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var form dto.UploadDocumentForm
	if !bindForm(c, &form) {
		return
	}
	file, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Archivo 'document' requerido"))
		return
	}
	doc, err := h.svc.UploadDocument(c.Request.Context(), id, form, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// SignDocument godoc
// @Summary      Firmar documento
// @Description  Adjunta la imagen de la firma y marca el documento como firmado.
// @Tags         pacientes
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id          path     string true "UUID del paciente"
// @Param        document_id path     string true "UUID del documento"
// @Param        signature   formData file   true "Imagen de la firma"
// @Success      200         {object} model.PatientDocument
// @Router       /v1/patients/{id}/documents/{document_id}/sign [post]
func (h *PatientsHandler) SignDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	docID, err := uuid.Parse(c.Param("document_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de documento inválido"))
		return
	}
	signature, err := c.FormFile("signature")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Archivo 'signature' requerido"))
		return
	}
	doc, err := h.svc.SignDocument(c.Request.Context(), id, docID, signature)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DownloadDocument godoc
// @Summary      Descargar documento
// @Tags         pacientes
// @Produce      application/octet-stream
// @Security     BearerAuth
// @Param        id          path string true "UUID del paciente"
// @Param        document_id path string true "UUID del documento"
// @Success      200
// @Failure      404 {object} apierror.APIError
// @Router       /v1/patients/{id}/documents/{document_id}/download [get]
func (h *PatientsHandler) DownloadDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	docID, err := uuid.Parse(c.Param("document_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de documento inválido"))
		return
	}
	absPath, name, err := h.svc.DocumentFile(c.Request.Context(), id, docID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(absPath, name)
}
