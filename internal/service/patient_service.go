package service

import (
	"context"
	"errors"
	"mime/multipart"
	"time"

	"medispa/internal/apierror"
	"medispa/internal/dto"
	"medispa/internal/infra"
	"medispa/internal/model"
	"medispa/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientService interface {
	Create(ctx context.Context, req dto.CreatePatientRequest) (*model.Patient, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	List(ctx context.Context, filter dto.PatientFilter) (*dto.PatientListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdatePatientRequest) (*model.Patient, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// EnsureQRCode assigns the patient's QR code if not yet assigned and
	// returns it. Safe to call any number of times.
	EnsureQRCode(ctx context.Context, id uuid.UUID) (string, error)

	// VisiblePatientIDs scopes doctor access to the patients they attend.
	VisiblePatientIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	UploadPhoto(ctx context.Context, patientID uuid.UUID, form dto.UploadPhotoForm, file *multipart.FileHeader) (*model.PatientPhoto, error)
	UploadDocument(ctx context.Context, patientID uuid.UUID, form dto.UploadDocumentForm, file *multipart.FileHeader) (*model.PatientDocument, error)
	SignDocument(ctx context.Context, patientID, docID uuid.UUID, signature *multipart.FileHeader) (*model.PatientDocument, error)

	// DocumentFile resolves a stored document to its on-disk location for
	// download, along with the display name.
	DocumentFile(ctx context.Context, patientID, docID uuid.UUID) (absPath, name string, err error)
}

type patientService struct {
	repo         repository.PatientRepository
	documents    repository.DocumentRepository
	appointments repository.AppointmentRepository
	staff        repository.StaffRepository
	storage      *infra.Storage
}

func NewPatientService(
	repo repository.PatientRepository,
	documents repository.DocumentRepository,
	appointments repository.AppointmentRepository,
	staff repository.StaffRepository,
	storage *infra.Storage,
) PatientService {
	return &patientService{
		repo:         repo,
		documents:    documents,
		appointments: appointments,
		staff:        staff,
		storage:      storage,
	}
}

func (s *patientService) Create(ctx context.Context, req dto.CreatePatientRequest) (*model.Patient, error) {
	if existing, err := s.repo.FindByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, apierror.ErrDuplicateEmail
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	p := &model.Patient{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}
	if req.Birthday != nil {
		bd, err := time.Parse("2006-01-02", *req.Birthday)
		if err != nil {
			return nil, apierror.Business("fecha de nacimiento inválida")
		}
		p.Birthday = &bd
	}
	if err := s.repo.Create(ctx, nil, p); err != nil {
		return nil, err
	}

	// The QR code is derived from the freshly assigned id, so it can only
	// be computed after the insert.
	if _, err := s.EnsureQRCode(ctx, p.ID); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, p.ID)
}

func (s *patientService) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *patientService) List(ctx context.Context, filter dto.PatientFilter) (*dto.PatientListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	patients, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PatientResponse, 0, len(patients))
	for i := range patients {
		items = append(items, *PatientToResponse(&patients[i]))
	}
	return &dto.PatientListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *patientService) Update(ctx context.Context, id uuid.UUID, req dto.UpdatePatientRequest) (*model.Patient, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != "" && req.Email != p.Email {
		if existing, err := s.repo.FindByEmail(ctx, req.Email); err == nil && existing != nil && existing.ID != id {
			return nil, apierror.ErrDuplicateEmail
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		p.Email = req.Email
	}
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Phone != nil {
		p.Phone = req.Phone
	}
	if req.Address != nil {
		p.Address = req.Address
	}
	if req.Birthday != nil {
		bd, err := time.Parse("2006-01-02", *req.Birthday)
		if err != nil {
			return nil, apierror.Business("fecha de nacimiento inválida")
		}
		p.Birthday = &bd
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *patientService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *patientService) EnsureQRCode(ctx context.Context, id uuid.UUID) (string, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if p.QRCode != nil && *p.QRCode != "" {
		return *p.QRCode, nil
	}
	code := model.QRCodeFor(p.ID, p.Email)
	// The repository only fills an empty slot; a concurrent assignment wins
	// and both calls read back the same stored code.
	if err := s.repo.AssignQRCode(ctx, id, code); err != nil {
		return "", err
	}
	p, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if p.QRCode == nil {
		return code, nil
	}
	return *p.QRCode, nil
}

// VisiblePatientIDs resolves the staff profile behind a doctor user and
// returns the patients with appointments assigned to them. An empty slice
// means the doctor sees nobody yet.
func (s *patientService) VisiblePatientIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	member, err := s.staff.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []uuid.UUID{}, nil
		}
		return nil, err
	}
	return s.appointments.PatientIDsForStaff(ctx, member.ID)
}

func (s *patientService) UploadPhoto(ctx context.Context, patientID uuid.UUID, form dto.UploadPhotoForm, file *multipart.FileHeader) (*model.PatientPhoto, error) {
	if _, err := s.Get(ctx, patientID); err != nil {
		return nil, err
	}
	path, err := s.storage.SavePatientFile(patientID, "photos", file)
	if err != nil {
		return nil, err
	}
	photo := &model.PatientPhoto{
		PatientID: patientID,
		Path:      path,
		Type:      form.Type,
		Notes:     form.Notes,
	}
	if err := s.documents.CreatePhoto(ctx, photo); err != nil {
		// Orphaned file is cleaned up so the directory does not accumulate
		// entries no record points to.
		_ = s.storage.Remove(path)
		return nil, err
	}
	return photo, nil
}

func (s *patientService) UploadDocument(ctx context.Context, patientID uuid.UUID, form dto.UploadDocumentForm, file *multipart.FileHeader) (*model.PatientDocument, error) {
	if _, err := s.Get(ctx, patientID); err != nil {
		return nil, err
	}
	path, err := s.storage.SavePatientFile(patientID, "documents", file)
	if err != nil {
		return nil, err
	}
	doc := &model.PatientDocument{
		PatientID:         patientID,
		Name:              form.Name,
		Path:              path,
		Type:              form.Type,
		RequiresSignature: form.RequiresSignature,
	}
	if err := s.documents.CreateDocument(ctx, doc); err != nil {
		_ = s.storage.Remove(path)
		return nil, err
	}
	return doc, nil
}

func (s *patientService) SignDocument(ctx context.Context, patientID, docID uuid.UUID, signature *multipart.FileHeader) (*model.PatientDocument, error) {
	doc, err := s.documents.FindDocument(ctx, patientID, docID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.ErrNotFound
		}
		return nil, err
	}
	if !doc.RequiresSignature {
		return nil, apierror.Business("el documento no requiere firma")
	}
	if doc.IsSigned {
		return nil, apierror.Business("el documento ya está firmado")
	}

	path, err := s.storage.SavePatientFile(patientID, "signatures", signature)
	if err != nil {
		return nil, err
	}
	if err := s.documents.MarkSigned(ctx, docID, path); err != nil {
		_ = s.storage.Remove(path)
		return nil, err
	}
	return s.documents.FindDocument(ctx, patientID, docID)
}

func (s *patientService) DocumentFile(ctx context.Context, patientID, docID uuid.UUID) (string, string, error) {
	doc, err := s.documents.FindDocument(ctx, patientID, docID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", apierror.ErrNotFound
		}
		return "", "", err
	}
	return s.storage.AbsPath(doc.Path), doc.Name, nil
}

// PatientToResponse maps the model to its API shape.
func PatientToResponse(p *model.Patient) *dto.PatientResponse {
	resp := &dto.PatientResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		Email:         p.Email,
		Phone:         p.Phone,
		Address:       p.Address,
		QRCode:        p.QRCode,
		LoyaltyPoints: p.LoyaltyPoints,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
	if p.Birthday != nil {
		bd := p.Birthday.Format("2006-01-02")
		resp.Birthday = &bd
	}
	return resp
}
