package repository

import (
	"context"
	"time"

	"medispa/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentRepository stores patient photos and documents. Files themselves
// live in infra.Storage; only paths are persisted here.
type DocumentRepository interface {
	CreatePhoto(ctx context.Context, p *model.PatientPhoto) error
	CreateDocument(ctx context.Context, d *model.PatientDocument) error
	FindDocument(ctx context.Context, patientID, docID uuid.UUID) (*model.PatientDocument, error)
	MarkSigned(ctx context.Context, docID uuid.UUID, signaturePath string) error
}

type documentRepo struct{ db *gorm.DB }

func NewDocumentRepository(db *gorm.DB) DocumentRepository { return &documentRepo{db: db} }

func (r *documentRepo) CreatePhoto(ctx context.Context, p *model.PatientPhoto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *documentRepo) CreateDocument(ctx context.Context, d *model.PatientDocument) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *documentRepo) FindDocument(ctx context.Context, patientID, docID uuid.UUID) (*model.PatientDocument, error) {
	var d model.PatientDocument
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND id = ?", patientID, docID).
		First(&d).Error
	return &d, err
}

func (r *documentRepo) MarkSigned(ctx context.Context, docID uuid.UUID, signaturePath string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.PatientDocument{}).
		Where("id = ?", docID).
		Updates(map[string]interface{}{
			"is_signed":      true,
			"signature_path": signaturePath,
			"signed_at":      now,
		}).Error
}
