package tests

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"medispa/internal/apierror"
	"medispa/internal/dto"
	"medispa/internal/infra"
	"medispa/internal/model"
	"medispa/internal/repository"
	"medispa/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func buildPatientService(t *testing.T, db *gorm.DB) service.PatientService {
	t.Helper()
	return service.NewPatientService(
		repository.NewPatientRepository(db),
		repository.NewDocumentRepository(db),
		repository.NewAppointmentRepository(db),
		repository.NewStaffRepository(db),
		infra.NewStorage(t.TempDir()),
	)
}

// ── QR code ───────────────────────────────────────────────────────────────────

var qrPattern = regexp.MustCompile(`^PAT-[0-9A-F]{8}-[0-9A-F]{6}$`)

func TestQRCodeFor_Format(t *testing.T) {
	code := model.QRCodeFor(uuid.New(), "test@example.com")
	assert.Regexp(t, qrPattern, code)
}

func TestQRCodeFor_Deterministic(t *testing.T) {
	id := uuid.New()
	a := model.QRCodeFor(id, "Ana@Example.com")
	b := model.QRCodeFor(id, "ana@example.com")
	assert.Equal(t, a, b, "email case must not change the code")

	c := model.QRCodeFor(id, "otra@example.com")
	assert.NotEqual(t, a, c)
}

func TestCreatePatient_AssignsQRCode(t *testing.T) {
	db := newTestDB(t)
	svc := buildPatientService(t, db)

	p, err := svc.Create(context.Background(), dto.CreatePatientRequest{
		Name: "Clara Vidal", Email: "clara@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, p.QRCode)
	assert.Regexp(t, qrPattern, *p.QRCode)
	assert.Equal(t, model.QRCodeFor(p.ID, p.Email), *p.QRCode)
}

func TestEnsureQRCode_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := buildPatientService(t, db)

	p, err := svc.Create(context.Background(), dto.CreatePatientRequest{
		Name: "Iris Moreno", Email: "iris@example.com",
	})
	require.NoError(t, err)

	first, err := svc.EnsureQRCode(context.Background(), p.ID)
	require.NoError(t, err)
	second, err := svc.EnsureQRCode(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, *p.QRCode, first)
}

func TestAssignQRCode_OnlyFillsEmptySlot(t *testing.T) {
	db := newTestDB(t)
	patients := repository.NewPatientRepository(db)
	patient := seedTestPatient(t, db, "Nora Ibáñez", "nora@example.com")

	require.NoError(t, patients.AssignQRCode(context.Background(), patient.ID, "PAT-AAAAAAAA-BBBBBB"))
	// Second assignment must be a no-op: the WHERE guard only matches NULL.
	require.NoError(t, patients.AssignQRCode(context.Background(), patient.ID, "PAT-CCCCCCCC-DDDDDD"))

	stored, err := patients.FindByID(context.Background(), patient.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.QRCode)
	assert.Equal(t, "PAT-AAAAAAAA-BBBBBB", *stored.QRCode)
}

// ── CRUD rules ────────────────────────────────────────────────────────────────

func TestCreatePatient_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := buildPatientService(t, db)

	_, err := svc.Create(context.Background(), dto.CreatePatientRequest{
		Name: "Uno", Email: "dup@example.com",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), dto.CreatePatientRequest{
		Name: "Dos", Email: "dup@example.com",
	})
	assert.ErrorIs(t, err, apierror.ErrDuplicateEmail)
}

func TestUpdatePatient_EmailCollision(t *testing.T) {
	db := newTestDB(t)
	svc := buildPatientService(t, db)

	_, err := svc.Create(context.Background(), dto.CreatePatientRequest{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)
	b, err := svc.Create(context.Background(), dto.CreatePatientRequest{Name: "B", Email: "b@example.com"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), b.ID, dto.UpdatePatientRequest{Email: "a@example.com"})
	assert.ErrorIs(t, err, apierror.ErrDuplicateEmail)
}

func TestDeletePatient_CascadesOwnedRecords(t *testing.T) {
	db := newTestDB(t)
	svc := buildPatientService(t, db)
	patient := seedTestPatient(t, db, "Borrada", "borrada@example.com")

	require.NoError(t, db.Create(&model.PatientPhoto{PatientID: patient.ID, Path: "x.jpg"}).Error)
	require.NoError(t, db.Create(&model.PatientDocument{PatientID: patient.ID, Name: "Consentimiento", Path: "c.pdf"}).Error)
	require.NoError(t, db.Create(&model.Appointment{
		PatientID: patient.ID, AppointmentTime: "10:00", Service: "Facial",
		Status: model.AppointmentScheduled,
	}).Error)

	// Sales survive with a detached patient reference.
	pid := patient.ID
	sale := &model.Sale{PatientID: &pid, PaymentMethod: model.PaymentCash, Status: model.SaleStatusCompleted}
	require.NoError(t, db.Create(sale).Error)

	require.NoError(t, svc.Delete(context.Background(), patient.ID))

	var photos, docs, appts int64
	db.Model(&model.PatientPhoto{}).Where("patient_id = ?", patient.ID).Count(&photos)
	db.Model(&model.PatientDocument{}).Where("patient_id = ?", patient.ID).Count(&docs)
	db.Model(&model.Appointment{}).Where("patient_id = ?", patient.ID).Count(&appts)
	assert.Zero(t, photos)
	assert.Zero(t, docs)
	assert.Zero(t, appts)

	var storedSale model.Sale
	require.NoError(t, db.First(&storedSale, "id = ?", sale.ID).Error)
	assert.Nil(t, storedSale.PatientID)

	_, err := svc.Get(context.Background(), patient.ID)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

// ── Documents ─────────────────────────────────────────────────────────────────

func TestSignDocument_Guards(t *testing.T) {
	db := newTestDB(t)
	svc := buildPatientService(t, db)
	patient := seedTestPatient(t, db, "Firmante", "firma@example.com")

	noSig := &model.PatientDocument{
		PatientID: patient.ID, Name: "Receta", Path: "r.pdf", RequiresSignature: false,
	}
	require.NoError(t, db.Create(noSig).Error)

	_, err := svc.SignDocument(context.Background(), patient.ID, noSig.ID, nil)
	assert.ErrorContains(t, err, "no requiere firma")

	signed := &model.PatientDocument{
		PatientID: patient.ID, Name: "Consentimiento", Path: "c.pdf",
		RequiresSignature: true, IsSigned: true,
	}
	require.NoError(t, db.Create(signed).Error)

	_, err = svc.SignDocument(context.Background(), patient.ID, signed.ID, nil)
	assert.ErrorContains(t, err, "ya está firmado")

	_, err = svc.SignDocument(context.Background(), patient.ID, uuid.New(), nil)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestDocumentFile_ResolvesStoredPath(t *testing.T) {
	db := newTestDB(t)
	root := t.TempDir()
	svc := service.NewPatientService(
		repository.NewPatientRepository(db),
		repository.NewDocumentRepository(db),
		repository.NewAppointmentRepository(db),
		repository.NewStaffRepository(db),
		infra.NewStorage(root),
	)
	patient := seedTestPatient(t, db, "Descarga", "descarga@example.com")

	// A document on disk, the way uploads land under the storage root.
	rel := filepath.Join("patients", patient.ID.String(), "documents", "consentimiento.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(root, rel)), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte("%PDF-1.4"), 0644))

	doc := &model.PatientDocument{
		PatientID: patient.ID, Name: "Consentimiento.pdf", Path: rel, Type: "consent",
	}
	require.NoError(t, db.Create(doc).Error)

	absPath, name, err := svc.DocumentFile(context.Background(), patient.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Consentimiento.pdf", name)

	data, err := os.ReadFile(absPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	_, _, err = svc.DocumentFile(context.Background(), patient.ID, uuid.New())
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

// ── Doctor visibility ─────────────────────────────────────────────────────────

func TestVisiblePatientIDs(t *testing.T) {
	db := newTestDB(t)
	svc := buildPatientService(t, db)

	doctorUser := &model.User{Name: "Dra. Ríos", Email: "rios@example.com", PasswordHash: "x", Role: model.RoleDoctor, Active: true}
	require.NoError(t, db.Create(doctorUser).Error)
	uid := doctorUser.ID
	staff := &model.StaffMember{UserID: &uid, Name: "Dra. Ríos", Position: "Doctor"}
	require.NoError(t, db.Create(staff).Error)

	attended := seedTestPatient(t, db, "Atendida", "atendida@example.com")
	seedTestPatient(t, db, "Ajena", "ajena@example.com")

	sid := staff.ID
	require.NoError(t, db.Create(&model.Appointment{
		PatientID: attended.ID, StaffMemberID: &sid,
		AppointmentTime: "09:00", Service: "Consulta", Status: model.AppointmentCompleted,
	}).Error)

	ids, err := svc.VisiblePatientIDs(context.Background(), doctorUser.ID)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, attended.ID, ids[0])

	// A user with no staff profile sees nobody.
	none, err := svc.VisiblePatientIDs(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}
