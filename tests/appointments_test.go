package tests

import (
	"context"
	"testing"

	"medispa/internal/apierror"
	"medispa/internal/dto"
	"medispa/internal/model"
	"medispa/internal/repository"
	"medispa/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func buildAppointmentService(db *gorm.DB) service.AppointmentService {
	return service.NewAppointmentService(
		repository.NewAppointmentRepository(db),
		repository.NewPatientRepository(db),
		repository.NewStaffRepository(db),
	)
}

func TestCreateAppointment(t *testing.T) {
	db := newTestDB(t)
	svc := buildAppointmentService(db)
	patient := seedTestPatient(t, db, "Paciente Uno", "uno@example.com")
	staff := seedTestStaff(t, db, "Dr. Sanz")
	sid := staff.ID.String()

	appt, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
		PatientID:       patient.ID.String(),
		StaffMemberID:   &sid,
		AppointmentDate: "2026-09-10",
		AppointmentTime: "10:00",
		Service:         "Limpieza facial",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentScheduled, appt.Status)
	assert.Equal(t, "10:00", appt.AppointmentTime)
}

func TestCreateAppointment_SlotConflict(t *testing.T) {
	db := newTestDB(t)
	svc := buildAppointmentService(db)
	p1 := seedTestPatient(t, db, "Primera", "primera@example.com")
	p2 := seedTestPatient(t, db, "Segunda", "segunda@example.com")
	staff := seedTestStaff(t, db, "Dra. Ortega")
	sid := staff.ID.String()

	_, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
		PatientID: p1.ID.String(), StaffMemberID: &sid,
		AppointmentDate: "2026-09-11", AppointmentTime: "15:30", Service: "Depilación láser",
	})
	require.NoError(t, err)

	// Same professional, same date, same time → rejected.
	_, err = svc.Create(context.Background(), dto.CreateAppointmentRequest{
		PatientID: p2.ID.String(), StaffMemberID: &sid,
		AppointmentDate: "2026-09-11", AppointmentTime: "15:30", Service: "Peeling",
	})
	assert.ErrorIs(t, err, apierror.ErrSlotTaken)

	// A different time slot is fine.
	_, err = svc.Create(context.Background(), dto.CreateAppointmentRequest{
		PatientID: p2.ID.String(), StaffMemberID: &sid,
		AppointmentDate: "2026-09-11", AppointmentTime: "16:00", Service: "Peeling",
	})
	assert.NoError(t, err)
}

func TestCreateAppointment_CancelledSlotIsFree(t *testing.T) {
	db := newTestDB(t)
	svc := buildAppointmentService(db)
	patient := seedTestPatient(t, db, "Cancela", "cancela@example.com")
	staff := seedTestStaff(t, db, "Dr. Vega")
	sid := staff.ID.String()

	first, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
		PatientID: patient.ID.String(), StaffMemberID: &sid,
		AppointmentDate: "2026-09-12", AppointmentTime: "11:00", Service: "Consulta",
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), first.ID, model.AppointmentCancelled)
	require.NoError(t, err)

	// The cancelled appointment no longer blocks the slot.
	_, err = svc.Create(context.Background(), dto.CreateAppointmentRequest{
		PatientID: patient.ID.String(), StaffMemberID: &sid,
		AppointmentDate: "2026-09-12", AppointmentTime: "11:00", Service: "Consulta",
	})
	assert.NoError(t, err)
}

func TestUpdateStatus_ReviveIntoTakenSlotRejected(t *testing.T) {
	db := newTestDB(t)
	svc := buildAppointmentService(db)
	p1 := seedTestPatient(t, db, "Original", "original@example.com")
	p2 := seedTestPatient(t, db, "Reemplazo", "reemplazo@example.com")
	staff := seedTestStaff(t, db, "Dra. Ibarra")
	sid := staff.ID.String()

	first, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
		PatientID: p1.ID.String(), StaffMemberID: &sid,
		AppointmentDate: "2026-09-01", AppointmentTime: "10:00", Service: "Consulta",
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), first.ID, model.AppointmentCancelled)
	require.NoError(t, err)

	// Another patient books the freed slot.
	_, err = svc.Create(context.Background(), dto.CreateAppointmentRequest{
		PatientID: p2.ID.String(), StaffMemberID: &sid,
		AppointmentDate: "2026-09-01", AppointmentTime: "10:00", Service: "Consulta",
	})
	require.NoError(t, err)

	// Reviving the cancelled appointment would double-book the slot.
	_, err = svc.UpdateStatus(context.Background(), first.ID, model.AppointmentScheduled)
	assert.ErrorIs(t, err, apierror.ErrSlotTaken)

	var n int64
	require.NoError(t, db.Model(&model.Appointment{}).
		Where("staff_member_id = ? AND appointment_time = ? AND status != ?", staff.ID, "10:00", model.AppointmentCancelled).
		Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestUpdateStatus_ReviveIntoFreeSlot(t *testing.T) {
	db := newTestDB(t)
	svc := buildAppointmentService(db)
	patient := seedTestPatient(t, db, "Vuelve", "vuelve@example.com")
	staff := seedTestStaff(t, db, "Dr. Campos")
	sid := staff.ID.String()

	appt, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
		PatientID: patient.ID.String(), StaffMemberID: &sid,
		AppointmentDate: "2026-09-02", AppointmentTime: "14:00", Service: "Masaje",
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), appt.ID, model.AppointmentCancelled)
	require.NoError(t, err)

	// Nobody took the slot in the meantime, so the revert is allowed.
	revived, err := svc.UpdateStatus(context.Background(), appt.ID, model.AppointmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentConfirmed, revived.Status)
}

func TestUpdateAppointment_DoesNotConflictWithItself(t *testing.T) {
	db := newTestDB(t)
	svc := buildAppointmentService(db)
	patient := seedTestPatient(t, db, "Mueve", "mueve@example.com")
	staff := seedTestStaff(t, db, "Dra. Pinto")
	sid := staff.ID.String()

	appt, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
		PatientID: patient.ID.String(), StaffMemberID: &sid,
		AppointmentDate: "2026-09-13", AppointmentTime: "09:00", Service: "Masaje",
	})
	require.NoError(t, err)

	// Updating only the notes keeps the same slot; must not collide with itself.
	notes := "traer estudios previos"
	updated, err := svc.Update(context.Background(), appt.ID, dto.UpdateAppointmentRequest{Notes: &notes})
	require.NoError(t, err)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, notes, *updated.Notes)
}

func TestUpdateAppointment_MoveIntoTakenSlot(t *testing.T) {
	db := newTestDB(t)
	svc := buildAppointmentService(db)
	p1 := seedTestPatient(t, db, "Fija", "fija@example.com")
	p2 := seedTestPatient(t, db, "Movida", "movida@example.com")
	staff := seedTestStaff(t, db, "Dr. Lara")
	sid := staff.ID.String()

	_, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
		PatientID: p1.ID.String(), StaffMemberID: &sid,
		AppointmentDate: "2026-09-14", AppointmentTime: "10:00", Service: "Facial",
	})
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
		PatientID: p2.ID.String(), StaffMemberID: &sid,
		AppointmentDate: "2026-09-14", AppointmentTime: "11:00", Service: "Facial",
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), second.ID, dto.UpdateAppointmentRequest{
		AppointmentTime: "10:00",
	})
	assert.ErrorIs(t, err, apierror.ErrSlotTaken)
}

func TestCreateAppointment_UnknownPatient(t *testing.T) {
	db := newTestDB(t)
	svc := buildAppointmentService(db)

	_, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
		PatientID:       "11111111-2222-3333-4444-555555555555",
		AppointmentDate: "2026-09-15",
		AppointmentTime: "10:00",
		Service:         "Consulta",
	})
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestDeleteAppointment(t *testing.T) {
	db := newTestDB(t)
	svc := buildAppointmentService(db)
	patient := seedTestPatient(t, db, "Borra", "borra@example.com")

	appt, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
		PatientID:       patient.ID.String(),
		AppointmentDate: "2026-09-16",
		AppointmentTime: "12:00",
		Service:         "Consulta",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), appt.ID))
	_, err = svc.Get(context.Background(), appt.ID)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}
