package service

import (
	"context"
	"errors"
	"time"

	"medispa/internal/apierror"
	"medispa/internal/dto"
	"medispa/internal/model"
	"medispa/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentService interface {
	Create(ctx context.Context, req dto.CreateAppointmentRequest) (*model.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, filter dto.AppointmentFilter) (*dto.AppointmentListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateAppointmentRequest) (*model.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*model.Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type appointmentService struct {
	repo     repository.AppointmentRepository
	patients repository.PatientRepository
	staff    repository.StaffRepository
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	patients repository.PatientRepository,
	staff repository.StaffRepository,
) AppointmentService {
	return &appointmentService{repo: repo, patients: patients, staff: staff}
}

func (s *appointmentService) Create(ctx context.Context, req dto.CreateAppointmentRequest) (*model.Appointment, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apierror.Business("patient_id inválido")
	}
	if _, err := s.patients.FindByID(ctx, patientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.ErrNotFound
		}
		return nil, err
	}

	var staffID *uuid.UUID
	if req.StaffMemberID != nil {
		sid, err := uuid.Parse(*req.StaffMemberID)
		if err != nil {
			return nil, apierror.Business("staff_member_id inválido")
		}
		if _, err := s.staff.FindByID(ctx, sid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierror.ErrNotFound
			}
			return nil, err
		}
		staffID = &sid
	}

	date, err := time.Parse("2006-01-02", req.AppointmentDate)
	if err != nil {
		return nil, apierror.Business("fecha inválida")
	}

	status := req.Status
	if status == "" {
		status = model.AppointmentScheduled
	}

	appt := &model.Appointment{
		PatientID:       patientID,
		StaffMemberID:   staffID,
		AppointmentDate: date,
		AppointmentTime: req.AppointmentTime,
		Service:         req.Service,
		Status:          status,
		Notes:           req.Notes,
	}

	// The slot check and the insert share one transaction so two bookings on
	// the same slot cannot both pass the check.
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if staffID != nil && status != model.AppointmentCancelled {
			taken, err := s.repo.SlotTakenTx(tx, *staffID, date, req.AppointmentTime, uuid.Nil)
			if err != nil {
				return err
			}
			if taken {
				return apierror.ErrSlotTaken
			}
		}
		return s.repo.CreateTx(tx, appt)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.repo.FindByID(ctx, appt.ID)
}

func (s *appointmentService) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.ErrNotFound
		}
		return nil, err
	}
	return appt, nil
}

func (s *appointmentService) List(ctx context.Context, filter dto.AppointmentFilter) (*dto.AppointmentListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	appts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.AppointmentResponse, 0, len(appts))
	for i := range appts {
		items = append(items, *AppointmentToResponse(&appts[i]))
	}
	return &dto.AppointmentListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *appointmentService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateAppointmentRequest) (*model.Appointment, error) {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.PatientID != "" {
		pid, err := uuid.Parse(req.PatientID)
		if err != nil {
			return nil, apierror.Business("patient_id inválido")
		}
		if _, err := s.patients.FindByID(ctx, pid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierror.ErrNotFound
			}
			return nil, err
		}
		appt.PatientID = pid
	}
	if req.StaffMemberID != nil {
		sid, err := uuid.Parse(*req.StaffMemberID)
		if err != nil {
			return nil, apierror.Business("staff_member_id inválido")
		}
		if _, err := s.staff.FindByID(ctx, sid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierror.ErrNotFound
			}
			return nil, err
		}
		appt.StaffMemberID = &sid
	}
	if req.AppointmentDate != "" {
		date, err := time.Parse("2006-01-02", req.AppointmentDate)
		if err != nil {
			return nil, apierror.Business("fecha inválida")
		}
		appt.AppointmentDate = date
	}
	if req.AppointmentTime != "" {
		appt.AppointmentTime = req.AppointmentTime
	}
	if req.Service != "" {
		appt.Service = req.Service
	}
	if req.Status != "" {
		appt.Status = req.Status
	}
	if req.Notes != nil {
		appt.Notes = req.Notes
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if appt.StaffMemberID != nil && appt.Status != model.AppointmentCancelled {
			taken, err := s.repo.SlotTakenTx(tx, *appt.StaffMemberID, appt.AppointmentDate, appt.AppointmentTime, appt.ID)
			if err != nil {
				return err
			}
			if taken {
				return apierror.ErrSlotTaken
			}
		}
		return s.repo.UpdateTx(tx, appt)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.repo.FindByID(ctx, id)
}

func (s *appointmentService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*model.Appointment, error) {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Reviving a cancelled appointment re-claims the slot, so the slot check
	// runs in the same transaction as the status change.
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if appt.StaffMemberID != nil && status != model.AppointmentCancelled {
			taken, err := s.repo.SlotTakenTx(tx, *appt.StaffMemberID, appt.AppointmentDate, appt.AppointmentTime, appt.ID)
			if err != nil {
				return err
			}
			if taken {
				return apierror.ErrSlotTaken
			}
		}
		return s.repo.UpdateStatusTx(tx, id, status)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.repo.FindByID(ctx, id)
}

func (s *appointmentService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func AppointmentToResponse(a *model.Appointment) *dto.AppointmentResponse {
	resp := &dto.AppointmentResponse{
		ID:              a.ID.String(),
		PatientID:       a.PatientID.String(),
		AppointmentDate: a.AppointmentDate.Format("2006-01-02"),
		AppointmentTime: a.AppointmentTime,
		Service:         a.Service,
		Status:          a.Status,
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
	}
	if a.Patient != nil {
		resp.PatientName = a.Patient.Name
	}
	if a.StaffMemberID != nil {
		sid := a.StaffMemberID.String()
		resp.StaffMemberID = &sid
	}
	if a.StaffMember != nil {
		resp.StaffMemberName = a.StaffMember.Name
	}
	return resp
}
