package dto

// AppointmentFilter is bound from the query string of GET /v1/appointments.
type AppointmentFilter struct {
	Date          string `form:"date"            validate:"omitempty,datetime=2006-01-02"`
	Status        string `form:"status"          validate:"omitempty,oneof=scheduled confirmed completed cancelled"`
	PatientID     string `form:"patient_id"      validate:"omitempty,uuid"`
	StaffMemberID string `form:"staff_member_id" validate:"omitempty,uuid"`
	Page          int    `form:"page,default=1"   validate:"min=1"`
	Limit         int    `form:"limit,default=20" validate:"min=1,max=200"`
}

type CreateAppointmentRequest struct {
	PatientID       string  `json:"patient_id"       validate:"required,uuid"`
	StaffMemberID   *string `json:"staff_member_id"  validate:"omitempty,uuid"`
	AppointmentDate string  `json:"appointment_date" validate:"required,datetime=2006-01-02"`
	AppointmentTime string  `json:"appointment_time" validate:"required,datetime=15:04"`
	Service         string  `json:"service"          validate:"required,max=255"`
	Status          string  `json:"status"           validate:"omitempty,oneof=scheduled confirmed completed cancelled"`
	Notes           *string `json:"notes"`
}

type UpdateAppointmentRequest struct {
	PatientID       string  `json:"patient_id"       validate:"omitempty,uuid"`
	StaffMemberID   *string `json:"staff_member_id"  validate:"omitempty,uuid"`
	AppointmentDate string  `json:"appointment_date" validate:"omitempty,datetime=2006-01-02"`
	AppointmentTime string  `json:"appointment_time" validate:"omitempty,datetime=15:04"`
	Service         string  `json:"service"          validate:"omitempty,max=255"`
	Status          string  `json:"status"           validate:"omitempty,oneof=scheduled confirmed completed cancelled"`
	Notes           *string `json:"notes"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled confirmed completed cancelled"`
}

type AppointmentResponse struct {
	ID              string  `json:"id"`
	PatientID       string  `json:"patient_id"`
	PatientName     string  `json:"patient_name"`
	StaffMemberID   *string `json:"staff_member_id"`
	StaffMemberName string  `json:"staff_member_name,omitempty"`
	AppointmentDate string  `json:"appointment_date"`
	AppointmentTime string  `json:"appointment_time"`
	Service         string  `json:"service"`
	Status          string  `json:"status"`
	Notes           *string `json:"notes"`
	CreatedAt       string  `json:"created_at"`
}

type AppointmentListResponse struct {
	Data  []AppointmentResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
