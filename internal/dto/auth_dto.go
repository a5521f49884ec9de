package dto

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=255"`
}

type RegisterPatientRequest struct {
	Name     string  `json:"name"     validate:"required,max=255"`
	Email    string  `json:"email"    validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=255"`
	Phone    *string `json:"phone"    validate:"omitempty,max=20"`
	Birthday *string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Address  *string `json:"address"  validate:"omitempty,max=500"`
}

type RegisterStaffRequest struct {
	Name     string `json:"name"     validate:"required,max=255"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=255"`
	Role     string `json:"role"     validate:"required,oneof=doctor staff admin"`
	// Optional professional profile; required for doctors that attend
	// appointments.
	Position       *string `json:"position"       validate:"omitempty,max=255"`
	Specialization *string `json:"specialization" validate:"omitempty,max=255"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	User         UserResponse `json:"user"`
}

type RegisterPatientResponse struct {
	LoginResponse
	Patient PatientResponse `json:"patient"`
}

type MeResponse struct {
	User    UserResponse     `json:"user"`
	Patient *PatientResponse `json:"patient,omitempty"`
}
