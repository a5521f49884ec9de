package service

import (
	"context"
	"errors"
	"time"

	"medispa/internal/apierror"
	"medispa/internal/config"
	"medispa/internal/dto"
	"medispa/internal/model"
	"medispa/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)

	// RegisterPatient creates the login account and the patient profile
	// atomically, QR code included.
	RegisterPatient(ctx context.Context, req dto.RegisterPatientRequest) (*dto.RegisterPatientResponse, error)

	// RegisterStaff creates a doctor/staff/admin account, with the
	// professional profile when position data is given.
	RegisterStaff(ctx context.Context, req dto.RegisterStaffRequest) (*dto.UserResponse, error)

	Me(ctx context.Context, userID uuid.UUID) (*dto.MeResponse, error)
}

type authService struct {
	users    repository.UserRepository
	patients repository.PatientRepository
	staff    repository.StaffRepository
	cfg      *config.Config
}

func NewAuthService(
	users repository.UserRepository,
	patients repository.PatientRepository,
	staff repository.StaffRepository,
	cfg *config.Config,
) AuthService {
	return &authService{users: users, patients: patients, staff: staff, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, apierror.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, apierror.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apierror.ErrInvalidCredentials
	}
	return s.tokenPair(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("refresh token inválido o expirado")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("claims inválidos")
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("token mal formado")
	}
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, errors.New("token mal formado")
	}

	user, err := s.users.FindByID(ctx, uid)
	if err != nil || !user.Active {
		return nil, errors.New("usuario no encontrado o inactivo")
	}
	return s.tokenPair(user)
}

func (s *authService) RegisterPatient(ctx context.Context, req dto.RegisterPatientRequest) (*dto.RegisterPatientResponse, error) {
	if existing, err := s.users.FindByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, apierror.ErrDuplicateEmail
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing, err := s.patients.FindByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, apierror.ErrDuplicateEmail
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         model.RolePatient,
		Active:       true,
	}
	patient := &model.Patient{
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
		patient.Birthday = &bd
	}

	// Account and profile go together or not at all.
	txErr := runTx(ctx, s.users.DB(), func(tx *gorm.DB) error {
		if err := s.users.Create(ctx, tx, user); err != nil {
			return err
		}
		uid := user.ID
		patient.UserID = &uid
		return s.patients.Create(ctx, tx, patient)
	})
	if txErr != nil {
		return nil, txErr
	}

	if err := s.patients.AssignQRCode(ctx, patient.ID, model.QRCodeFor(patient.ID, patient.Email)); err != nil {
		return nil, err
	}
	patient, err = s.patients.FindByID(ctx, patient.ID)
	if err != nil {
		return nil, err
	}

	login, err := s.tokenPair(user)
	if err != nil {
		return nil, err
	}
	return &dto.RegisterPatientResponse{
		LoginResponse: *login,
		Patient:       *PatientToResponse(patient),
	}, nil
}

func (s *authService) RegisterStaff(ctx context.Context, req dto.RegisterStaffRequest) (*dto.UserResponse, error) {
	if existing, err := s.users.FindByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, apierror.ErrDuplicateEmail
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       true,
	}

	txErr := runTx(ctx, s.users.DB(), func(tx *gorm.DB) error {
		if err := s.users.Create(ctx, tx, user); err != nil {
			return err
		}
		if req.Position == nil && req.Role != model.RoleDoctor {
			return nil
		}
		uid := user.ID
		email := req.Email
		member := &model.StaffMember{
			UserID:         &uid,
			Name:           req.Name,
			Position:       positionOrDefault(req.Position, req.Role),
			Specialization: req.Specialization,
			Email:          &email,
		}
		return tx.Create(member).Error
	})
	if txErr != nil {
		return nil, txErr
	}

	return &dto.UserResponse{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}, nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*dto.MeResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.ErrNotFound
		}
		return nil, err
	}

	resp := &dto.MeResponse{
		User: dto.UserResponse{
			ID:    user.ID.String(),
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
	}
	if user.Role == model.RolePatient {
		if patient, err := s.patients.FindByEmail(ctx, user.Email); err == nil {
			resp.Patient = PatientToResponse(patient)
		}
	}
	return resp, nil
}

func (s *authService) tokenPair(user *model.User) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User: dto.UserResponse{
			ID:    user.ID.String(),
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}

func (s *authService) generateToken(user *model.User, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(duration).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func positionOrDefault(position *string, role string) string {
	if position != nil && *position != "" {
		return *position
	}
	if role == model.RoleDoctor {
		return "Doctor"
	}
	return "Staff"
}
