package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/repository"
	"github.com/jwalitptl/slotbook-api/pkg/auth"
	apperrors "github.com/jwalitptl/slotbook-api/pkg/errors"
	"github.com/jwalitptl/slotbook-api/pkg/security"
)

const msgInvalidCredentials = "invalid credentials"

type AuthService interface {
	LoginDoctor(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	LoginPatient(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	Logout(ctx context.Context, principal *model.Principal) error
	ValidateToken(ctx context.Context, token string) (*model.Principal, error)
}

type Service struct {
	doctors  repository.DoctorRepository
	patients repository.PatientRepository
	hasher   security.PasswordHasher
	jwtSvc   auth.JWTService
	revoker  auth.Revoker
}

func NewService(doctors repository.DoctorRepository, patients repository.PatientRepository,
	hasher security.PasswordHasher, jwtSvc auth.JWTService, revoker auth.Revoker) *Service {
	return &Service{
		doctors:  doctors,
		patients: patients,
		hasher:   hasher,
		jwtSvc:   jwtSvc,
		revoker:  revoker,
	}
}

func (s *Service) LoginDoctor(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	doctor, err := s.doctors.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, s.lookupFailure(err)
	}
	if err := s.checkPassword(doctor.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	return s.issue(&model.Principal{
		ID:    doctor.ID,
		Name:  doctor.Name,
		Email: doctor.Email,
		Role:  model.RoleDoctor,
	}, doctor)
}

func (s *Service) LoginPatient(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	patient, err := s.patients.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, s.lookupFailure(err)
	}
	if err := s.checkPassword(patient.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	return s.issue(&model.Principal{
		ID:    patient.ID,
		Name:  patient.Name,
		Email: patient.Email,
		Role:  model.RolePatient,
	}, patient)
}

// Logout revokes the token the principal authenticated with.
func (s *Service) Logout(ctx context.Context, principal *model.Principal) error {
	if principal == nil || principal.TokenID == "" {
		return apperrors.Unauthenticated("missing token", nil)
	}
	if err := s.revoker.Revoke(ctx, principal.TokenID, principal.ExpiresAt); err != nil {
		return apperrors.Internal(err)
	}

	log.Info().Str("principal_id", principal.ID.String()).Msg("token revoked")
	return nil
}

func (s *Service) ValidateToken(ctx context.Context, token string) (*model.Principal, error) {
	principal, err := s.jwtSvc.Validate(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperrors.Unauthenticated("token has expired", err)
		}
		return nil, apperrors.Unauthenticated("invalid token", err)
	}

	revoked, err := s.revoker.IsRevoked(ctx, principal.TokenID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if revoked {
		return nil, apperrors.Unauthenticated("token has been revoked", nil)
	}
	return principal, nil
}

func (s *Service) issue(principal *model.Principal, profile interface{}) (*model.LoginResponse, error) {
	token, expiresAt, err := s.jwtSvc.Issue(principal)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Role:        principal.Role,
		Profile:     profile,
	}, nil
}

// Unknown emails and wrong passwords produce the same error.
func (s *Service) lookupFailure(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.Unauthenticated(msgInvalidCredentials, nil)
	}
	return apperrors.Internal(err)
}

func (s *Service) checkPassword(hash, password string) error {
	err := s.hasher.Compare(hash, password)
	if err == nil {
		return nil
	}
	if errors.Is(err, security.ErrPasswordMismatch) {
		return apperrors.Unauthenticated(msgInvalidCredentials, nil)
	}
	return apperrors.Internal(err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
