package doctor

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/repository"
	"github.com/jwalitptl/slotbook-api/internal/service"
	"github.com/jwalitptl/slotbook-api/pkg/cache"
	apperrors "github.com/jwalitptl/slotbook-api/pkg/errors"
	"github.com/jwalitptl/slotbook-api/pkg/security"
)

type DoctorService interface {
	Register(ctx context.Context, req *model.RegisterDoctorRequest) (*model.Doctor, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
	ListDoctors(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error)
	UpdateProfile(ctx context.Context, principal *model.Principal, req *model.UpdateDoctorRequest) (*model.Doctor, error)
}

type Service struct {
	repo      repository.DoctorRepository
	hasher    security.PasswordHasher
	summaries *cache.Cache[*model.DoctorSummary]
}

func NewService(repo repository.DoctorRepository, hasher security.PasswordHasher, summaries *cache.Cache[*model.DoctorSummary]) *Service {
	return &Service{
		repo:      repo,
		hasher:    hasher,
		summaries: summaries,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterDoctorRequest) (*model.Doctor, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict("a doctor with this email already exists", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, service.FromRepository("doctor", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.Validation("password must be at least 8 characters", nil)
		}
		return nil, apperrors.Internal(err)
	}

	doctor := &model.Doctor{
		Email:         email,
		Name:          req.Name,
		PasswordHash:  hash,
		Specialty:     req.Specialty,
		Price:         req.Price,
		Experience:    req.Experience,
		Gender:        req.Gender,
		Certification: req.Certification,
	}
	if err := s.repo.Create(ctx, doctor); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("a doctor with this email already exists", err)
		}
		return nil, service.FromRepository("doctor", err)
	}

	log.Info().Str("doctor_id", doctor.ID.String()).Msg("doctor registered")
	return doctor, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, service.FromRepository("doctor", err)
	}
	return doctor, nil
}

func (s *Service) ListDoctors(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	doctors, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, service.FromRepository("doctor", err)
	}
	return doctors, nil
}

func (s *Service) UpdateProfile(ctx context.Context, principal *model.Principal, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	if !principal.IsDoctor() {
		return nil, apperrors.Unauthorized("only doctors can update a doctor profile")
	}

	doctor, err := s.GetDoctor(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		doctor.Name = *req.Name
	}
	if req.Specialty != nil {
		doctor.Specialty = *req.Specialty
	}
	if req.Price != nil {
		doctor.Price = *req.Price
	}
	if req.Experience != nil {
		doctor.Experience = *req.Experience
	}
	if req.Gender != nil {
		doctor.Gender = *req.Gender
	}
	if req.Certification != nil {
		doctor.Certification = *req.Certification
	}

	if err := s.repo.Update(ctx, doctor); err != nil {
		return nil, service.FromRepository("doctor", err)
	}
	s.summaries.Delete(doctor.ID.String())
	return doctor, nil
}
