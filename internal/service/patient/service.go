package patient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/repository"
	"github.com/jwalitptl/slotbook-api/internal/service"
	"github.com/jwalitptl/slotbook-api/pkg/cache"
	apperrors "github.com/jwalitptl/slotbook-api/pkg/errors"
	"github.com/jwalitptl/slotbook-api/pkg/security"
	"github.com/jwalitptl/slotbook-api/pkg/storage"
)

var avatarTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type PatientService interface {
	Register(ctx context.Context, req *model.RegisterPatientRequest) (*model.Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	UpdateProfile(ctx context.Context, principal *model.Principal, req *model.UpdatePatientRequest) (*model.Patient, error)
	UploadAvatar(ctx context.Context, principal *model.Principal, avatar *Avatar) (*model.Patient, error)
}

// Avatar is an image upload read from a multipart form.
type Avatar struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

type Service struct {
	repo          repository.PatientRepository
	hasher        security.PasswordHasher
	uploader      storage.Uploader
	summaries     *cache.Cache[*model.PatientSummary]
	maxAvatarSize int64
}

func NewService(repo repository.PatientRepository, hasher security.PasswordHasher, uploader storage.Uploader,
	summaries *cache.Cache[*model.PatientSummary], maxAvatarSize int64) *Service {
	return &Service{
		repo:          repo,
		hasher:        hasher,
		uploader:      uploader,
		summaries:     summaries,
		maxAvatarSize: maxAvatarSize,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterPatientRequest) (*model.Patient, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict("a patient with this email already exists", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, service.FromRepository("patient", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.Validation("password must be at least 8 characters", nil)
		}
		return nil, apperrors.Internal(err)
	}

	patient := &model.Patient{
		Email:        email,
		Name:         req.Name,
		PasswordHash: hash,
		City:         req.City,
		DateOfBirth:  req.DateOfBirth,
		Gender:       req.Gender,
		Contact:      req.Contact,
		BloodGroup:   req.BloodGroup,
	}
	if err := s.repo.Create(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("a patient with this email already exists", err)
		}
		return nil, service.FromRepository("patient", err)
	}

	log.Info().Str("patient_id", patient.ID.String()).Msg("patient registered")
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, service.FromRepository("patient", err)
	}
	return patient, nil
}

func (s *Service) UpdateProfile(ctx context.Context, principal *model.Principal, req *model.UpdatePatientRequest) (*model.Patient, error) {
	if !principal.IsPatient() {
		return nil, apperrors.Unauthorized("only patients can update a patient profile")
	}

	patient, err := s.GetPatient(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.City != nil {
		patient.City = *req.City
	}
	if req.DateOfBirth != nil {
		patient.DateOfBirth = *req.DateOfBirth
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.Contact != nil {
		patient.Contact = *req.Contact
	}
	if req.BloodGroup != nil {
		patient.BloodGroup = *req.BloodGroup
	}

	return s.save(ctx, patient)
}

func (s *Service) UploadAvatar(ctx context.Context, principal *model.Principal, avatar *Avatar) (*model.Patient, error) {
	if !principal.IsPatient() {
		return nil, apperrors.Unauthorized("only patients can upload an avatar")
	}

	ext, ok := avatarTypes[avatar.ContentType]
	if !ok {
		return nil, apperrors.Validation(fmt.Sprintf("unsupported avatar type %q", avatar.ContentType), nil)
	}
	if avatar.Size <= 0 || (s.maxAvatarSize > 0 && avatar.Size > s.maxAvatarSize) {
		return nil, apperrors.Validation(fmt.Sprintf("avatar must be between 1 and %d bytes", s.maxAvatarSize), nil)
	}

	patient, err := s.GetPatient(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	name := path.Join("patients", patient.ID.String(), uuid.NewString()+ext)
	url, err := s.uploader.Upload(ctx, name, avatar.ContentType, avatar.Body, avatar.Size)
	if err != nil {
		if errors.Is(err, storage.ErrDisabled) {
			return nil, apperrors.Validation("avatar uploads are not enabled", err)
		}
		return nil, apperrors.Internal(err)
	}

	patient.AvatarURL = url
	return s.save(ctx, patient)
}

func (s *Service) save(ctx context.Context, patient *model.Patient) (*model.Patient, error) {
	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, service.FromRepository("patient", err)
	}
	s.summaries.Delete(patient.ID.String())
	return patient, nil
}
