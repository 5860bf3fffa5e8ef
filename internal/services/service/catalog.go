package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	serviceserrors "wellnest/internal/services/errors"
	"wellnest/internal/services/repository"
	"wellnest/pkg/config"
	apperrors "wellnest/pkg/errors"
	"wellnest/pkg/model"
	"wellnest/pkg/sanitizer"
)

type CatalogService interface {
	Create(ctx context.Context, svc *model.Service) error
	GetByID(ctx context.Context, id string) (*model.Service, error)
	GetAll(ctx context.Context, limit int, offset int, activeOnly bool) ([]*model.Service, int64, error)
	Update(ctx context.Context, id string, svc *model.Service) error
}

// AvailabilityInvalidator drops cached slot computations. Editing a
// service's duration changes the slots of every specialist offering it,
// so the whole cache must go. Satisfied by the availability service.
type AvailabilityInvalidator interface {
	InvalidateAll()
}

type catalogService struct {
	repo        repository.ServiceRepository
	validate    *validator.Validate
	invalidator AvailabilityInvalidator
	cfg         *config.Config
}

func NewCatalogService(repo repository.ServiceRepository, invalidator AvailabilityInvalidator, cfg *config.Config) CatalogService {
	return &catalogService{
		repo:        repo,
		validate:    validator.New(),
		invalidator: invalidator,
		cfg:         cfg,
	}
}

func (s *catalogService) Create(ctx context.Context, svc *model.Service) error {
	svc.ID = ""
	svc.Name = sanitizer.NormalizeName(svc.Name)
	svc.Description = sanitizer.TrimAndNormalize(svc.Description)

	if err := s.validate.Struct(svc); err != nil {
		s.cfg.Log.Warn("Service validation failed", "name", svc.Name, "error", err)
		return apperrors.Validation("Service validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, svc); err != nil {
		s.cfg.Log.Error("Failed to create service", "name", svc.Name, "error", err)
		return apperrors.Internal("Failed to create service", err)
	}

	s.cfg.Log.Info("Service created", "id", svc.ID, "name", svc.Name, "duration_min", svc.DurationMin)
	return nil
}

func (s *catalogService) GetByID(ctx context.Context, id string) (*model.Service, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Service ID cannot be empty")
	}

	svc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, serviceserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Service", id)
		}
		if errors.Is(err, serviceserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid service ID format")
		}
		s.cfg.Log.Error("Failed to get service", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve service", err)
	}

	return svc, nil
}

func (s *catalogService) GetAll(ctx context.Context, limit int, offset int, activeOnly bool) ([]*model.Service, int64, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > config.DefaultPaginationLimit {
		limit = config.DefaultPaginationLimit
	}
	if offset < 0 {
		offset = 0
	}

	services, err := s.repo.FindAll(ctx, limit, offset, activeOnly)
	if err != nil {
		s.cfg.Log.Error("Failed to list services", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve services", err)
	}

	count, err := s.repo.Count(ctx, activeOnly)
	if err != nil {
		s.cfg.Log.Error("Failed to count services", "error", err)
		return nil, 0, apperrors.Internal("Failed to count services", err)
	}

	return services, count, nil
}

func (s *catalogService) Update(ctx context.Context, id string, svc *model.Service) error {
	if id == "" {
		return apperrors.InvalidInput("Service ID cannot be empty")
	}

	svc.Name = sanitizer.NormalizeName(svc.Name)
	svc.Description = sanitizer.TrimAndNormalize(svc.Description)

	if err := s.validate.StructPartial(svc, "Name", "DurationMin"); err != nil {
		return apperrors.Validation("Service validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Update(ctx, id, svc); err != nil {
		if errors.Is(err, serviceserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Service", id)
		}
		if errors.Is(err, serviceserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid service ID format")
		}
		s.cfg.Log.Error("Failed to update service", "id", id, "error", err)
		return apperrors.Internal("Failed to update service", err)
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateAll()
	}

	s.cfg.Log.Info("Service updated", "id", id, "name", svc.Name)
	return nil
}
