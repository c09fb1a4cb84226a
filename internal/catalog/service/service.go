// Package service resolves catalog services and holders for the workflow.
package service

import (
	"context"
	"errors"

	"govportal/internal/catalog/models"
	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/sentinel"
)

type Store interface {
	FindService(ctx context.Context, serviceID id.ServiceID) (*models.Service, error)
	ListServices(ctx context.Context) ([]models.Service, error)
	FindUser(ctx context.Context, userID id.UserID) (*models.User, error)
}

type Service struct {
	store Store
}

func New(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("catalog store is required")
	}
	return &Service{store: store}, nil
}

func (s *Service) FindService(ctx context.Context, serviceID id.ServiceID) (*models.Service, error) {
	svc, err := s.store.FindService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "service not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load service")
	}
	return svc, nil
}

func (s *Service) ListServices(ctx context.Context) ([]models.Service, error) {
	services, err := s.store.ListServices(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list services")
	}
	return services, nil
}

// DisplayName returns the holder's name, or the raw id when the holder is not
// known to the user directory.
func (s *Service) DisplayName(ctx context.Context, userID id.UserID) (string, error) {
	user, err := s.store.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return string(userID), nil
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if user.DisplayName == "" {
		return string(userID), nil
	}
	return user.DisplayName, nil
}
