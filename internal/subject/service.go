package subject

import (
	"context"
	"strings"
)

type Service interface {
	List(ctx context.Context, category string) ([]Subject, error)
	Create(ctx context.Context, req CreateRequest) (*Subject, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, category string) ([]Subject, error) {
	return s.repo.List(ctx, strings.TrimSpace(category))
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Subject, error) {
	return s.repo.Create(ctx, &Subject{
		Name:        strings.TrimSpace(req.Name),
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
	})
}
