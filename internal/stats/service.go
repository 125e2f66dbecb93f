package stats

import (
	"context"

	"go.uber.org/zap"

	"github.com/mhudec/kniznica/internal/model"
	"github.com/mhudec/kniznica/pkg/kafka"
)

type Service struct {
	log  *zap.Logger
	repo Repository
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{
		log:  log,
		repo: repo,
	}
}

func (s *Service) Record(ctx context.Context, event kafka.Event) error {
	return s.repo.Record(ctx, event)
}

func (s *Service) GetStats(ctx context.Context) ([]model.UserStats, error) {
	return s.repo.GetStats(ctx)
}
