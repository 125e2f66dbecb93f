package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/mhudec/kniznica/internal/events"
	"github.com/mhudec/kniznica/internal/model"
	"github.com/mhudec/kniznica/internal/repository"
	"github.com/mhudec/kniznica/pkg/keylock"
)

// Service is the reservation engine. It is the sole writer of
// available_copies and the reservation ledger. Mutating calls for the
// same book are serialized through a per-book lock; calls for distinct
// books proceed independently. The repository transaction re-validates
// everything under a row lock, so the engine stays correct even with
// several replicas sharing one database.
type Service struct {
	log    *zap.Logger
	repo   repository.Repository
	locks  *keylock.KeyLock
	events events.Publisher
}

func NewService(repo repository.Repository, pub events.Publisher, log *zap.Logger) *Service {
	return &Service{
		log:    log,
		repo:   repo,
		locks:  keylock.New(),
		events: pub,
	}
}

// Reserve claims one copy of the book for the user. Business failures
// (ErrBookNotFound, ErrBookUnavailable, ErrAlreadyReserved) are expected
// outcomes and are not logged here; the event is published only after
// the commit, outside the lock.
func (s *Service) Reserve(ctx context.Context, username, bookUid string) (model.Reservation, error) {
	res, err := s.reserveLocked(ctx, username, bookUid)
	if err != nil {
		return model.Reservation{}, err
	}

	s.events.ReservationCreated(res)
	return res, nil
}

func (s *Service) reserveLocked(ctx context.Context, username, bookUid string) (model.Reservation, error) {
	s.locks.Lock(bookUid)
	defer s.locks.Unlock(bookUid)
	return s.repo.CreateReservation(ctx, username, bookUid)
}

// Cancel releases the user's claim. The ledger row is hard deleted and
// the counter returns to a value it previously held, so it can never
// exceed total_copies.
func (s *Service) Cancel(ctx context.Context, username, bookUid string) error {
	res, err := s.cancelLocked(ctx, username, bookUid)
	if err != nil {
		return err
	}

	s.events.ReservationCancelled(res)
	return nil
}

func (s *Service) cancelLocked(ctx context.Context, username, bookUid string) (model.Reservation, error) {
	s.locks.Lock(bookUid)
	defer s.locks.Unlock(bookUid)
	return s.repo.DeleteReservation(ctx, username, bookUid)
}

func (s *Service) GetReservation(ctx context.Context, username, bookUid string) (model.Reservation, error) {
	return s.repo.GetReservation(ctx, username, bookUid)
}

func (s *Service) ListUserReservations(ctx context.Context, username string) ([]model.UserReservation, error) {
	return s.repo.GetUserReservations(ctx, username)
}

// Reads below are unguarded by design: catalog listing may observe a
// stale count that a reservation attempt re-validates against fresh
// state.

func (s *Service) ListBooks(ctx context.Context, req model.ListBooksRequest) (model.ListBooks, error) {
	return s.repo.ListBooks(ctx, req.ShowAll, req.Page, req.Size)
}

func (s *Service) GetBook(ctx context.Context, bookUid string) (model.Book, error) {
	return s.repo.GetBook(ctx, bookUid)
}
