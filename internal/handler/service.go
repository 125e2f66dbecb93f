package handler

import (
	"context"

	"github.com/mhudec/kniznica/internal/model"
	"github.com/mhudec/kniznica/internal/service"
	"github.com/mhudec/kniznica/internal/stats"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type ReservationService interface {
	Reserve(ctx context.Context, username, bookUid string) (model.Reservation, error)
	Cancel(ctx context.Context, username, bookUid string) error
	GetReservation(ctx context.Context, username, bookUid string) (model.Reservation, error)
	ListUserReservations(ctx context.Context, username string) ([]model.UserReservation, error)
	ListBooks(ctx context.Context, req model.ListBooksRequest) (model.ListBooks, error)
	GetBook(ctx context.Context, bookUid string) (model.Book, error)
}

type StatsService interface {
	GetStats(ctx context.Context) ([]model.UserStats, error)
}

var _ ReservationService = (*service.Service)(nil)
var _ StatsService = (*stats.Service)(nil)
