package model

import (
	"time"
)

// Book is the catalog record. total_copies is owned by catalog
// administration; available_copies is mutated only by the reservation
// engine.
type Book struct {
	ID              int       `json:"-" db:"id"`
	BookUid         string    `json:"bookUid" db:"book_uid"`
	Title           string    `json:"title" db:"title"`
	Author          string    `json:"author" db:"author"`
	ISBN            string    `json:"isbn" db:"isbn"`
	Description     *string   `json:"description,omitempty" db:"description"`
	CoverImage      *string   `json:"coverImage,omitempty" db:"cover_image"`
	TotalCopies     int       `json:"totalCopies" db:"total_copies"`
	AvailableCopies int       `json:"availableCopies" db:"available_copies"`
	CreatedAt       time.Time `json:"-" db:"created_at"`
}

// Reservation is a live claim by one user on one copy of one book.
// Presence of the row is the sole source of truth for "active";
// cancellation deletes it.
type Reservation struct {
	ID              int       `json:"-" db:"id"`
	ReservationUid  string    `json:"reservationUid" db:"reservation_uid"`
	Username        string    `json:"username" db:"username"`
	BookUid         string    `json:"bookUid" db:"book_uid"`
	ReservationDate time.Time `json:"reservationDate" db:"reservation_date"`
}

// UserReservation is a ledger row joined with its book summary for the
// "my reservations" view.
type UserReservation struct {
	ReservationUid  string    `json:"reservationUid" db:"reservation_uid"`
	BookUid         string    `json:"bookUid" db:"book_uid"`
	Title           string    `json:"title" db:"title"`
	Author          string    `json:"author" db:"author"`
	ISBN            string    `json:"isbn" db:"isbn"`
	ReservationDate time.Time `json:"reservationDate" db:"reservation_date"`
}

type ListBooksRequest struct {
	Page    int  `query:"page" validate:"gte=0"`
	Size    int  `query:"size" validate:"gte=0,lte=100"`
	ShowAll bool `query:"showAll"`
}

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type ListBooks struct {
	Paging
	Items []Book `json:"items"`
}

type UserStats struct {
	Username           string    `json:"username" db:"username"`
	ActiveReservations int       `json:"activeReservations" db:"active_reservations"`
	TotalEvents        int       `json:"totalEvents" db:"total_events"`
	LastUpdated        time.Time `json:"lastUpdated" db:"last_updated"`
}
