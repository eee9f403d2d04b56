package model

import (
	"time"
)

type StatusType string

const (
	StatusReserved  StatusType = "RESERVED"
	StatusPickedUp  StatusType = "PICKED_UP"
	StatusReturned  StatusType = "RETURNED"
	StatusCancelled StatusType = "CANCELLED"
	StatusExpired   StatusType = "EXPIRED"
)

// transitions is the full set of legal status moves. Everything else is
// rejected as an invalid transition.
var transitions = map[StatusType]map[StatusType]struct{}{
	StatusReserved: {
		StatusPickedUp:  {},
		StatusCancelled: {},
		StatusExpired:   {},
	},
	StatusPickedUp: {
		StatusReturned: {},
	},
}

func CanTransition(current, next StatusType) bool {
	_, ok := transitions[current][next]
	return ok
}

// Consuming reports whether a reservation in this status holds a copy of
// the book.
func (s StatusType) Consuming() bool {
	return s == StatusReserved || s == StatusPickedUp
}

type Book struct {
	ID              string    `json:"bookId" db:"book_uid"`
	Title           string    `json:"title" db:"title"`
	ISBN            string    `json:"isbn" db:"isbn"`
	Author          string    `json:"author" db:"author"`
	Genre           string    `json:"genre" db:"genre"`
	PublishedYear   int       `json:"publishedYear" db:"published_year"`
	Publisher       string    `json:"publisher" db:"publisher"`
	Description     string    `json:"description" db:"description"`
	TotalCopies     int       `json:"totalCopies" db:"total_copies"`
	AvailableCopies int       `json:"availableCopies" db:"available_copies"`
	IsActive        bool      `json:"isActive" db:"is_active"`
	CreatedDate     time.Time `json:"createdDate" db:"created_date"`
}

type Reservation struct {
	ID      string `json:"reservationId" db:"reservation_uid"`
	BookID  string `json:"bookId" db:"book_uid"`
	UserID  string `json:"userId" db:"user_uid"`
	Remarks string `json:"remarks,omitempty" db:"remarks"`

	StatusHistory []ReservationStatus `json:"statusHistory" db:"-"`
}

// CurrentStatus is the most recently appended history event. History is
// never empty once a reservation exists.
func (r Reservation) CurrentStatus() StatusType {
	if len(r.StatusHistory) == 0 {
		return ""
	}
	return r.StatusHistory[len(r.StatusHistory)-1].Status
}

type ReservationStatus struct {
	ID              string     `json:"statusId" db:"status_uid"`
	ReservationID   string     `json:"reservationId" db:"reservation_uid"`
	Status          StatusType `json:"status" db:"status"`
	CreatedDate     time.Time  `json:"createdDate" db:"created_date"`
	CreatedByUserID string     `json:"createdByUserId" db:"created_by_user_uid"`
}

type CreateReservationRequest struct {
	BookID  string `json:"bookId" validate:"required,uuid"`
	Remarks string `json:"remarks" validate:"max=512"`
}

type CreateReservationResponse struct {
	ReservationID string     `json:"reservationId"`
	BookID        string     `json:"bookId"`
	Status        StatusType `json:"status"`
}

type AddBookRequest struct {
	Title         string `json:"title" validate:"required,max=256"`
	ISBN          string `json:"isbn" validate:"required,max=32"`
	Author        string `json:"author" validate:"required,max=256"`
	Genre         string `json:"genre" validate:"max=64"`
	PublishedYear int    `json:"publishedYear" validate:"gte=0"`
	Publisher     string `json:"publisher" validate:"max=256"`
	Description   string `json:"description" validate:"max=2048"`
	TotalCopies   int    `json:"totalCopies" validate:"required,gt=0"`
}

type UpdateBookRequest struct {
	Title           string `json:"title" validate:"required,max=256"`
	ISBN            string `json:"isbn" validate:"required,max=32"`
	Author          string `json:"author" validate:"required,max=256"`
	Genre           string `json:"genre" validate:"max=64"`
	PublishedYear   int    `json:"publishedYear" validate:"gte=0"`
	Publisher       string `json:"publisher" validate:"max=256"`
	Description     string `json:"description" validate:"max=2048"`
	TotalCopies     int    `json:"totalCopies" validate:"required,gt=0"`
	AvailableCopies int    `json:"availableCopies" validate:"gte=0"`
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
