package model

import "time"

type Book struct {
	BookID          string `json:"bookId"`
	Title           string `json:"title"`
	ISBN            string `json:"isbn"`
	Author          string `json:"author"`
	Genre           string `json:"genre"`
	TotalCopies     int    `json:"totalCopies"`
	AvailableCopies int    `json:"availableCopies"`
	IsActive        bool   `json:"isActive"`
}

type ReservationStatus struct {
	Status          string    `json:"status"`
	CreatedDate     time.Time `json:"createdDate"`
	CreatedByUserID string    `json:"createdByUserId"`
}

type Reservation struct {
	ReservationID string              `json:"reservationId"`
	BookID        string              `json:"bookId"`
	UserID        string              `json:"userId"`
	Remarks       string              `json:"remarks,omitempty"`
	StatusHistory []ReservationStatus `json:"statusHistory"`
}

type CreateReservationRequest struct {
	BookID  string `json:"bookId" validate:"required,uuid"`
	Remarks string `json:"remarks" validate:"max=512"`
}

type CreateReservationResponse struct {
	ReservationID string `json:"reservationId"`
	BookID        string `json:"bookId"`
	Status        string `json:"status"`
}

// ReservationDetail is a reservation joined with its book for list responses.
type ReservationDetail struct {
	Reservation
	Book *Book `json:"book,omitempty"`
}
