package model

import "time"

type Stats struct {
	UserID       string    `json:"userId" db:"user_uid"`
	LastUpdated  time.Time `json:"lastUpdated" db:"last_updated"`
	Reservations int       `json:"reservations" db:"cnt_reservations"`
	PickedUp     int       `json:"pickedUp" db:"cnt_picked_up"`
	Returned     int       `json:"returned" db:"cnt_returned"`
	Cancelled    int       `json:"cancelled" db:"cnt_cancelled"`
	Expired      int       `json:"expired" db:"cnt_expired"`
}

type StatsInfo struct {
	Data []Stats `json:"data"`
}
