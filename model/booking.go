package model

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingOngoing   BookingStatus = "ongoing"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking holds the escrow state for one engagement. HeldAmount is the
// portion of TotalPrice still escrowed by the platform; it reaches zero
// exactly when the booking leaves ongoing.
type Booking struct {
	ID            int64         `json:"id"`
	ClientID      int64         `json:"client_id"`
	CreativeID    int64         `json:"creative_id"`
	ScheduledAt   time.Time     `json:"scheduled_at"`
	LocationLat   float64       `json:"location_lat"`
	LocationLng   float64       `json:"location_lng"`
	TotalPrice    int64         `json:"total_price"`
	UpfrontAmount int64         `json:"upfront_amount"`
	HeldAmount    int64         `json:"held_amount"`
	Status        BookingStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}
