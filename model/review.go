package model

import "time"

// Review is one rating of a creative by a client, unique per pair.
type Review struct {
	ID         int64     `json:"id"`
	CreativeID int64     `json:"creative_id"`
	ClientID   int64     `json:"client_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
