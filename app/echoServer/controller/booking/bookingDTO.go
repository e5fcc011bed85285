package booking

import "time"

type CreateBookingReq struct {
	CreativeID int64     `json:"creative_id" validate:"required,gt=0"`
	DateTime   time.Time `json:"date_time" validate:"required"`
	Location   Location  `json:"location" validate:"required"`
	TotalPrice float64   `json:"total_price" validate:"required,gt=0"`
}

type Location struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

type TipReq struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}
