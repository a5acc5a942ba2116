package models

import "cbs/src/types"

type Court struct {
	ID          uint    `gorm:"primarykey" json:"id"`
	Name        string  `json:"name,omitempty"`
	Slug        string  `gorm:"index" json:"slug,omitempty"`
	Location    string  `json:"location,omitempty"`
	Category    string  `json:"category,omitempty"`
	HourlyPrice float32 `json:"hourly_price,omitempty"`
	Owner       string  `gorm:"index" json:"owner,omitempty"`
	Description string  `json:"description,omitempty"`
	Available   bool    `gorm:"default:true" json:"available"`
	ImageURL    string  `json:"image_url,omitempty"`

	Bookings []*Booking `json:"bookings,omitempty"`

	types.Timestamps
}
