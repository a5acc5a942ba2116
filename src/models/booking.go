package models

import "cbs/src/types"

type Booking struct {
	ID        uint    `gorm:"primarykey" json:"id"`
	CourtID   uint    `gorm:"index:idx_bookings_court_date" json:"court_id,omitempty"`
	Requester string  `gorm:"index" json:"requester,omitempty"`
	Date      string  `gorm:"index:idx_bookings_court_date" json:"date,omitempty"`
	StartTime string  `json:"start_time,omitempty"`
	EndTime   string  `json:"end_time,omitempty"`
	Status    string  `gorm:"default:'pending'" json:"status,omitempty"`
	Reason    *string `json:"reason,omitempty"`

	Court *Court `json:"court,omitempty"`

	types.Timestamps
}
