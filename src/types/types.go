package types

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

// RequestEnvelope is the shape every operation travels in: `type` selects
// the dispatcher, `subType` the operation, `data` is the operation payload.
// ReqID is present only on write requests and is generated by the caller.
type RequestEnvelope struct {
	Type    string          `json:"type"`
	SubType string          `json:"subType"`
	Data    json.RawMessage `json:"data,omitempty"`
	ReqID   string          `json:"reqId,omitempty"`
}

// ResponseEnvelope carries either a success value or an error with the
// request that produced it. ReqID echoes the inbound correlation token so
// the issuing client can match the response; it sits at the transport
// layer, not inside the payload.
type ResponseEnvelope struct {
	Success json.RawMessage  `json:"success,omitempty"`
	Error   string           `json:"error,omitempty"`
	Request *RequestEnvelope `json:"request,omitempty"`
	ReqID   string           `json:"reqId,omitempty"`
}

// IsError reports whether the envelope carries a failure.
func (r ResponseEnvelope) IsError() bool {
	return r.Error != ""
}

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_CANCELED  BookingStatus = "cancelled"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type CreateCourtRequestBody struct {
	Name        string  `json:"name" binding:"required"`
	Location    string  `json:"location" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	HourlyPrice float32 `json:"hourly_price" binding:"required,gt=0"`
	Description string  `json:"description,omitempty"`
	Available   *bool   `json:"available,omitempty"`
}

type UpdateCourtRequestBody struct {
	Name        string   `json:"name,omitempty"`
	Location    string   `json:"location,omitempty"`
	Category    string   `json:"category,omitempty"`
	HourlyPrice *float32 `json:"hourly_price,omitempty" binding:"omitempty,gt=0"`
	Description *string  `json:"description,omitempty"`
	Available   *bool    `json:"available,omitempty"`
}

type CreateBookingRequestBody struct {
	CourtID   uint   `json:"court_id" binding:"required"`
	Date      string `json:"date" binding:"required,slotdate"`
	StartTime string `json:"start_time" binding:"required,slottime"`
	EndTime   string `json:"end_time" binding:"required,slottime,gttime=StartTime"`
}

type CancelBookingRequestBody struct {
	Reason string `json:"reason" binding:"required"`
}

type BookingQueryFilters struct {
	Requester string `form:"requester,omitempty"`
	Date      string `form:"date,omitempty"`
}

type LoginRequestBody struct {
	Address string `json:"address" binding:"required"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
}

// MintPayload is what the mint side effect receives once a booking has
// been accepted. Minting is best effort: its outcome never feeds back
// into the reservation.
type MintPayload struct {
	BookingID uint   `json:"booking_id"`
	CourtID   uint   `json:"court_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type Handler func(payload string)
