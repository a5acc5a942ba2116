package main

import (
	"errors"
	"net/http"

	"cbs/src/booking"
	"cbs/src/db"
	"cbs/src/store"
	"cbs/src/types"

	"github.com/gin-gonic/gin"
)

func bookingErrorStatus(err error) int {
	switch {
	case errors.Is(err, booking.ErrSlotUnavailable):
		return http.StatusConflict
	case errors.Is(err, booking.ErrCourtUnavailable):
		return http.StatusConflict
	case errors.Is(err, booking.ErrCourtNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func bookingIDParam(ctx *gin.Context) (uint, bool) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return 0, false
	}
	return params.ID, true
}

func bookingHandlers(g *gin.RouterGroup, resolver *booking.Resolver) {
	bookings := func() *store.BookingStore { return store.NewBookingStore(db.GetDb()) }

	g.POST("/bookings", func(ctx *gin.Context) {
		var body types.CreateBookingRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		requester := ctx.GetString("address")
		id, err := resolver.ProposeBooking(ctx, body.CourtID, body.Date, body.StartTime, body.EndTime, requester)
		if err != nil {
			ctx.JSON(bookingErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusCreated, gin.H{"id": id, "status": types.BOOKING_PENDING})
	})

	g.PUT("/bookings/:id/cancel", func(ctx *gin.Context) {
		id, ok := bookingIDParam(ctx)
		if !ok {
			return
		}
		var body types.CancelBookingRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ok, err := resolver.CancelBooking(ctx, id, body.Reason)
		if err != nil {
			ctx.JSON(bookingErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		if !ok {
			ctx.JSON(http.StatusOK, gin.H{"canceled": false, "message": "no cancellable booking found"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"canceled": true})
	})

	g.GET("/bookings", func(ctx *gin.Context) {
		var filters types.BookingQueryFilters
		if err := ctx.ShouldBindQuery(&filters); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// callers only ever see their own bookings
		filters.Requester = ctx.GetString("address")
		list, err := bookings().List(ctx, filters)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, list)
	})

	g.GET("/bookings/:id", func(ctx *gin.Context) {
		id, ok := bookingIDParam(ctx)
		if !ok {
			return
		}
		b, err := bookings().ByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrBookingNotFound) {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if b.Requester != ctx.GetString("address") {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "booking does not belong to this account"})
			return
		}
		ctx.JSON(http.StatusOK, b)
	})
}
