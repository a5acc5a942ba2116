package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"cbs/src/db"
	"cbs/src/lib"
	"cbs/src/models"
	"cbs/src/store"
	"cbs/src/types"

	"github.com/gin-gonic/gin"
)

func cacheCourts(courts []models.Court) {
	client := lib.GetRedisClient()
	if client == nil {
		return
	}
	if err := client.JSONSet(context.Background(), lib.CourtsCacheKey, "$", courts).Err(); err != nil {
		log.Printf("could not cache courts: %s\n", err.Error())
	}
}

func cachedCourts() ([]models.Court, bool) {
	client := lib.GetRedisClient()
	if client == nil {
		return nil, false
	}
	raw, err := client.JSONGet(context.Background(), lib.CourtsCacheKey, "$").Result()
	if err != nil || raw == "" {
		return nil, false
	}
	var pages [][]models.Court
	if err := json.Unmarshal([]byte(raw), &pages); err != nil || len(pages) == 0 {
		return nil, false
	}
	return pages[0], true
}

func courtIDParam(ctx *gin.Context) (uint, bool) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid court id"})
		return 0, false
	}
	return params.ID, true
}

func courtErrorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrCourtNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrNotOwner):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

func uploadCourtPhoto(ctx *gin.Context, courtID uint, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	key := fmt.Sprintf("courts/%d/photo%s", courtID, filepath.Ext(file.Filename))
	contentType := file.Header.Get("Content-Type")
	return lib.S3UploadObject(ctx, key, contentType, src)
}

func courtHandlers(g *gin.RouterGroup) {
	courts := func() *store.CourtStore { return store.NewCourtStore(db.GetDb()) }
	bookings := func() *store.BookingStore { return store.NewBookingStore(db.GetDb()) }

	g.POST("/courts", func(ctx *gin.Context) {
		var body types.CreateCourtRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		owner := ctx.GetString("address")
		court := &models.Court{
			Name:        body.Name,
			Location:    body.Location,
			Category:    body.Category,
			HourlyPrice: body.HourlyPrice,
			Description: body.Description,
			Owner:       owner,
			Available:   true,
		}
		if body.Available != nil {
			court.Available = *body.Available
		}
		if err := courts().Create(ctx, court); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		lib.InvalidateCourtsCache()
		ctx.JSON(http.StatusCreated, court)
	})

	g.GET("/courts", func(ctx *gin.Context) {
		if list, ok := cachedCourts(); ok {
			ctx.JSON(http.StatusOK, list)
			return
		}
		list, err := courts().List(ctx)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		cacheCourts(list)
		ctx.JSON(http.StatusOK, list)
	})

	g.GET("/courts/owned", func(ctx *gin.Context) {
		list, err := courts().ListByOwner(ctx, ctx.GetString("address"))
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, list)
	})

	g.GET("/courts/:id", func(ctx *gin.Context) {
		id, ok := courtIDParam(ctx)
		if !ok {
			return
		}
		court, err := courts().Get(ctx, id)
		if err != nil {
			ctx.JSON(courtErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, court)
	})

	g.PUT("/courts/:id", func(ctx *gin.Context) {
		id, ok := courtIDParam(ctx)
		if !ok {
			return
		}
		var body types.UpdateCourtRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		patch := map[string]any{}
		if body.Name != "" {
			patch["name"] = body.Name
		}
		if body.Location != "" {
			patch["location"] = body.Location
		}
		if body.Category != "" {
			patch["category"] = body.Category
		}
		if body.HourlyPrice != nil {
			patch["hourly_price"] = *body.HourlyPrice
		}
		if body.Description != nil {
			patch["description"] = *body.Description
		}
		if body.Available != nil {
			patch["available"] = *body.Available
		}
		if err := courts().Update(ctx, id, ctx.GetString("address"), patch); err != nil {
			ctx.JSON(courtErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		lib.InvalidateCourtsCache()
		ctx.JSON(http.StatusOK, gin.H{"updated": true})
	})

	g.DELETE("/courts/:id", func(ctx *gin.Context) {
		id, ok := courtIDParam(ctx)
		if !ok {
			return
		}
		if err := courts().Delete(ctx, id, ctx.GetString("address")); err != nil {
			ctx.JSON(courtErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		lib.InvalidateCourtsCache()
		ctx.JSON(http.StatusOK, gin.H{"deleted": true})
	})

	g.POST("/courts/:id/photo", func(ctx *gin.Context) {
		id, ok := courtIDParam(ctx)
		if !ok {
			return
		}
		file, err := ctx.FormFile("photo")
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
			return
		}
		url, err := uploadCourtPhoto(ctx, id, file)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err := courts().Update(ctx, id, ctx.GetString("address"), map[string]any{"image_url": url}); err != nil {
			ctx.JSON(courtErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		lib.InvalidateCourtsCache()
		ctx.JSON(http.StatusOK, gin.H{"url": url})
	})

	g.GET("/courts/:id/bookings", func(ctx *gin.Context) {
		id, ok := courtIDParam(ctx)
		if !ok {
			return
		}
		date := ctx.Query("date")
		if date == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required"})
			return
		}
		list, err := bookings().ListByCourtAndDate(ctx, id, date)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, list)
	})
}
