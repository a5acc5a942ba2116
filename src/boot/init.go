package boot

import (
	"context"
	"log"
	"time"

	"cbs/src/common"
	"cbs/src/config"
	"cbs/src/db"
	"cbs/src/lib"
	"cbs/src/models"
	"cbs/src/store"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Court{},
		&models.Booking{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}
	return db
}

// InitScheduler runs the cleanup job that cancels pending bookings whose
// date has already passed.
func InitScheduler() {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("Error creating scheduler: %s\n", err.Error())
		return
	}
	bookings := store.NewBookingStore(db.GetDb())
	_, err = sched.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			today := time.Now().Format(config.DATE_PARSE_FORMAT)
			n, err := bookings.ExpirePending(context.Background(), today)
			if err != nil {
				log.Printf("Error expiring stale bookings: %s\n", err.Error())
				return
			}
			if n > 0 {
				log.Printf("Expired %d stale pending bookings\n", n)
			}
		}),
	)
	if err != nil {
		log.Printf("Error scheduling cleanup job: %s\n", err.Error())
		return
	}
	sched.Start()
}

func InitBroker() {
	go lib.KafkaCreateTopics(lib.TopicBookingsAccepted)
	go common.AcceptedBookingsConsumer()
}
