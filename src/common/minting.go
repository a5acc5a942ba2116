package common

import (
	"encoding/json"
	"log"

	"cbs/src/lib"
	"cbs/src/types"

	"github.com/tidwall/gjson"
)

// AcceptedBookingsConsumer listens for accepted reservations and triggers
// the mint side effect for each one. Best effort by design: a mint
// failure is logged and the message is not retried.
func AcceptedBookingsConsumer() {
	topic := lib.TopicBookingsAccepted
	log.Printf("%s: Listening for messages...", topic)
	lib.KafkaConsume("cbs_minting", []string{topic}, func(body string) {
		if !gjson.Valid(body) {
			log.Printf("[%s]: Received invalid json body. Aborting", topic)
			return
		}
		bookingId := gjson.Get(body, "booking_id")
		if !bookingId.Exists() {
			log.Printf("[%s]: Message has no booking_id. Aborting", topic)
			return
		}
		var payload types.MintPayload
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			log.Printf("Error deserializing JSON: %s\n", err.Error())
			return
		}
		log.Printf("[%s]: minting token for booking [%d]\n", topic, payload.BookingID)
		if err := lib.MintBookingToken(payload); err != nil {
			log.Printf("Error minting token for booking [%d]: %s\n", payload.BookingID, err.Error())
		}
	})
}
