package lib

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"cbs/src/types"
)

var mintClient = &http.Client{Timeout: 10 * time.Second}

// MintBookingToken hands an accepted reservation to the token-minting
// service. The minter is an opaque collaborator: a failure here is
// logged by the caller and never rolls back the reservation.
func MintBookingToken(payload types.MintPayload) error {
	endpoint := os.Getenv("MINTER_URL")
	if endpoint == "" {
		log.Printf("MINTER_URL is not set, skipping mint for booking [%d]\n", payload.BookingID)
		return nil
	}
	body, err := json.Marshal(&payload)
	if err != nil {
		return err
	}
	res, err := mintClient.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("minter returned status %d for booking [%d]", res.StatusCode, payload.BookingID)
	}
	return nil
}
