package auction

import (
	"fmt"
	"strings"

	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/store"
)

// defaultAdSlotID replaces a missing ad slot identifier.
const defaultAdSlotID = "unknown"

// Request is one incoming ad request before validation.
type Request struct {
	PublisherID string `json:"publisher_id"`
	AdSlotID    string `json:"ad_slot_id"`
	Geo         string `json:"geo"`
	Device      string `json:"device"`
	Time        string `json:"time"`
}

// ValidationError reports the required request fields that were missing.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid ad request: missing %s", strings.Join(e.Missing, ", "))
}

// Validate checks presence of all required fields. The ad slot id is
// optional and defaulted instead of rejected.
func (r Request) Validate() error {
	var missing []string
	if r.PublisherID == "" {
		missing = append(missing, "publisher_id")
	}
	if r.Geo == "" {
		missing = append(missing, "geo")
	}
	if r.Device == "" {
		missing = append(missing, "device")
	}
	if r.Time == "" {
		missing = append(missing, "time")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// record converts a validated request into its persistence form.
func (r Request) record() store.AdRequest {
	slot := r.AdSlotID
	if slot == "" {
		slot = defaultAdSlotID
	}
	return store.AdRequest{
		PublisherID: r.PublisherID,
		AdSlotID:    slot,
		Geo:         r.Geo,
		Device:      r.Device,
		RequestTime: r.Time,
	}
}
