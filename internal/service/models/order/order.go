package order

import (
	"time"

	"github.com/google/uuid"
)

// Order represents a customer order submitted through an order form.
type Order struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Message     string    `json:"message"`
	State       string    `json:"state"`
	District    string    `json:"district"`
	Ward        string    `json:"ward"`
	Address     string    `json:"address"`
	ProductNote string    `json:"product_note"`
	Quantity    *int      `json:"quantity"`
	UTMSource   string    `json:"utm_source"`
	UTMMedium   string    `json:"utm_medium"`
	UTMCampaign string    `json:"utm_campaign"`
	UTMContent  string    `json:"utm_content"`
	UTMTerm     string    `json:"utm_term"`
	FormURL     string    `json:"form_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Patch is a partial set of order fields. Nil fields are left untouched.
// ID and CreatedAt are not patchable.
type Patch struct {
	Name        *string
	Phone       *string
	Message     *string
	State       *string
	District    *string
	Ward        *string
	Address     *string
	ProductNote *string
	Quantity    *int
	UTMSource   *string
	UTMMedium   *string
	UTMCampaign *string
	UTMContent  *string
	UTMTerm     *string
	FormURL     *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}
