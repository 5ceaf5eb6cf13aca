package listings

import "time"

// Listing is a property in the catalog. Neighborhood and market hold
// source-provided attribute maps; the service only ever renders them into
// prompt text, so they stay untyped.
type Listing struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Address      string         `json:"address"`
	PriceCents   int64          `json:"price_cents"`
	Beds         int            `json:"beds"`
	Baths        float64        `json:"baths"`
	Sqft         int            `json:"sqft"`
	Description  string         `json:"description"`
	Features     []string       `json:"features"`
	Neighborhood map[string]any `json:"neighborhood,omitempty"`
	Market       map[string]any `json:"market,omitempty"`
	AgentEmail   string         `json:"agent_email,omitempty"`
	AgentName    string         `json:"agent_name,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
