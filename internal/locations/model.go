package locations

import "time"

// Location is an application-only sales channel (outlet, mall, stockist).
// The real warehouse lives on the platform; it only gets a name-only row
// here once a movement references it by display name.
type Location struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Seed describes a default location ensured at bootstrap.
type Seed struct {
	Name string
	Type string
}

// DefaultSeeds is the starter set of outlet locations.
var DefaultSeeds = []Seed{
	{Name: "AlFateh", Type: "outlet"},
	{Name: "Imtiaz", Type: "outlet"},
	{Name: "Metro", Type: "outlet"},
	{Name: "GreenValley", Type: "outlet"},
}
