package domain

// Cafe is one candidate card. Immutable once loaded into a deck.
type Cafe struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Rating   float64 `json:"rating"`
	OpenNow  *bool   `json:"openNow,omitempty"` // nil when unknown
	PhotoRef string  `json:"photoRef"`          // http(s) URL or opaque upstream photo reference
}

type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
)

func (d Direction) Valid() bool { return d == Left || d == Right }

// Decision is the committed outcome of a gesture or a manual control.
type Decision struct {
	Direction Direction
	CafeID    string
}

type Coords struct{ Lat, Lng float64 }
