package domain

// NameCount is a grouped aggregate bucket keyed by a label.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DateCount is a per-day aggregate bucket.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
