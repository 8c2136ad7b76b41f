package entity

import "time"

// Category groups posts; names are unique.
type Category struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	AddDate time.Time `json:"add_date"`
}
