package entity

import "time"

// Post is a text entry in a category. Replies point at their parent through
// ParentID; Children is only populated when a thread is loaded.
type Post struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	RegDate    time.Time `json:"reg_date"`
	UserID     int64     `json:"user_id"`
	CategoryID int64     `json:"category_id"`
	ParentID   *int64    `json:"parent_id"`
	Children   []*Post   `json:"children"`
}
