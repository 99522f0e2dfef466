package e6ai

import "time"

// Dmail is a private message on the imageboard. Immutable once observed;
// the remote is_read flag is owned by the remote system.
type Dmail struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	FromID    int64     `json:"from_id"`
	ToID      int64     `json:"to_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"is_read"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
}

type PostScore struct {
	Up    int `json:"up"`
	Down  int `json:"down"`
	Total int `json:"total"`
}

type PostFile struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Ext    string `json:"ext"`
	Size   int64  `json:"size"`
	URL    string `json:"url"`
}

type PostFlags struct {
	Pending bool `json:"pending"`
	Flagged bool `json:"flagged"`
	Deleted bool `json:"deleted"`
}

type Post struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Description string    `json:"description"`
	Score       PostScore `json:"score"`
	FavCount    int       `json:"fav_count"`
	File        PostFile  `json:"file"`
	Flags       PostFlags `json:"flags"`
	ApproverID  *int64    `json:"approver_id"`
}

type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
