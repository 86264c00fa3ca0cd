package types

import (
	"time"
)

type Course struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Instructor   string    `json:"instructor"`
	ThumbnailURL string    `json:"thumbnail_url"`
	PriceCents   int       `json:"price_cents"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Course) Collection() string { return "courses" }


