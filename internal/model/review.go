package model

import "time"

const (
    MinRating = 1
    MaxRating = 5
)

// Review is a customer's rating of a tour; one per (tour, user).
type Review struct {
    ID         uint64    `json:"id"`
    TourID     uint64    `json:"tour_id"`
    UserID     uint64    `json:"user_id"`
    Rating     int       `json:"rating"`
    Comment    string    `json:"comment"`
    IsApproved bool      `json:"is_approved"`
    CreatedAt  time.Time `json:"created_at"`
    UpdatedAt  time.Time `json:"updated_at"`
}

// ReviewWithUser adds the reviewer and tour names for listings.
type ReviewWithUser struct {
    Review
    UserName  string `json:"user_name"`
    TourTitle string `json:"tour_title,omitempty"`
}
