package model

import (
    "encoding/json"
    "time"
)

// Contact message statuses.
const (
    MessageNew      = "NEW"
    MessageRead     = "READ"
    MessageArchived = "ARCHIVED"
)

func ValidMessageStatus(s string) bool {
    return s == MessageNew || s == MessageRead || s == MessageArchived
}

type ContactMessage struct {
    ID        uint64    `json:"id"`
    Name      string    `json:"name"`
    Email     string    `json:"email"`
    Message   string    `json:"message"`
    Status    string    `json:"status"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

// HomepageContent is a free-form JSON block (hero slides, testimonials, FAQ)
// addressed by key.
type HomepageContent struct {
    Key       string          `json:"key"`
    Content   json.RawMessage `json:"content"`
    UpdatedAt time.Time       `json:"updated_at"`
}
