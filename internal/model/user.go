package model

import "time"

// Roles carried in the JWT "role" claim and stored in users.role.
const (
    RoleCustomer = "CUSTOMER"
    RoleAdmin    = "ADMIN"
)

// User represents an application user record as stored in the `users` table.
// PasswordHash never leaves the service; handlers render users through their
// own response types or rely on the json:"-" tag.
type User struct {
    ID           uint64    `json:"id"`
    Name         string    `json:"name"`
    Email        string    `json:"email"`
    PasswordHash string    `json:"-"`
    Phone        *string   `json:"phone,omitempty"`
    Role         string    `json:"role"`
    IsActive     bool      `json:"is_active"`
    CreatedAt    time.Time `json:"created_at"`
    UpdatedAt    time.Time `json:"updated_at"`
}

// UserWithBookingCount is the admin users listing row.
type UserWithBookingCount struct {
    User
    BookingCount int64 `json:"booking_count"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the token handed to the client is stored.
type RefreshToken struct {
    ID        uint64
    UserID    uint64
    TokenHash string
    ExpiresAt time.Time
    RevokedAt *time.Time
    CreatedAt time.Time
}

// PasswordResetToken is a single-use reset credential.  Like refresh tokens,
// only the hash of the emailed token is persisted.
type PasswordResetToken struct {
    ID        uint64
    UserID    uint64
    TokenHash string
    ExpiresAt time.Time
    CreatedAt time.Time
}

// Expired reports whether the token can no longer be redeemed at now.
func (t PasswordResetToken) Expired(now time.Time) bool { return !now.Before(t.ExpiresAt) }
