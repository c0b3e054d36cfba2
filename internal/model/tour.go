package model

import (
    "strings"
    "time"
)

// Tour categories accepted by tours.category.
const (
    CategoryAdventure = "ADVENTURE"
    CategoryFamily    = "FAMILY"
    CategoryHoneymoon = "HONEYMOON"
    CategoryWeekend   = "WEEKEND"
    CategoryCultural  = "CULTURAL"
    CategoryOther     = "OTHER"
)

var tourCategories = map[string]bool{
    CategoryAdventure: true,
    CategoryFamily:    true,
    CategoryHoneymoon: true,
    CategoryWeekend:   true,
    CategoryCultural:  true,
    CategoryOther:     true,
}

// ValidCategory reports whether c (case-insensitive) is a known category.
func ValidCategory(c string) bool { return tourCategories[strings.ToUpper(c)] }

// DefaultMaxGroupSize applies when a tour is created without one.
const DefaultMaxGroupSize = 20

// ItineraryDay is one day-structured entry of a tour itinerary.
type ItineraryDay struct {
    Day         int    `json:"day"`
    Title       string `json:"title"`
    Description string `json:"description"`
}

// Tour is a catalog item.  Prices are minor currency units.
type Tour struct {
    ID              uint64         `json:"id"`
    Title           string         `json:"title"`
    Slug            string         `json:"slug"`
    Description     string         `json:"description"`
    Highlights      []string       `json:"highlights"`
    Itinerary       []ItineraryDay `json:"itinerary"`
    LocationCountry string         `json:"location_country"`
    LocationCity    string         `json:"location_city"`
    Category        string         `json:"category"`
    DurationDays    int            `json:"duration_days"`
    BasePrice       int64          `json:"base_price"`
    DiscountPrice   *int64         `json:"discount_price,omitempty"`
    MaxGroupSize    int            `json:"max_group_size"`
    IsPublished     bool           `json:"is_published"`
    SEOTitle        *string        `json:"seo_title,omitempty"`
    SEODescription  *string        `json:"seo_description,omitempty"`
    CreatedAt       time.Time      `json:"created_at"`
    UpdatedAt       time.Time      `json:"updated_at"`

    Images []TourImage `json:"images,omitempty"`
}

// PricePerPerson is the discount price when set, otherwise the base price.
func (t Tour) PricePerPerson() int64 {
    if t.DiscountPrice != nil {
        return *t.DiscountPrice
    }
    return t.BasePrice
}

// TourImage belongs to exactly one tour and is ordered by SortOrder.
type TourImage struct {
    ID        uint64    `json:"id"`
    TourID    uint64    `json:"tour_id"`
    URL       string    `json:"url"`
    PublicID  *string   `json:"public_id,omitempty"`
    AltText   *string   `json:"alt_text,omitempty"`
    SortOrder int       `json:"sort_order"`
    CreatedAt time.Time `json:"created_at"`
}

// TourSummary is a catalog listing row with ratings aggregated on read.
type TourSummary struct {
    Tour
    AverageRating float64 `json:"average_rating"`
    ReviewCount   int64   `json:"review_count"`
    BookingCount  int64   `json:"booking_count,omitempty"`
}

// TourDetail is the public detail view of a published tour.
type TourDetail struct {
    Tour
    Reviews       []ReviewWithUser `json:"reviews"`
    AverageRating float64          `json:"average_rating"`
    ReviewCount   int64            `json:"review_count"`
}
