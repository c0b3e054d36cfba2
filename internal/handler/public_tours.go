package handler

import (
    "errors"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/travel-agency-booking/internal/apperror"
    "github.com/iliyamo/travel-agency-booking/internal/model"
    "github.com/iliyamo/travel-agency-booking/internal/repository"
    "github.com/iliyamo/travel-agency-booking/internal/response"
)

// PublicTourHandler serves the unauthenticated catalog.  Only published
// tours are ever returned.
type PublicTourHandler struct {
    Tours   *repository.TourRepo
    Reviews *repository.ReviewRepo
}

func NewPublicTourHandler(t *repository.TourRepo, r *repository.ReviewRepo) *PublicTourHandler {
    if t == nil || r == nil {
        panic("nil repository passed to NewPublicTourHandler")
    }
    return &PublicTourHandler{Tours: t, Reviews: r}
}

// ListTours: GET /v1/tours with filters and pagination, newest first.
func (h *PublicTourHandler) ListTours(c echo.Context) error {
    page, limit := pageParams(c, 12, 100)
    q := repository.TourSearchQuery{
        Country:     strings.TrimSpace(c.QueryParam("country")),
        City:        strings.TrimSpace(c.QueryParam("city")),
        Category:    strings.ToUpper(strings.TrimSpace(c.QueryParam("category"))),
        MinPrice:    queryInt64(c, "min_price"),
        MaxPrice:    queryInt64(c, "max_price"),
        MinDuration: int(queryInt64(c, "min_duration")),
        MaxDuration: int(queryInt64(c, "max_duration")),
        Search:      strings.TrimSpace(c.QueryParam("search")),
        Page:        page,
        Limit:       limit,
    }
    if q.Category != "" && !model.ValidCategory(q.Category) {
        return response.BadRequest(c, "Invalid category")
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    tours, total, err := h.Tours.SearchPublished(ctx, q)
    if err != nil {
        return response.FromError(c, apperror.Internal("search tours", err))
    }
    return response.Paginated(c, tours, response.NewPagination(page, limit, total))
}

// GetTour: GET /v1/tours/:slug with images and approved reviews.
func (h *PublicTourHandler) GetTour(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    t, err := h.Tours.GetPublishedBySlug(ctx, c.Param("slug"))
    if errors.Is(err, repository.ErrTourNotFound) {
        return response.NotFound(c, "Tour not found")
    }
    if err != nil {
        return response.FromError(c, apperror.Internal("load tour", err))
    }
    reviews, err := h.Reviews.ListApprovedByTour(ctx, t.ID)
    if err != nil {
        return response.FromError(c, apperror.Internal("load reviews", err))
    }
    return response.Success(c, model.TourDetail{
        Tour:          t.Tour,
        Reviews:       reviews,
        AverageRating: t.AverageRating,
        ReviewCount:   t.ReviewCount,
    })
}

// ListTourReviews: GET /v1/tours/:slug/reviews, approved only.
func (h *PublicTourHandler) ListTourReviews(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    t, err := h.Tours.GetPublishedBySlug(ctx, c.Param("slug"))
    if errors.Is(err, repository.ErrTourNotFound) {
        return response.NotFound(c, "Tour not found")
    }
    if err != nil {
        return response.FromError(c, apperror.Internal("load tour", err))
    }
    reviews, err := h.Reviews.ListApprovedByTour(ctx, t.ID)
    if err != nil {
        return response.FromError(c, apperror.Internal("load reviews", err))
    }
    return response.Success(c, echo.Map{
        "reviews":        reviews,
        "average_rating": t.AverageRating,
        "review_count":   t.ReviewCount,
    })
}
