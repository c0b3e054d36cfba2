package handler

import (
    "errors"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/travel-agency-booking/internal/apperror"
    "github.com/iliyamo/travel-agency-booking/internal/repository"
    "github.com/iliyamo/travel-agency-booking/internal/response"
    "github.com/iliyamo/travel-agency-booking/internal/service"
)

// ReviewHandler covers customer submission and admin moderation.
// Moderation changes what tour pages show, so it purges the public cache.
type ReviewHandler struct {
    Service     *service.ReviewService
    Reviews     *repository.ReviewRepo
    Cache       *redis.Client // may be nil
    CachePrefix string
}

func NewReviewHandler(s *service.ReviewService, r *repository.ReviewRepo, rdb *redis.Client, prefix string) *ReviewHandler {
    if s == nil || r == nil {
        panic("nil dependency passed to NewReviewHandler")
    }
    return &ReviewHandler{Service: s, Reviews: r, Cache: rdb, CachePrefix: prefix}
}

type createReviewReq struct {
    TourID  uint64 `json:"tour_id" validate:"required"`
    Rating  int    `json:"rating" validate:"required,min=1,max=5"`
    Comment string `json:"comment" validate:"required,max=5000"`
}

type moderateReviewReq struct {
    IsApproved *bool `json:"is_approved" validate:"required"`
}

// CreateReview: POST /v1/reviews.
func (h *ReviewHandler) CreateReview(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return response.FromError(c, err)
    }
    var req createReviewReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    rv, err := h.Service.Create(ctx, uid, req.TourID, req.Rating, req.Comment)
    if err != nil {
        return response.FromError(c, err)
    }
    return response.Created(c, echo.Map{
        "review":  rv,
        "message": "Review submitted and awaiting approval",
    })
}

// AdminListReviews: GET /v1/admin/reviews?approved=true|false.
func (h *ReviewHandler) AdminListReviews(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    list, err := h.Reviews.ListAdmin(ctx, queryBool(c, "approved"))
    if err != nil {
        return response.FromError(c, apperror.Internal("list reviews", err))
    }
    return response.Success(c, list)
}

// AdminModerateReview: PATCH /v1/admin/reviews/:id.
func (h *ReviewHandler) AdminModerateReview(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return response.FromError(c, err)
    }
    var req moderateReviewReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    rv, err := h.Reviews.SetApproved(ctx, id, *req.IsApproved)
    if errors.Is(err, repository.ErrReviewNotFound) {
        return response.NotFound(c, "Review not found")
    }
    if err != nil {
        return response.FromError(c, apperror.Internal("moderate review", err))
    }
    purgeTourCache(ctx, h.Cache, h.CachePrefix)
    return response.Success(c, rv)
}

// AdminDeleteReview: DELETE /v1/admin/reviews/:id.
func (h *ReviewHandler) AdminDeleteReview(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    err = h.Reviews.Delete(ctx, id)
    if errors.Is(err, repository.ErrReviewNotFound) {
        return response.NotFound(c, "Review not found")
    }
    if err != nil {
        return response.FromError(c, apperror.Internal("delete review", err))
    }
    purgeTourCache(ctx, h.Cache, h.CachePrefix)
    return response.Success(c, echo.Map{"message": "Review deleted"})
}
