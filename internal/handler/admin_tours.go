package handler

import (
    "context"
    "errors"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog/log"

    "github.com/iliyamo/travel-agency-booking/internal/apperror"
    "github.com/iliyamo/travel-agency-booking/internal/media"
    "github.com/iliyamo/travel-agency-booking/internal/middleware"
    "github.com/iliyamo/travel-agency-booking/internal/model"
    "github.com/iliyamo/travel-agency-booking/internal/repository"
    "github.com/iliyamo/travel-agency-booking/internal/response"
    "github.com/iliyamo/travel-agency-booking/internal/utils"
)

// AdminTourHandler manages the catalog.  Every write purges the public
// response cache.
type AdminTourHandler struct {
    Tours       *repository.TourRepo
    Media       media.Store
    Cache       *redis.Client // may be nil
    CachePrefix string
}

func NewAdminTourHandler(t *repository.TourRepo, m media.Store, rdb *redis.Client, prefix string) *AdminTourHandler {
    if t == nil || m == nil {
        panic("nil dependency passed to NewAdminTourHandler")
    }
    return &AdminTourHandler{Tours: t, Media: m, Cache: rdb, CachePrefix: prefix}
}

type tourImageReq struct {
    PublicID  string  `json:"public_id"`
    SecureURL string  `json:"secure_url" validate:"required,url"`
    AltText   *string `json:"alt_text"`
}

type createTourReq struct {
    Title           string               `json:"title" validate:"required,max=200"`
    Slug            string               `json:"slug" validate:"omitempty,max=220"`
    Description     string               `json:"description" validate:"required"`
    Highlights      []string             `json:"highlights"`
    Itinerary       []model.ItineraryDay `json:"itinerary"`
    LocationCountry string               `json:"location_country" validate:"required,max=100"`
    LocationCity    string               `json:"location_city" validate:"required,max=100"`
    Category        string               `json:"category" validate:"required"`
    DurationDays    int                  `json:"duration_days" validate:"required,min=1"`
    BasePrice       int64                `json:"base_price" validate:"required,min=1"`
    DiscountPrice   *int64               `json:"discount_price" validate:"omitempty,min=0"`
    MaxGroupSize    int                  `json:"max_group_size" validate:"min=0"`
    IsPublished     bool                 `json:"is_published"`
    SEOTitle        *string              `json:"seo_title" validate:"omitempty,max=200"`
    SEODescription  *string              `json:"seo_description" validate:"omitempty,max=500"`
    Images          []tourImageReq       `json:"images" validate:"dive"`
}

// updateTourReq is a partial update: nil fields are left untouched and
// images replace the whole set when present.
type updateTourReq struct {
    Title           *string               `json:"title" validate:"omitempty,max=200"`
    Slug            *string               `json:"slug" validate:"omitempty,max=220"`
    Description     *string               `json:"description"`
    Highlights      *[]string             `json:"highlights"`
    Itinerary       *[]model.ItineraryDay `json:"itinerary"`
    LocationCountry *string               `json:"location_country" validate:"omitempty,max=100"`
    LocationCity    *string               `json:"location_city" validate:"omitempty,max=100"`
    Category        *string               `json:"category"`
    DurationDays    *int                  `json:"duration_days" validate:"omitempty,min=1"`
    BasePrice       *int64                `json:"base_price" validate:"omitempty,min=1"`
    DiscountPrice   *int64                `json:"discount_price" validate:"omitempty,min=0"`
    MaxGroupSize    *int                  `json:"max_group_size" validate:"omitempty,min=1"`
    IsPublished     *bool                 `json:"is_published"`
    SEOTitle        *string               `json:"seo_title" validate:"omitempty,max=200"`
    SEODescription  *string               `json:"seo_description" validate:"omitempty,max=500"`
    Images          *[]tourImageReq       `json:"images"`
}

func toImages(in []tourImageReq) []model.TourImage {
    out := make([]model.TourImage, 0, len(in))
    for i, img := range in {
        ti := model.TourImage{URL: img.SecureURL, SortOrder: i, AltText: optString(img.AltText)}
        if id := strings.TrimSpace(img.PublicID); id != "" {
            ti.PublicID = &id
        }
        out = append(out, ti)
    }
    return out
}

func (h *AdminTourHandler) purge(ctx context.Context) {
    purgeTourCache(ctx, h.Cache, h.CachePrefix)
}

// purgeTourCache drops every cached public tour response.
func purgeTourCache(ctx context.Context, rdb *redis.Client, prefix string) {
    if err := middleware.PurgeCache(context.WithoutCancel(ctx), rdb, prefix); err != nil {
        log.Warn().Err(err).Msg("tour cache purge failed")
    }
}

// uniqueSlug validates an explicit slug or derives one from title.
func (h *AdminTourHandler) uniqueSlug(ctx context.Context, slug, title string, excludeID uint64) (string, error) {
    s := utils.Slugify(slug)
    if s == "" {
        s = utils.Slugify(title)
    }
    if s == "" {
        return "", apperror.Validation("slug cannot be derived from title")
    }
    taken, err := h.Tours.SlugExists(ctx, s, excludeID)
    if err != nil {
        return "", apperror.Internal("check slug", err)
    }
    if taken {
        return "", apperror.Conflict("A tour with this slug already exists")
    }
    return s, nil
}

// ListTours: GET /v1/admin/tours?search=&is_published=&page=&limit=.
func (h *AdminTourHandler) ListTours(c echo.Context) error {
    page, limit := pageParams(c, 20, 100)
    ctx, cancel := reqCtx(c)
    defer cancel()
    list, total, err := h.Tours.SearchAdmin(ctx, repository.AdminTourQuery{
        Search:      c.QueryParam("search"),
        IsPublished: queryBool(c, "is_published"),
        Page:        page,
        Limit:       limit,
    })
    if err != nil {
        return response.FromError(c, apperror.Internal("list tours", err))
    }
    return response.Paginated(c, list, response.NewPagination(page, limit, total))
}

// GetTour: GET /v1/admin/tours/:id, regardless of publish state.
func (h *AdminTourHandler) GetTour(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    t, err := h.Tours.GetByID(ctx, id)
    if errors.Is(err, repository.ErrTourNotFound) {
        return response.NotFound(c, "Tour not found")
    }
    if err != nil {
        return response.FromError(c, apperror.Internal("load tour", err))
    }
    return response.Success(c, t)
}

// CreateTour: POST /v1/admin/tours.
func (h *AdminTourHandler) CreateTour(c echo.Context) error {
    var req createTourReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }
    if !model.ValidCategory(req.Category) {
        return response.BadRequest(c, "Invalid category")
    }
    if req.DiscountPrice != nil && *req.DiscountPrice >= req.BasePrice {
        return response.BadRequest(c, "discount_price must be lower than base_price")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    slug, err := h.uniqueSlug(ctx, req.Slug, req.Title, 0)
    if err != nil {
        return response.FromError(c, err)
    }
    t := &model.Tour{
        Title:           strings.TrimSpace(req.Title),
        Slug:            slug,
        Description:     req.Description,
        Highlights:      req.Highlights,
        Itinerary:       req.Itinerary,
        LocationCountry: strings.TrimSpace(req.LocationCountry),
        LocationCity:    strings.TrimSpace(req.LocationCity),
        Category:        strings.ToUpper(req.Category),
        DurationDays:    req.DurationDays,
        BasePrice:       req.BasePrice,
        DiscountPrice:   req.DiscountPrice,
        MaxGroupSize:    req.MaxGroupSize,
        IsPublished:     req.IsPublished,
        SEOTitle:        optString(req.SEOTitle),
        SEODescription:  optString(req.SEODescription),
    }
    if t.MaxGroupSize == 0 {
        t.MaxGroupSize = model.DefaultMaxGroupSize
    }
    if t.Highlights == nil {
        t.Highlights = []string{}
    }
    if t.Itinerary == nil {
        t.Itinerary = []model.ItineraryDay{}
    }

    err = h.Tours.Create(ctx, t, toImages(req.Images))
    if errors.Is(err, repository.ErrSlugExists) {
        return response.FromError(c, apperror.Conflict("A tour with this slug already exists"))
    }
    if err != nil {
        return response.FromError(c, apperror.Internal("create tour", err))
    }
    h.purge(ctx)
    return response.Created(c, t)
}

// UpdateTour: PUT /v1/admin/tours/:id.
func (h *AdminTourHandler) UpdateTour(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return response.FromError(c, err)
    }
    var req updateTourReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    t, err := h.Tours.GetByID(ctx, id)
    if errors.Is(err, repository.ErrTourNotFound) {
        return response.NotFound(c, "Tour not found")
    }
    if err != nil {
        return response.FromError(c, apperror.Internal("load tour", err))
    }

    if req.Title != nil {
        t.Title = strings.TrimSpace(*req.Title)
    }
    if req.Slug != nil {
        slug, err := h.uniqueSlug(ctx, *req.Slug, t.Title, t.ID)
        if err != nil {
            return response.FromError(c, err)
        }
        t.Slug = slug
    }
    if req.Description != nil {
        t.Description = *req.Description
    }
    if req.Highlights != nil {
        t.Highlights = *req.Highlights
    }
    if req.Itinerary != nil {
        t.Itinerary = *req.Itinerary
    }
    if req.LocationCountry != nil {
        t.LocationCountry = strings.TrimSpace(*req.LocationCountry)
    }
    if req.LocationCity != nil {
        t.LocationCity = strings.TrimSpace(*req.LocationCity)
    }
    if req.Category != nil {
        if !model.ValidCategory(*req.Category) {
            return response.BadRequest(c, "Invalid category")
        }
        t.Category = strings.ToUpper(*req.Category)
    }
    if req.DurationDays != nil {
        t.DurationDays = *req.DurationDays
    }
    if req.BasePrice != nil {
        t.BasePrice = *req.BasePrice
    }
    if req.DiscountPrice != nil {
        // zero clears the discount
        if *req.DiscountPrice == 0 {
            t.DiscountPrice = nil
        } else {
            t.DiscountPrice = req.DiscountPrice
        }
    }
    if t.DiscountPrice != nil && *t.DiscountPrice >= t.BasePrice {
        return response.BadRequest(c, "discount_price must be lower than base_price")
    }
    if req.MaxGroupSize != nil {
        t.MaxGroupSize = *req.MaxGroupSize
    }
    if req.IsPublished != nil {
        t.IsPublished = *req.IsPublished
    }
    if req.SEOTitle != nil {
        t.SEOTitle = optString(req.SEOTitle)
    }
    if req.SEODescription != nil {
        t.SEODescription = optString(req.SEODescription)
    }

    var images []model.TourImage
    if req.Images != nil {
        images = toImages(*req.Images)
    }
    err = h.Tours.Update(ctx, t, images)
    if errors.Is(err, repository.ErrSlugExists) {
        return response.FromError(c, apperror.Conflict("A tour with this slug already exists"))
    }
    if err != nil {
        return response.FromError(c, apperror.Internal("update tour", err))
    }
    h.purge(ctx)

    updated, err := h.Tours.GetByID(ctx, id)
    if err != nil {
        return response.FromError(c, apperror.Internal("reload tour", err))
    }
    return response.Success(c, updated)
}

// DeleteTour: DELETE /v1/admin/tours/:id.  Hosted images are removed
// best-effort after the row is gone.
func (h *AdminTourHandler) DeleteTour(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    images, err := h.Tours.Delete(ctx, id)
    switch {
    case errors.Is(err, repository.ErrTourNotFound):
        return response.NotFound(c, "Tour not found")
    case errors.Is(err, repository.ErrConflict):
        return response.FromError(c, apperror.Conflict("Tour has bookings and cannot be deleted"))
    case err != nil:
        return response.FromError(c, apperror.Internal("delete tour", err))
    }
    h.purge(ctx)

    go func(ctx context.Context) {
        for _, img := range images {
            if img.PublicID == nil {
                continue
            }
            if err := h.Media.Destroy(ctx, *img.PublicID); err != nil {
                log.Warn().Err(err).Str("public_id", *img.PublicID).Msg("image cleanup failed")
            }
        }
    }(context.WithoutCancel(ctx))

    return response.Success(c, echo.Map{"message": "Tour deleted"})
}
