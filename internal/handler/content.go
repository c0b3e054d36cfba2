package handler

import (
    "encoding/json"
    "errors"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/travel-agency-booking/internal/apperror"
    "github.com/iliyamo/travel-agency-booking/internal/repository"
    "github.com/iliyamo/travel-agency-booking/internal/response"
)

// ContentHandler serves homepage content blocks.  Content is opaque JSON.
type ContentHandler struct {
    Content *repository.ContentRepo
}

func NewContentHandler(r *repository.ContentRepo) *ContentHandler {
    if r == nil {
        panic("nil repository passed to NewContentHandler")
    }
    return &ContentHandler{Content: r}
}

type upsertContentReq struct {
    Key     string          `json:"key" validate:"required,max=100"`
    Content json.RawMessage `json:"content" validate:"required"`
}

func (h *ContentHandler) List(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    list, err := h.Content.List(ctx)
    if err != nil {
        return response.FromError(c, apperror.Internal("list content", err))
    }
    return response.Success(c, list)
}

func (h *ContentHandler) Get(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    item, err := h.Content.Get(ctx, c.Param("key"))
    if errors.Is(err, repository.ErrContentNotFound) {
        return response.NotFound(c, "Content not found")
    }
    if err != nil {
        return response.FromError(c, apperror.Internal("load content", err))
    }
    return response.Success(c, item)
}

// Upsert: POST /v1/admin/content.
func (h *ContentHandler) Upsert(c echo.Context) error {
    var req upsertContentReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }
    if !json.Valid(req.Content) {
        return response.BadRequest(c, "content must be valid JSON")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    item, err := h.Content.Upsert(ctx, strings.TrimSpace(req.Key), req.Content)
    if err != nil {
        return response.FromError(c, apperror.Internal("save content", err))
    }
    return response.Success(c, item)
}
