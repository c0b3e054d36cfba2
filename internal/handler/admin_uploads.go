package handler

import (
    "context"
    "errors"
    "net/http"
    "net/url"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/travel-agency-booking/internal/apperror"
    "github.com/iliyamo/travel-agency-booking/internal/media"
    "github.com/iliyamo/travel-agency-booking/internal/metrics"
    "github.com/iliyamo/travel-agency-booking/internal/response"
)

// UploadHandler proxies admin image uploads to the image host.
type UploadHandler struct {
    Media media.Store
}

func NewUploadHandler(m media.Store) *UploadHandler {
    if m == nil {
        panic("nil store passed to NewUploadHandler")
    }
    return &UploadHandler{Media: m}
}

func mediaError(msg string, err error) error {
    if errors.Is(err, media.ErrNotConfigured) {
        return apperror.NotConfigured("Image uploads are not configured")
    }
    metrics.IntegrationFailed("cloudinary")
    return apperror.Integration(msg, err)
}

// Upload: POST /v1/admin/uploads (multipart "file", optional "folder").
func (h *UploadHandler) Upload(c echo.Context) error {
    c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, media.MaxUploadBytes+(1<<20))
    fh, err := c.FormFile("file")
    if err != nil {
        return response.BadRequest(c, "file is required")
    }
    if fh.Size > media.MaxUploadBytes {
        return response.BadRequest(c, "File exceeds the 5MB limit")
    }
    if ct := fh.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
        return response.BadRequest(c, "Only image files are allowed")
    }
    f, err := fh.Open()
    if err != nil {
        return response.BadRequest(c, "Unreadable file")
    }
    defer f.Close()

    folder := strings.TrimSpace(c.FormValue("folder"))
    if folder == "" {
        folder = media.DefaultFolder
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), gatewayTimeout)
    defer cancel()
    img, err := h.Media.Upload(ctx, f, folder)
    if err != nil {
        return response.FromError(c, mediaError("Image upload failed", err))
    }
    return response.Created(c, img)
}

// Delete: DELETE /v1/admin/uploads/*.  Public ids carry their folder, so the
// whole remaining path is the id.
func (h *UploadHandler) Delete(c echo.Context) error {
    raw := c.Param("*")
    if raw == "" {
        raw = c.Param("public_id")
    }
    id, err := url.PathUnescape(raw)
    if err != nil || strings.TrimSpace(id) == "" {
        return response.BadRequest(c, "Invalid public_id")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), gatewayTimeout)
    defer cancel()
    if err := h.Media.Destroy(ctx, id); err != nil {
        return response.FromError(c, mediaError("Image delete failed", err))
    }
    return response.Success(c, echo.Map{"message": "Image deleted"})
}
