package handler // declare the package name; contains HTTP handlers

import (
    "context"      // bounded dependency probes
    "database/sql" // database ping
    "net/http"     // status codes
    "time"         // probe timeout

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
    "github.com/redis/go-redis/v9"
)

// HealthHandler reports process liveness plus the state of MySQL and Redis.
// A missing Redis is "disabled", not a failure; only the database can make
// the service unhealthy.
type HealthHandler struct {
    DB    *sql.DB
    Redis *redis.Client // may be nil
}

func NewHealthHandler(db *sql.DB, rdb *redis.Client) *HealthHandler {
    return &HealthHandler{DB: db, Redis: rdb}
}

// Health: GET /healthz.
func (h *HealthHandler) Health(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()

    status := http.StatusOK
    checks := map[string]string{"database": "ok", "redis": "disabled"}
    if h.DB == nil || h.DB.PingContext(ctx) != nil {
        checks["database"] = "down"
        status = http.StatusServiceUnavailable
    }
    if h.Redis != nil {
        checks["redis"] = "ok"
        if err := h.Redis.Ping(ctx).Err(); err != nil {
            checks["redis"] = "down"
        }
    }
    state := "ok"
    if status != http.StatusOK {
        state = "degraded"
    }
    return c.JSON(status, map[string]any{"status": state, "checks": checks})
}
