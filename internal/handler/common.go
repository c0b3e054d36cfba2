package handler // HTTP handlers for the public, customer and admin APIs

import (
    "context"  // request-scoped timeouts
    "errors"   // sentinel for a missing identity
    "strconv"  // id and paging parsing
    "strings"  // trimming
    "time"     // date parsing and timeouts

    "github.com/go-playground/validator/v10" // struct tag validation
    "github.com/labstack/echo/v4"            // request context

    "github.com/iliyamo/travel-agency-booking/internal/apperror"
    "github.com/iliyamo/travel-agency-booking/internal/middleware"
)

// requestTimeout bounds every handler's database and gateway work.
const requestTimeout = 5 * time.Second

// dateLayout is the wire format of booking dates.
const dateLayout = "2006-01-02"

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
    v *validator.Validate
}

func NewValidator() *Validator { return &Validator{v: validator.New(validator.WithRequiredStructEnabled())} }

// Validate returns an apperror validation error naming the first failing
// field.
func (cv *Validator) Validate(i interface{}) error {
    err := cv.v.Struct(i)
    if err == nil {
        return nil
    }
    var ve validator.ValidationErrors
    if errors.As(err, &ve) && len(ve) > 0 {
        return apperror.Validation(fieldMessage(ve[0]))
    }
    return apperror.Validation("Invalid request")
}

func fieldMessage(fe validator.FieldError) string {
    field := strings.ToLower(fe.Field())
    switch fe.Tag() {
    case "required":
        return field + " is required"
    case "email":
        return field + " must be a valid email"
    case "min":
        if fe.Kind().String() == "string" {
            return field + " must be at least " + fe.Param() + " characters"
        }
        return field + " must be at least " + fe.Param()
    case "max":
        if fe.Kind().String() == "string" {
            return field + " must be at most " + fe.Param() + " characters"
        }
        return field + " must be at most " + fe.Param()
    case "oneof":
        return field + " must be one of: " + fe.Param()
    }
    return field + " is invalid"
}

// bind decodes the body into req and validates it.  Decode failures are
// reported as validation errors.
func bind(c echo.Context, req interface{}) error {
    if err := c.Bind(req); err != nil {
        return apperror.Validation("Invalid request body")
    }
    if err := c.Validate(req); err != nil {
        return err
    }
    return nil
}

// reqCtx derives the handler context with the standard timeout.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// getUserID extracts the authenticated caller's id set by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
    if id, ok := c.Get(middleware.CtxUserID).(uint64); ok && id != 0 {
        return id, nil
    }
    return 0, apperror.Unauthorized("Authentication required")
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, apperror.Validation("Invalid " + name)
    }
    return id, nil
}

// pageParams reads page and limit with a default limit and an upper bound.
func pageParams(c echo.Context, defLimit, maxLimit int) (int, int) {
    page, _ := strconv.Atoi(c.QueryParam("page"))
    if page < 1 {
        page = 1
    }
    limit, _ := strconv.Atoi(c.QueryParam("limit"))
    if limit < 1 {
        limit = defLimit
    }
    if limit > maxLimit {
        limit = maxLimit
    }
    return page, limit
}

// queryInt64 returns 0 for an absent or malformed query value.
func queryInt64(c echo.Context, name string) int64 {
    n, _ := strconv.ParseInt(strings.TrimSpace(c.QueryParam(name)), 10, 64)
    return n
}

// queryBool parses an optional boolean filter.
func queryBool(c echo.Context, name string) *bool {
    v, err := strconv.ParseBool(strings.TrimSpace(c.QueryParam(name)))
    if err != nil {
        return nil
    }
    return &v
}

func parseDate(field, s string) (time.Time, error) {
    t, err := time.Parse(dateLayout, strings.TrimSpace(s))
    if err != nil {
        return time.Time{}, apperror.Validation(field + " must be a date in YYYY-MM-DD format")
    }
    return t, nil
}

// optString trims s and returns nil when it ends up empty.
func optString(s *string) *string {
    if s == nil {
        return nil
    }
    v := strings.TrimSpace(*s)
    if v == "" {
        return nil
    }
    return &v
}
