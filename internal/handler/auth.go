package handler

import (
    "context"  // background context for best-effort emails
    "errors"   // sentinel comparison
    "strings"  // input normalisation
    "time"     // token expiry types

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/travel-agency-booking/internal/apperror"   // error taxonomy
    "github.com/iliyamo/travel-agency-booking/internal/config"     // app configuration
    "github.com/iliyamo/travel-agency-booking/internal/model"      // roles and users
    "github.com/iliyamo/travel-agency-booking/internal/repository" // DB repositories
    "github.com/iliyamo/travel-agency-booking/internal/response"   // envelope
    "github.com/iliyamo/travel-agency-booking/internal/service"    // password reset flow
    "github.com/iliyamo/travel-agency-booking/internal/utils"      // hashing, token issuing
)

// WelcomeNotifier sends the post-registration email.
type WelcomeNotifier interface {
    Welcome(ctx context.Context, u model.User)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg      config.Config
    Users    *repository.UserRepo
    Tokens   *repository.TokenRepo
    Accounts *service.AccountService
    Notifier WelcomeNotifier
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, a *service.AccountService, n WelcomeNotifier) *AuthHandler {
    if u == nil || t == nil || a == nil || n == nil {
        panic("nil dependency passed to NewAuthHandler")
    }
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Accounts: a, Notifier: n}
}

// ----- DTOs -----

type registerReq struct {
    Name     string  `json:"name" validate:"required,max=100"`
    Email    string  `json:"email" validate:"required,email"`
    Password string  `json:"password" validate:"required,min=6"`
    Phone    *string `json:"phone" validate:"omitempty,max=20"`
}
type loginReq struct {
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}
type forgotReq struct {
    Email string `json:"email" validate:"required,email"`
}
type resetReq struct {
    Token    string `json:"token" validate:"required"`
    Password string `json:"password" validate:"required,min=6"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID    uint64  `json:"id"`
    Name  string  `json:"name"`
    Email string  `json:"email"`
    Phone *string `json:"phone,omitempty"`
    Role  string  `json:"role"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
    return userPart{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role}
}

// issue mints an access token and a stored refresh token for u.
func (h *AuthHandler) issue(ctx context.Context, u model.User) (authResp, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return authResp{}, apperror.Internal("issue access token", err)
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return authResp{}, apperror.Internal("issue refresh token", err)
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashToken(refresh.Raw), refresh.Exp); err != nil {
        return authResp{}, apperror.Internal("store refresh token", err)
    }
    return authResp{
        User:    toUserPart(u),
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    }, nil
}

// Register: create a CUSTOMER and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
    if err != nil {
        return response.FromError(c, apperror.Internal("hash password", err))
    }
    uid, err := h.Users.Create(ctx, repository.NewUser{
        Name: req.Name, Email: req.Email, PasswordHash: hash, Phone: optString(req.Phone), Role: model.RoleCustomer,
    })
    if errors.Is(err, repository.ErrEmailExists) {
        return response.FromError(c, apperror.Conflict("User already exists with this email"))
    }
    if err != nil {
        return response.FromError(c, apperror.Internal("create user", err))
    }
    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return response.FromError(c, apperror.Internal("load user", err))
    }

    out, err := h.issue(ctx, u)
    if err != nil {
        return response.FromError(c, err)
    }
    // The welcome email must not hold up or fail the signup.
    h.Notifier.Welcome(context.WithoutCancel(ctx), u)
    return response.Created(c, out)
}

// Login: verify and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if errors.Is(err, repository.ErrUserNotFound) {
        return response.Unauthorized(c, "Invalid credentials")
    }
    if err != nil {
        return response.FromError(c, apperror.Internal("load user", err))
    }
    if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return response.Unauthorized(c, "Invalid credentials")
    }

    out, err := h.issue(ctx, u)
    if err != nil {
        return response.FromError(c, err)
    }
    return response.Success(c, out)
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return response.BadRequest(c, "refresh_token is required")
    }
    hash := utils.HashToken(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := reqCtx(c)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return response.Unauthorized(c, "Invalid refresh token")
    }
    _ = h.Tokens.RevokeByHash(ctx, hash)

    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        return response.Unauthorized(c, "Invalid refresh token")
    }
    out, err := h.issue(ctx, u)
    if err != nil {
        return response.FromError(c, err)
    }
    return response.Success(c, out)
}

// RefreshAccess returns a new access token without rotating the refresh
// token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return response.BadRequest(c, "refresh_token is required")
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, utils.HashToken(strings.TrimSpace(req.RefreshToken)))
    if err != nil {
        return response.Unauthorized(c, "Invalid refresh token")
    }
    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        return response.Unauthorized(c, "Invalid refresh token")
    }
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return response.FromError(c, apperror.Internal("issue access token", err))
    }
    return response.Success(c, echo.Map{
        "access": tokenPart{Token: access.Token, Expires: access.Exp},
    })
}

// Logout revokes one session when a refresh_token is posted, otherwise every
// session of the bearer.
func (h *AuthHandler) Logout(c echo.Context) error {
    // A bearer is optional here; parse it ourselves so the route can stay
    // outside JWTAuth.
    var uid uint64
    if auth := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
        if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
            uid = claims.UserID
        }
    }

    // Invalid JSON simply leaves the refresh token empty.
    var req refreshReq
    _ = c.Bind(&req)
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := reqCtx(c)
    defer cancel()

    if refreshToken != "" {
        hash := utils.HashToken(refreshToken)
        if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
            return response.Unauthorized(c, "Invalid refresh token")
        }
        if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
            return response.FromError(c, apperror.Internal("revoke refresh token", err))
        }
        return response.Success(c, echo.Map{"message": "Logged out"})
    }
    if uid != 0 {
        if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
            return response.FromError(c, apperror.Internal("revoke refresh tokens", err))
        }
        return response.Success(c, echo.Map{"message": "Logged out from all sessions"})
    }
    return response.BadRequest(c, "Provide an Authorization header or refresh_token")
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    u, err := h.Users.GetByID(ctx, uid)
    if errors.Is(err, repository.ErrUserNotFound) {
        return response.NotFound(c, "User not found")
    }
    if err != nil {
        return response.FromError(c, apperror.Internal("load user", err))
    }
    return response.Success(c, toUserPart(u))
}

// ForgotPassword always answers with the same message whether or not the
// email is registered.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
    var req forgotReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Accounts.ForgotPassword(ctx, req.Email); err != nil {
        return response.FromError(c, err)
    }
    return response.Success(c, echo.Map{"message": "If the email exists, a password reset link has been sent"})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
    var req resetReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Accounts.ResetPassword(ctx, req.Token, req.Password); err != nil {
        return response.FromError(c, err)
    }
    return response.Success(c, echo.Map{"message": "Password has been reset successfully"})
}
