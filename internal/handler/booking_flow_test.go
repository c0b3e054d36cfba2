package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-agency-booking/internal/config"
	"github.com/iliyamo/travel-agency-booking/internal/middleware"
	"github.com/iliyamo/travel-agency-booking/internal/model"
	"github.com/iliyamo/travel-agency-booking/internal/payment"
	"github.com/iliyamo/travel-agency-booking/internal/repository"
	"github.com/iliyamo/travel-agency-booking/internal/service"
	"github.com/iliyamo/travel-agency-booking/internal/settings"
	"github.com/iliyamo/travel-agency-booking/internal/utils"
)

type quietNotifier struct{}

func (quietNotifier) BookingPaid(context.Context, *model.BookingDetail)              {}
func (quietNotifier) BookingCancelled(context.Context, *model.BookingDetail, string) {}
func (quietNotifier) Welcome(context.Context, model.User)                            {}
func (quietNotifier) PasswordReset(context.Context, model.User, string)              {}

// asUser stands in for JWTAuth.
func asUser(id uint64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.CtxUserID, id)
			c.Set(middleware.CtxRole, model.RoleCustomer)
			return next(c)
		}
	}
}

var bookingRowCols = []string{"id", "user_id", "tour_id", "start_date", "end_date", "adults", "children",
	"total_amount", "currency", "booking_status", "payment_status", "special_requests",
	"gateway_order_id", "created_at", "updated_at"}

var tourRowCols = []string{"id", "title", "slug", "description", "highlights", "itinerary",
	"location_country", "location_city", "category", "duration_days", "base_price",
	"discount_price", "max_group_size", "is_published", "seo_title", "seo_description",
	"created_at", "updated_at"}

func tourRow(id uint64, basePrice int64) *sqlmock.Rows {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(tourRowCols).AddRow(id, "Goa Beaches", "goa-beaches", "Sun and sand",
		[]byte(`["Beach"]`), []byte(`[]`), "India", "Goa", "BEACH", 5, basePrice,
		nil, 12, true, nil, nil, now, now)
}

func bookingRowFor(id, userID uint64, total int64, orderID any) *sqlmock.Rows {
	start := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(bookingRowCols).AddRow(id, userID, 3, start, start.AddDate(0, 0, 4), 2, 1,
		total, "INR", model.BookingPending, model.PaymentPending, nil, orderID, start, start)
}

type flow struct {
	e    *echo.Echo
	mock sqlmock.Sqlmock
}

func newFlow(t *testing.T, rdb *redis.Client) *flow {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	resolver := newResolver(t, map[string]any{
		settings.PaymentProvider:       "razorpay",
		settings.RazorpayKeyID:         "rzp_test_key",
		settings.RazorpaySecretKey:     "rzp_secret",
		settings.RazorpayWebhookSecret: "hook_secret",
		settings.Currency:              "INR",
	})
	bookings := repository.NewBookingRepo(db)
	tours := repository.NewTourRepo(db)
	reviews := repository.NewReviewRepo(db)
	svc := service.NewBookingService(db, bookings, repository.NewPaymentRepo(db), tours,
		payment.NewFactory(resolver), quietNotifier{}, resolver)

	e := newEcho()
	bh := NewBookingHandler(svc)
	ph := NewPaymentHandler(svc)
	rh := NewReviewHandler(service.NewReviewService(reviews, tours, bookings), reviews, rdb, "tours-cache")
	e.POST("/v1/bookings", bh.CreateBooking, asUser(7))
	e.POST("/v1/payments/confirm", ph.Confirm, asUser(7))
	e.POST("/v1/payments/webhook", ph.Webhook)
	e.POST("/v1/reviews", rh.CreateReview, asUser(7))
	e.DELETE("/v1/admin/reviews/:id", rh.AdminDeleteReview)
	return &flow{e: e, mock: mock}
}

func TestCreateBooking_PricesChildAtHalf(t *testing.T) {
	f := newFlow(t, nil)
	start := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	f.mock.ExpectQuery(`FROM tours t WHERE t.id = \? AND t.is_published = 1`).
		WithArgs(uint64(3)).
		WillReturnRows(tourRow(3, 1000))
	f.mock.ExpectExec(`INSERT INTO bookings`).
		WithArgs(uint64(7), uint64(3), start, start.AddDate(0, 0, 4), 2, 1, int64(2500), "INR",
			model.BookingPending, model.PaymentPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(11, 1))
	f.mock.ExpectQuery(`FROM bookings b WHERE b.id = \?`).
		WithArgs(uint64(11)).
		WillReturnRows(bookingRowFor(11, 7, 2500, nil))

	rec := do(f.e, http.MethodPost, "/v1/bookings",
		`{"tour_id":3,"start_date":"2026-12-01","end_date":"2026-12-05","adults":2,"children":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env := decode(t, rec)
	assert.True(t, env.Success)

	var data struct {
		Booking      model.Booking `json:"booking"`
		MaxGroupSize int           `json:"max_group_size"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, int64(2500), data.Booking.TotalAmount)
	assert.Equal(t, model.BookingPending, data.Booking.BookingStatus)
	assert.Equal(t, model.PaymentPending, data.Booking.PaymentStatus)
	assert.Equal(t, 12, data.MaxGroupSize)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateBooking_EndBeforeStart(t *testing.T) {
	f := newFlow(t, nil)
	rec := do(f.e, http.MethodPost, "/v1/bookings",
		`{"tour_id":3,"start_date":"2026-12-05","end_date":"2026-12-01","adults":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decode(t, rec).Success)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestConfirm_TamperedSignature(t *testing.T) {
	f := newFlow(t, nil)
	f.mock.ExpectQuery(`FROM bookings b WHERE b.id = \?`).
		WithArgs(uint64(10)).
		WillReturnRows(bookingRowFor(10, 7, 2500, "order_1"))

	rec := do(f.e, http.MethodPost, "/v1/payments/confirm", `{"booking_id":10,"payment_data":{
		"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1","razorpay_signature":"forged"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, "Invalid payment signature", env.Error.Message)
	// nothing was written
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestConfirm_BookingWithoutOrder(t *testing.T) {
	f := newFlow(t, nil)
	f.mock.ExpectQuery(`FROM bookings b WHERE b.id = \?`).
		WithArgs(uint64(20)).
		WillReturnRows(bookingRowFor(20, 7, 9900000, nil))

	sig := payment.Sign("rzp_secret", "order_cheap|pay_cheap")
	rec := do(f.e, http.MethodPost, "/v1/payments/confirm",
		`{"booking_id":20,"order_id":"order_cheap","payment_id":"pay_cheap","signature":"`+sig+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestWebhook_BadSignature(t *testing.T) {
	f := newFlow(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook",
		strings.NewReader(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1"}}}}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Razorpay-Signature", "deadbeef")
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Invalid webhook signature", env.Error.Message)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateReview_Duplicate(t *testing.T) {
	f := newFlow(t, nil)
	f.mock.ExpectQuery(`FROM tours t WHERE t.id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(tourRow(3, 1000))
	f.mock.ExpectQuery(`FROM tour_images WHERE tour_id IN`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	f.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE user_id = \? AND tour_id = \? AND payment_status = \?`).
		WithArgs(uint64(7), uint64(3), model.PaymentPaid).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	f.mock.ExpectExec(`INSERT INTO reviews`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7-3'"})

	rec := do(f.e, http.MethodPost, "/v1/reviews", `{"tour_id":3,"rating":5,"comment":"Loved it"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICT", env.Error.Code)
	assert.Equal(t, "You have already reviewed this tour", env.Error.Message)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAdminDeleteReview_PurgesTourCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	require.NoError(t, mr.Set("tours-cache:/v1/tours/goa-beaches", `{"cached":true}`))
	require.NoError(t, mr.Set("other:key", "x"))

	f := newFlow(t, rdb)
	f.mock.ExpectExec(`DELETE FROM reviews WHERE id = \?`).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := do(f.e, http.MethodDelete, "/v1/admin/reviews/5", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, mr.Exists("tours-cache:/v1/tours/goa-beaches"))
	assert.True(t, mr.Exists("other:key"))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

// ----- auth -----

func authSetup(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	accounts := service.NewAccountService(users, tokens, quietNotifier{}, "http://localhost:3000", cfg.BcryptCost)
	h := NewAuthHandler(cfg, users, tokens, accounts, quietNotifier{})

	e := newEcho()
	e.POST("/v1/auth/register", h.Register)
	e.POST("/v1/auth/login", h.Login)
	return e, mock
}

var userRowCols = []string{"id", "name", "email", "password_hash", "phone", "role", "is_active", "created_at", "updated_at"}

func TestLogin(t *testing.T) {
	e, mock := authSetup(t)
	hash, err := utils.HashPassword("secret1", 4)
	require.NoError(t, err)
	now := time.Now()

	mock.ExpectQuery(`FROM users WHERE email=\?`).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(userRowCols).
			AddRow(7, "Ana", "ana@example.com", hash, nil, model.RoleCustomer, true, now, now))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(uint64(7), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := do(e, http.MethodPost, "/v1/auth/login", `{"email":"Ana@Example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out authResp
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &out))
	assert.Equal(t, uint64(7), out.User.ID)
	assert.NotEmpty(t, out.Access.Token)
	assert.NotEmpty(t, out.Refresh.Token)

	claims, err := utils.ParseAccessToken("test-secret", out.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_UnknownEmail(t *testing.T) {
	e, mock := authSetup(t)
	mock.ExpectQuery(`FROM users WHERE email=\?`).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(userRowCols))

	rec := do(e, http.MethodPost, "/v1/auth/login", `{"email":"nobody@example.com","password":"whatever"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
	assert.Equal(t, "Invalid credentials", env.Error.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	e, mock := authSetup(t)
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("Ana", "ana@example.com", sqlmock.AnyArg(), sqlmock.AnyArg(), model.RoleCustomer).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'ana@example.com'"})

	rec := do(e, http.MethodPost, "/v1/auth/register", `{"name":"Ana","email":"ana@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "User already exists with this email", env.Error.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_ShortPassword(t *testing.T) {
	e, mock := authSetup(t)
	rec := do(e, http.MethodPost, "/v1/auth/register", `{"name":"Ana","email":"ana@example.com","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decode(t, rec).Success)
	assert.NoError(t, mock.ExpectationsWereMet())
}
