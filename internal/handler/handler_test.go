package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-agency-booking/internal/apperror"
	"github.com/iliyamo/travel-agency-booking/internal/chat"
	"github.com/iliyamo/travel-agency-booking/internal/media"
	"github.com/iliyamo/travel-agency-booking/internal/model"
	"github.com/iliyamo/travel-agency-booking/internal/recaptcha"
	"github.com/iliyamo/travel-agency-booking/internal/repository"
	"github.com/iliyamo/travel-agency-booking/internal/response"
	"github.com/iliyamo/travel-agency-booking/internal/settings"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = response.HTTPErrorHandler
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func newResolver(t *testing.T, seed map[string]any) *settings.Resolver {
	t.Helper()
	// keep the host environment out of lookups
	for _, k := range []string{"RECAPTCHA_SECRET_KEY", "RECAPTCHA_SITE_KEY", "GEMINI_API_KEY", "RAZORPAY_SECRET_KEY"} {
		t.Setenv(k, "")
	}
	return settings.NewResolver(settings.NewMemoryStore(seed), nil, time.Minute)
}

func message(err error) string {
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

func TestValidatorMessages(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&contactReq{Name: "Ann", Email: "not-an-email", Message: "long enough message"})
	require.Error(t, err)
	assert.Equal(t, "email must be a valid email", message(err))

	err = v.Validate(&contactReq{Name: "Ann", Email: "ann@example.com", Message: "short"})
	require.Error(t, err)
	assert.Equal(t, "message must be at least 10 characters", message(err))

	err = v.Validate(&createReviewReq{TourID: 1, Rating: 6, Comment: "great"})
	require.Error(t, err)
	assert.Equal(t, "rating must be at most 5", message(err))

	assert.NoError(t, v.Validate(&createReviewReq{TourID: 1, Rating: 5, Comment: "great"}))
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("start_date", " 2026-03-01 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), d)

	_, err = parseDate("start_date", "01/03/2026")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start_date")
}

func TestPageParams(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?page=0&limit=500", nil), httptest.NewRecorder())
	page, limit := pageParams(c, 12, 100)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, limit)

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/?page=3", nil), httptest.NewRecorder())
	page, limit = pageParams(c, 12, 100)
	assert.Equal(t, 3, page)
	assert.Equal(t, 12, limit)
}

// ----- contact -----

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []*model.ContactMessage
}

func (n *recordingNotifier) ContactReceived(_ context.Context, m *model.ContactMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, m)
}

func siteverify(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func contactSetup(t *testing.T, seed map[string]any, endpoint string) (*echo.Echo, sqlmock.Sqlmock, *recordingNotifier) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	verifier := recaptcha.NewVerifier(newResolver(t, seed))
	if endpoint != "" {
		verifier.WithEndpoint(endpoint)
	}
	n := &recordingNotifier{}
	h := NewContactHandler(repository.NewContactRepo(db), verifier, n)

	e := newEcho()
	e.POST("/v1/contact", h.Submit)
	e.GET("/v1/recaptcha/config", h.RecaptchaConfig)
	e.POST("/v1/recaptcha/verify", h.RecaptchaVerify)
	e.PATCH("/v1/admin/contact/:id", h.AdminUpdateStatus)
	return e, mock, n
}

func expectContactInsert(mock sqlmock.Sqlmock) {
	now := time.Now()
	mock.ExpectExec(`INSERT INTO contact_messages`).
		WithArgs("Ann", "ann@example.com", "Do you have tours to Bali?", model.MessageNew).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery(`SELECT .+ FROM contact_messages WHERE id = \?`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "message", "status", "created_at", "updated_at"}).
			AddRow(9, "Ann", "ann@example.com", "Do you have tours to Bali?", model.MessageNew, now, now))
}

const contactBody = `{"name":" Ann ","email":"Ann@Example.com","message":"Do you have tours to Bali?","recaptcha_token":"tok"}`

func TestContactSubmit_LowScoreRejected(t *testing.T) {
	ts := siteverify(t, http.StatusOK, `{"success":true,"score":0.2,"action":"contact"}`)
	e, mock, n := contactSetup(t, map[string]any{settings.RecaptchaSecretKey: "secret"}, ts.URL)

	rec := do(e, http.MethodPost, "/v1/contact", contactBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, n.msgs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactSubmit_SiteverifyOutageDoesNotBlock(t *testing.T) {
	ts := siteverify(t, http.StatusInternalServerError, `oops`)
	e, mock, n := contactSetup(t, map[string]any{settings.RecaptchaSecretKey: "secret"}, ts.URL)
	expectContactInsert(mock)

	rec := do(e, http.MethodPost, "/v1/contact", contactBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, n.msgs, 1)
	assert.Equal(t, uint64(9), n.msgs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactSubmit_NoSecretSkipsVerification(t *testing.T) {
	e, mock, n := contactSetup(t, nil, "http://127.0.0.1:1")
	expectContactInsert(mock)

	rec := do(e, http.MethodPost, "/v1/contact", contactBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, n.msgs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactSubmit_ShortMessage(t *testing.T) {
	e, _, _ := contactSetup(t, nil, "")
	rec := do(e, http.MethodPost, "/v1/contact", `{"name":"Ann","email":"ann@example.com","message":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, rec).Error.Code)
}

func TestContactAdminUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	e, mock, _ := contactSetup(t, nil, "")
	rec := do(e, http.MethodPatch, "/v1/admin/contact/3", `{"status":"SPAM"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecaptchaEndpoints(t *testing.T) {
	e, _, _ := contactSetup(t, map[string]any{settings.RecaptchaSiteKey: "site-123"}, "")

	rec := do(e, http.MethodGet, "/v1/recaptcha/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"site_key":"site-123"}`, string(decode(t, rec).Data))

	rec = do(e, http.MethodPost, "/v1/recaptcha/verify", `{"token":"abc"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "INTEGRATION_FAILURE", decode(t, rec).Error.Code)

	ts := siteverify(t, http.StatusOK, `{"success":true,"score":0.9,"action":"submit"}`)
	e, _, _ = contactSetup(t, map[string]any{settings.RecaptchaSecretKey: "secret"}, ts.URL)
	rec = do(e, http.MethodPost, "/v1/recaptcha/verify", `{"token":"abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"score":0.9,"action":"submit"}`, string(decode(t, rec).Data))
}

// ----- chat -----

func TestChat_NotConfigured(t *testing.T) {
	h := NewChatHandler(repository.NewTourRepo(nil), chat.NewClient(), newResolver(t, nil))
	e := newEcho()
	e.GET("/v1/chat", h.Status)
	e.POST("/v1/chat", h.Chat)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/v1/chat", "").Code)

	rec := do(e, http.MethodPost, "/v1/chat", `{"message":"Any beach tours?"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "INTEGRATION_FAILURE", decode(t, rec).Error.Code)

	rec = do(e, http.MethodPost, "/v1/chat", `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ----- settings -----

func TestSettings_SaveMasksAndReveals(t *testing.T) {
	h := NewSettingsHandler(newResolver(t, nil))
	e := newEcho()
	e.GET("/v1/admin/settings", h.GetSettings)
	e.POST("/v1/admin/settings", h.SaveSettings)

	rec := do(e, http.MethodPost, "/v1/admin/settings",
		`{"settings":{"RAZORPAY_SECRET_KEY":"abcdef1234","CURRENCY":"USD","SMTP_PORT":"465"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var masked map[string]any
	require.NoError(t, json.Unmarshal(decode(t, do(e, http.MethodGet, "/v1/admin/settings", "")).Data, &masked))
	assert.Equal(t, "******1234", masked["RAZORPAY_SECRET_KEY"])
	assert.Equal(t, "USD", masked["CURRENCY"])
	assert.Equal(t, float64(465), masked["SMTP_PORT"])

	var revealed map[string]any
	require.NoError(t, json.Unmarshal(decode(t, do(e, http.MethodGet, "/v1/admin/settings?reveal=true", "")).Data, &revealed))
	assert.Equal(t, "abcdef1234", revealed["RAZORPAY_SECRET_KEY"])

	rec = do(e, http.MethodPost, "/v1/admin/settings", `{"settings":{"SMTP_PORT":"abc"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/v1/admin/settings", `{"settings":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ----- uploads -----

type fakeStore struct {
	UploadFunc  func(ctx context.Context, file io.Reader, folder string) (*media.Image, error)
	DestroyFunc func(ctx context.Context, publicID string) error
}

func (f *fakeStore) Upload(ctx context.Context, file io.Reader, folder string) (*media.Image, error) {
	return f.UploadFunc(ctx, file, folder)
}

func (f *fakeStore) Destroy(ctx context.Context, publicID string) error {
	return f.DestroyFunc(ctx, publicID)
}

func multipartRequest(t *testing.T, contentType string, size int, folder string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if contentType != "" {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="photo.jpg"`)
		hdr.Set("Content-Type", contentType)
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte{0xff}, size))
		require.NoError(t, err)
	}
	if folder != "" {
		require.NoError(t, w.WriteField("folder", folder))
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/uploads", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	var gotFolder, destroyed string
	store := &fakeStore{
		UploadFunc: func(_ context.Context, _ io.Reader, folder string) (*media.Image, error) {
			gotFolder = folder
			return &media.Image{PublicID: folder + "/abc", SecureURL: "https://img.example/abc.jpg"}, nil
		},
		DestroyFunc: func(_ context.Context, id string) error {
			destroyed = id
			return nil
		},
	}
	h := NewUploadHandler(store)
	e := newEcho()
	e.POST("/v1/admin/uploads", h.Upload)
	e.DELETE("/v1/admin/uploads/*", h.Delete)

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusBadRequest, serve(multipartRequest(t, "", 0, "")).Code)
	assert.Equal(t, http.StatusBadRequest, serve(multipartRequest(t, "application/pdf", 10, "")).Code)
	assert.Equal(t, http.StatusBadRequest, serve(multipartRequest(t, "image/jpeg", media.MaxUploadBytes+1, "")).Code)

	rec := serve(multipartRequest(t, "image/jpeg", 128, ""))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, media.DefaultFolder, gotFolder)
	assert.JSONEq(t, `{"public_id":"travel-agency/abc","secure_url":"https://img.example/abc.jpg"}`, string(decode(t, rec).Data))

	rec = serve(multipartRequest(t, "image/png", 128, "tours"))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "tours", gotFolder)

	rec = do(e, http.MethodDelete, "/v1/admin/uploads/travel-agency/abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "travel-agency/abc", destroyed)
}

func TestUpload_NotConfigured(t *testing.T) {
	store := &fakeStore{
		UploadFunc: func(context.Context, io.Reader, string) (*media.Image, error) {
			return nil, media.ErrNotConfigured
		},
		DestroyFunc: func(context.Context, string) error { return errors.New("boom") },
	}
	h := NewUploadHandler(store)
	e := newEcho()
	e.POST("/v1/admin/uploads", h.Upload)
	e.DELETE("/v1/admin/uploads/*", h.Delete)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, multipartRequest(t, "image/jpeg", 16, ""))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	assert.Equal(t, http.StatusBadGateway, do(e, http.MethodDelete, "/v1/admin/uploads/x", "").Code)
}

// ----- admin tours -----

func TestAdminCreateTour(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h := NewAdminTourHandler(repository.NewTourRepo(db), &fakeStore{}, nil, "tours-cache")
	e := newEcho()
	e.POST("/v1/admin/tours", h.CreateTour)

	body := `{"title":"Bali Escape","description":"Beaches","location_country":"Indonesia",
		"location_city":"Ubud","category":"honeymoon","duration_days":5,"base_price":50000}`

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tours WHERE slug = \?`).
		WithArgs("bali-escape", 0).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	rec := do(e, http.MethodPost, "/v1/admin/tours", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())

	rec = do(e, http.MethodPost, "/v1/admin/tours", strings.Replace(body, "honeymoon", "cruise", 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/v1/admin/tours", strings.Replace(body, `"base_price":50000`, `"base_price":50000,"discount_price":60000`, 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/v1/admin/tours", `{"title":"No details"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToImagesKeepsOrder(t *testing.T) {
	alt := " Sunset "
	imgs := toImages([]tourImageReq{
		{PublicID: "a", SecureURL: "https://x/a.jpg", AltText: &alt},
		{SecureURL: "https://x/b.jpg"},
	})
	require.Len(t, imgs, 2)
	assert.Equal(t, 0, imgs[0].SortOrder)
	assert.Equal(t, "a", *imgs[0].PublicID)
	assert.Equal(t, "Sunset", *imgs[0].AltText)
	assert.Equal(t, 1, imgs[1].SortOrder)
	assert.Nil(t, imgs[1].PublicID)
}
