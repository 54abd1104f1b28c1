package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/cinebook/cinema-booking-system/internal/app"
	"github.com/cinebook/cinema-booking-system/internal/mailer"
	"github.com/cinebook/cinema-booking-system/internal/notifier"
	"github.com/cinebook/cinema-booking-system/internal/repository"
	appvalidator "github.com/cinebook/cinema-booking-system/internal/validator"
)

type TestApp struct {
	App    *app.Application
	DB     *pgxpool.Pool
	Mailer *mailer.MockMailer
	Bus    *notifier.Bus
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	validator := appvalidator.NewValidator()
	mockMailer := mailer.NewMockMailer()

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	sessionManager := app.NewSessionManager(redisClient)

	userRepo := repository.NewPostgresUserRepository(db)
	movieRepo := repository.NewPostgresMovieRepository(db)
	theaterRepo := repository.NewPostgresTheaterRepository(db)
	screeningRepo := repository.NewPostgresScreeningRepository(db)
	bookingRepo := repository.NewPostgresBookingRepository(db)

	publisher, err := notifier.NewRedisPublisher(redisClient, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	subscriber, err := notifier.NewRedisSubscriber(redisClient, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	bus := notifier.NewBus(publisher, logger)

	application := app.NewApp(
		cfg,
		logger,
		db,
		redisClient,
		validator,
		mockMailer,
		sessionManager,
		userRepo,
		movieRepo,
		theaterRepo,
		screeningRepo,
		bookingRepo,
		bus,
		subscriber,
	)

	return &TestApp{
		App:    application,
		DB:     db,
		Mailer: mockMailer,
		Bus:    bus,
	}, nil
}

// authenticatedUserCookies registers the test user if needed and returns
// the session cookie of a logged-in session.
func (app *TestApp) authenticatedUserCookies(t testing.TB) []http.Cookie {
	t.Helper()

	registerBody, err := json.Marshal(map[string]string{
		"name":     TestUserName,
		"email":    TestUserEmail,
		"password": TestUserPassword,
		"mobile":   TestUserMobile,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(registerBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.App.Routes().ServeHTTP(rec, req)

	// 400 means the user already exists from a previous scenario
	if rec.Code != http.StatusCreated && rec.Code != http.StatusBadRequest {
		t.Fatalf("failed to register test user: status %d", rec.Code)
	}

	loginBody, err := json.Marshal(map[string]string{
		"email":    TestUserEmail,
		"password": TestUserPassword,
	})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/tokens/session", bytes.NewReader(loginBody))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	app.App.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code, "failed to login test user")

	cookies := make([]http.Cookie, 0, 1)
	for _, cookie := range rec.Result().Cookies() {
		cookies = append(cookies, *cookie)
	}

	require.NotEmpty(t, cookies, "login did not set a session cookie")

	return cookies
}

// guestCookies returns the session cookie of a fresh anonymous session.
func (app *TestApp) guestCookies(t testing.TB) []http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	app.App.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	cookies := make([]http.Cookie, 0, 1)
	for _, cookie := range rec.Result().Cookies() {
		cookies = append(cookies, *cookie)
	}

	return cookies
}

func registerAndLogin(t testing.TB, app *TestApp, email string) []http.Cookie {
	t.Helper()

	registerBody, err := json.Marshal(map[string]string{
		"name":     "Concurrent Booker",
		"email":    email,
		"password": TestUserPassword,
		"mobile":   TestUserMobile,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(registerBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.App.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated && rec.Code != http.StatusBadRequest {
		t.Fatalf("failed to register user %s: status %d", email, rec.Code)
	}

	loginBody, err := json.Marshal(map[string]string{
		"email":    email,
		"password": TestUserPassword,
	})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/tokens/session", bytes.NewReader(loginBody))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	app.App.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code, fmt.Sprintf("failed to login user %s", email))

	cookies := make([]http.Cookie, 0, 1)
	for _, cookie := range rec.Result().Cookies() {
		cookies = append(cookies, *cookie)
	}

	return cookies
}
