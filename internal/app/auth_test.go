package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/cinebook/cinema-booking-system/api"
	"github.com/cinebook/cinema-booking-system/internal/domain"
	"github.com/cinebook/cinema-booking-system/internal/mailer"
	"github.com/cinebook/cinema-booking-system/internal/mocks"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

func validRegisterRequest() api.RegisterRequest {
	return api.RegisterRequest{
		Name:     "Freddie Mercury",
		Email:    "freddie@example.com",
		Password: "Bohemian1!",
		Mobile:   "05555555555",
	}
}

func TestRegisterUser(t *testing.T) {
	tests := []struct {
		name           string
		input          func() api.RegisterRequest
		createFunc     func(context.Context, *domain.User) error
		wantStatus     int
		wantErrMessage string
		wantEmail      bool
	}{
		{
			name:  "successful registration",
			input: validRegisterRequest,
			createFunc: func(ctx context.Context, user *domain.User) error {
				user.ID = 1
				user.CreatedAt = time.Now()
				user.Version = 1
				return nil
			},
			wantStatus: http.StatusCreated,
			wantEmail:  true,
		},
		{
			name: "registration with a birth date",
			input: func() api.RegisterRequest {
				req := validRegisterRequest()
				req.BirthDate = "1946-09-05"
				return req
			},
			createFunc: func(ctx context.Context, user *domain.User) error {
				if user.BirthDate == nil || user.BirthDate.Year() != 1946 {
					return fmt.Errorf("birth date not parsed")
				}
				user.ID = 1
				return nil
			},
			wantStatus: http.StatusCreated,
			wantEmail:  true,
		},
		{
			name: "existing email is not revealed",
			input: func() api.RegisterRequest {
				return validRegisterRequest()
			},
			createFunc: func(ctx context.Context, user *domain.User) error {
				return domain.ErrUserAlreadyExists
			},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "invalid input data",
		},
		{
			name: "weak password fails validation",
			input: func() api.RegisterRequest {
				req := validRegisterRequest()
				req.Password = "password"
				return req
			},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must be at least 8 characters long and include at least one uppercase letter, one lowercase letter, " +
				"one number, and one special character (!@#$%^&*).",
		},
		{
			name: "invalid email fails validation",
			input: func() api.RegisterRequest {
				req := validRegisterRequest()
				req.Email = "not-an-email"
				return req
			},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must be a valid email address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockMailer := mailer.NewMockMailer()

			app := newTestApplication(func(a *Application) {
				a.userRepo = &mocks.MockUserRepo{CreateFunc: tt.createFunc}
				a.mailer = mockMailer
			})

			w, r := executeRequest(t, http.MethodPost, "/users", tt.input())

			app.sessionManager.LoadAndSave(http.HandlerFunc(app.RegisterUser)).ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			if tt.wantEmail {
				var sent []mailer.Email
				for i := 0; i < 50; i++ {
					sent = mockMailer.GetSentEmails()
					if len(sent) > 0 {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}

				if len(sent) != 1 || sent[0].TemplateFile != "user_welcome.tmpl" {
					t.Errorf("expected a welcome email, got %v", sent)
				}

				var response api.UserResponse
				if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}

				if response.Email != "freddie@example.com" {
					t.Errorf("email = %s, want freddie@example.com", response.Email)
				}
			}

			checkErrorResponse(t, w, struct {
				wantStatus     int
				wantErrMessage string
			}{
				wantStatus:     tt.wantStatus,
				wantErrMessage: tt.wantErrMessage,
			})
		})
	}
}

func TestLogin(t *testing.T) {
	existingUser := func() *domain.User {
		user := &domain.User{ID: 1, Name: "Freddie", Email: "freddie@example.com"}
		if err := user.Password.Set("Bohemian1!"); err != nil {
			t.Fatal(err)
		}
		return user
	}

	tests := []struct {
		name           string
		input          api.LoginRequest
		loggedIn       bool
		getByEmailFunc func(context.Context, string) (*domain.User, error)
		wantStatus     int
		wantErrMessage string
	}{
		{
			name:  "successful login",
			input: api.LoginRequest{Email: "freddie@example.com", Password: "Bohemian1!"},
			getByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
				return existingUser(), nil
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "already logged in",
			loggedIn:   true,
			input:      api.LoginRequest{Email: "freddie@example.com", Password: "Bohemian1!"},
			wantStatus: http.StatusNoContent,
		},
		{
			name:  "wrong password",
			input: api.LoginRequest{Email: "freddie@example.com", Password: "WrongPass1!"},
			getByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
				return existingUser(), nil
			},
			wantStatus:     http.StatusUnauthorized,
			wantErrMessage: ErrInvalidCredentials,
		},
		{
			name:  "unknown email",
			input: api.LoginRequest{Email: "nobody@example.com", Password: "Bohemian1!"},
			getByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
				return nil, domain.ErrRecordNotFound
			},
			wantStatus:     http.StatusUnauthorized,
			wantErrMessage: ErrInvalidCredentials,
		},
		{
			name:           "missing credentials",
			input:          api.LoginRequest{},
			wantStatus:     http.StatusUnauthorized,
			wantErrMessage: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			redisClient := new(mocks.MockRedisClient)
			redisClient.On("Get", mock.Anything, mock.Anything).
				Return(redis.NewStringResult("", redis.Nil)).Maybe()

			app := newTestApplication(func(a *Application) {
				a.userRepo = &mocks.MockUserRepo{GetByEmailFunc: tt.getByEmailFunc}
				a.redis = redisClient
			})

			w, r := executeRequest(t, http.MethodPost, "/tokens/session", tt.input)

			if tt.loggedIn {
				r = setupTestSession(t, app, r, 1)
			}

			app.sessionManager.LoadAndSave(http.HandlerFunc(app.Login)).ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			checkErrorResponse(t, w, struct {
				wantStatus     int
				wantErrMessage string
			}{
				wantStatus:     tt.wantStatus,
				wantErrMessage: tt.wantErrMessage,
			})
		})
	}
}

func TestLogout(t *testing.T) {
	tests := []struct {
		name           string
		loggedIn       bool
		wantStatus     int
		wantErrMessage string
	}{
		{
			name:       "successful logout",
			loggedIn:   true,
			wantStatus: http.StatusNoContent,
		},
		{
			name:           "no active session",
			loggedIn:       false,
			wantStatus:     http.StatusNotFound,
			wantErrMessage: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApplication()

			w, r := executeRequest(t, http.MethodDelete, "/tokens/session", nil)

			if tt.loggedIn {
				r = setupTestSession(t, app, r, 1)
			}

			app.sessionManager.LoadAndSave(http.HandlerFunc(app.Logout)).ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			checkErrorResponse(t, w, struct {
				wantStatus     int
				wantErrMessage string
			}{
				wantStatus:     tt.wantStatus,
				wantErrMessage: tt.wantErrMessage,
			})
		})
	}
}
