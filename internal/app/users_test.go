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
	"github.com/cinebook/cinema-booking-system/internal/mocks"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func testUser() *domain.User {
	return &domain.User{
		ID:         1,
		Name:       "Freddie Mercury",
		Email:      "freddie@example.com",
		Mobile:     "05555555555",
		Profession: "Singer",
		Location:   "London",
		CreatedAt:  time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC),
		Version:    1,
	}
}

func TestGetCurrentUser(t *testing.T) {
	tests := []struct {
		name           string
		setupSession   bool
		getByIdFunc    func(context.Context, int) (*domain.User, error)
		wantStatus     int
		wantResponse   *api.UserResponse
		wantErrMessage string
	}{
		{
			name:         "successful retrieval",
			setupSession: true,
			getByIdFunc: func(ctx context.Context, id int) (*domain.User, error) {
				return testUser(), nil
			},
			wantStatus: http.StatusOK,
			wantResponse: &api.UserResponse{
				Id:         1,
				Name:       "Freddie Mercury",
				Email:      "freddie@example.com",
				Mobile:     "05555555555",
				Profession: "Singer",
				Location:   "London",
				Version:    1,
			},
		},
		{
			name:         "user no longer exists",
			setupSession: true,
			getByIdFunc: func(ctx context.Context, id int) (*domain.User, error) {
				return nil, domain.ErrRecordNotFound
			},
			wantStatus:     http.StatusNotFound,
			wantErrMessage: ErrNotFound,
		},
		{
			name:           "no session",
			setupSession:   false,
			wantStatus:     http.StatusUnauthorized,
			wantErrMessage: ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApplication(func(a *Application) {
				a.userRepo = &mocks.MockUserRepo{GetByIdFunc: tt.getByIdFunc}
			})

			w, r := executeRequest(t, http.MethodGet, "/users/me", nil)

			if tt.setupSession {
				r = setupTestSession(t, app, r, 1)
			}

			authedHandler(app, app.GetCurrentUser).ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			if tt.wantResponse != nil {
				var response api.UserResponse
				if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}

				cmpOpts := cmpopts.IgnoreFields(api.UserResponse{}, "CreatedAt")
				if diff := cmp.Diff(tt.wantResponse, &response, cmpOpts); diff != "" {
					t.Errorf("Mismatch (-want +got):\n%s", diff)
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

func TestUpdateUser(t *testing.T) {
	tests := []struct {
		name           string
		input          api.UpdateUserRequest
		updateFunc     func(context.Context, *domain.User) error
		wantStatus     int
		wantName       string
		wantLocation   string
		wantErrMessage string
	}{
		{
			name:  "updates only the provided fields",
			input: api.UpdateUserRequest{Location: ptr("Zanzibar")},
			updateFunc: func(ctx context.Context, user *domain.User) error {
				return nil
			},
			wantStatus:   http.StatusOK,
			wantName:     "Freddie Mercury",
			wantLocation: "Zanzibar",
		},
		{
			name:  "updates the name",
			input: api.UpdateUserRequest{Name: ptr("Farrokh Bulsara")},
			updateFunc: func(ctx context.Context, user *domain.User) error {
				return nil
			},
			wantStatus:   http.StatusOK,
			wantName:     "Farrokh Bulsara",
			wantLocation: "London",
		},
		{
			name:           "rejects a too short name",
			input:          api.UpdateUserRequest{Name: ptr("F")},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must be at least 2 characters long",
		},
		{
			name:  "concurrent edit",
			input: api.UpdateUserRequest{Name: ptr("Farrokh Bulsara")},
			updateFunc: func(ctx context.Context, user *domain.User) error {
				return domain.ErrEditConflict
			},
			wantStatus:     http.StatusConflict,
			wantErrMessage: ErrEditConflict,
		},
		{
			name:  "database error",
			input: api.UpdateUserRequest{Name: ptr("Farrokh Bulsara")},
			updateFunc: func(ctx context.Context, user *domain.User) error {
				return fmt.Errorf("database error")
			},
			wantStatus:     http.StatusInternalServerError,
			wantErrMessage: ErrInternalServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApplication(func(a *Application) {
				a.userRepo = &mocks.MockUserRepo{
					GetByIdFunc: func(ctx context.Context, id int) (*domain.User, error) {
						return testUser(), nil
					},
					UpdateFunc: tt.updateFunc,
				}
			})

			w, r := executeRequest(t, http.MethodPatch, "/users/me", tt.input)
			r = setupTestSession(t, app, r, 1)

			authedHandler(app, app.UpdateUser).ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			if tt.wantName != "" {
				var response api.UserResponse
				if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}

				if response.Name != tt.wantName {
					t.Errorf("name = %s, want %s", response.Name, tt.wantName)
				}
				if response.Location != tt.wantLocation {
					t.Errorf("location = %s, want %s", response.Location, tt.wantLocation)
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

func TestDeleteUser(t *testing.T) {
	tests := []struct {
		name           string
		getByIdFunc    func(context.Context, int) (*domain.User, error)
		deleteFunc     func(context.Context, *domain.User) error
		wantStatus     int
		wantErrMessage string
	}{
		{
			name: "successful deletion",
			getByIdFunc: func(ctx context.Context, id int) (*domain.User, error) {
				return testUser(), nil
			},
			deleteFunc: func(ctx context.Context, user *domain.User) error {
				return nil
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "user no longer exists",
			getByIdFunc: func(ctx context.Context, id int) (*domain.User, error) {
				return nil, domain.ErrRecordNotFound
			},
			wantStatus:     http.StatusNotFound,
			wantErrMessage: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApplication(func(a *Application) {
				a.userRepo = &mocks.MockUserRepo{
					GetByIdFunc: tt.getByIdFunc,
					DeleteFunc:  tt.deleteFunc,
				}
			})

			w, r := executeRequest(t, http.MethodDelete, "/users/me", nil)
			r = setupTestSession(t, app, r, 1)

			authedHandler(app, app.DeleteUser).ServeHTTP(w, r)

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
