package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/quotegrid/quotegrid/internal/auth/jwt"
	"github.com/quotegrid/quotegrid/internal/ctrl"
	"github.com/quotegrid/quotegrid/internal/dto"
	md "github.com/quotegrid/quotegrid/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHandler_GetMe(t *testing.T) {
	const uri = "/api/users/me"

	h, mctrl, mauth := newTestHandler(t)

	testClaims := jwt.Claims{ID: 42, Username: "jdoe", Role: md.RoleMember}
	testUser := &md.User{
		ID:       42,
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Role:     md.RoleMember,
		IsActive: true,
	}

	t.Run(
		"Success", func(t *testing.T) {
			mauth.EXPECT().
				ParseClaims(gomock.Any(), "valid-token").
				Return(testClaims, nil)
			mctrl.EXPECT().
				GetUserByID(gomock.Any(), testClaims.ID).
				Return(testUser, nil)

			req := httptest.NewRequest(http.MethodGet, uri, nil)
			req.Header.Set("Authorization", "Bearer valid-token")

			w := httptest.NewRecorder()
			h.Router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)

			res := &dto.UserResponse{}
			require.NoError(t, json.NewDecoder(w.Result().Body).Decode(res))
			assert.Equal(t, testUser.ID, res.ID)
			assert.Equal(t, testUser.Username, res.Username)
		},
	)

	t.Run(
		"NotFound", func(t *testing.T) {
			mauth.EXPECT().
				ParseClaims(gomock.Any(), "valid-token").
				Return(testClaims, nil)
			mctrl.EXPECT().
				GetUserByID(gomock.Any(), testClaims.ID).
				Return(nil, ctrl.ErrNotFound)

			req := httptest.NewRequest(http.MethodGet, uri, nil)
			req.Header.Set("Authorization", "Bearer valid-token")

			w := httptest.NewRecorder()
			h.Router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNotFound, w.Code)
		},
	)

	t.Run(
		"NoToken", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, uri, nil)

			w := httptest.NewRecorder()
			h.Router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		},
	)
}

func TestHandler_CreateUser(t *testing.T) {
	const uri = "/api/users"

	h, mctrl, mauth := newTestHandler(t)

	adminClaims := jwt.Claims{ID: 1, Username: "root", Role: md.RoleAdmin}
	payload := map[string]any{
		"username": "newuser",
		"email":    "new@example.com",
		"password": "validpassword123!",
		"role":     "member",
	}

	send := func(t *testing.T, body map[string]any) *httptest.ResponseRecorder {
		t.Helper()

		raw, err := json.Marshal(body)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, uri, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer admin-token")

		w := httptest.NewRecorder()
		h.Router.ServeHTTP(w, req)
		return w
	}

	t.Run(
		"Success", func(t *testing.T) {
			mauth.EXPECT().
				ParseClaims(gomock.Any(), "admin-token").
				Return(adminClaims, nil)
			mctrl.EXPECT().
				CreateUser(gomock.Any(), gomock.Any()).
				Return(&dto.CreateUserResponse{ID: 101}, nil)

			w := send(t, payload)
			assert.Equal(t, http.StatusCreated, w.Code)

			res := &dto.CreateUserResponse{}
			require.NoError(t, json.NewDecoder(w.Result().Body).Decode(res))
			assert.Equal(t, int64(101), res.ID)
		},
	)

	t.Run(
		"Conflict", func(t *testing.T) {
			mauth.EXPECT().
				ParseClaims(gomock.Any(), "admin-token").
				Return(adminClaims, nil)
			mctrl.EXPECT().
				CreateUser(gomock.Any(), gomock.Any()).
				Return(nil, ctrl.ErrAlreadyExists)

			w := send(t, payload)
			assert.Equal(t, http.StatusConflict, w.Code)
		},
	)

	t.Run(
		"InvalidRole", func(t *testing.T) {
			mauth.EXPECT().
				ParseClaims(gomock.Any(), "admin-token").
				Return(adminClaims, nil)

			bad := map[string]any{
				"username": "newuser",
				"email":    "new@example.com",
				"password": "validpassword123!",
				"role":     "superuser",
			}

			w := send(t, bad)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		},
	)

	t.Run(
		"NonAdminForbidden", func(t *testing.T) {
			mauth.EXPECT().
				ParseClaims(gomock.Any(), "admin-token").
				Return(jwt.Claims{ID: 2, Role: md.RoleMember}, nil)

			w := send(t, payload)
			assert.Equal(t, http.StatusForbidden, w.Code)
		},
	)
}

func TestHandler_DeactivateUser(t *testing.T) {
	h, mctrl, mauth := newTestHandler(t)

	ownerClaims := jwt.Claims{ID: 1, Username: "owner", Role: md.RoleOwner}

	send := func(t *testing.T, path string) *httptest.ResponseRecorder {
		t.Helper()

		req := httptest.NewRequest(http.MethodPut, path, nil)
		req.Header.Set("Authorization", "Bearer owner-token")

		w := httptest.NewRecorder()
		h.Router.ServeHTTP(w, req)
		return w
	}

	t.Run(
		"Success", func(t *testing.T) {
			mauth.EXPECT().
				ParseClaims(gomock.Any(), "owner-token").
				Return(ownerClaims, nil)
			mctrl.EXPECT().
				DeactivateUser(gomock.Any(), int64(42), gomock.Any()).
				Return(nil)

			w := send(t, "/api/users/42/deactivate")
			assert.Equal(t, http.StatusOK, w.Code)
		},
	)

	t.Run(
		"NotFound", func(t *testing.T) {
			mauth.EXPECT().
				ParseClaims(gomock.Any(), "owner-token").
				Return(ownerClaims, nil)
			mctrl.EXPECT().
				DeactivateUser(gomock.Any(), int64(999), gomock.Any()).
				Return(ctrl.ErrNotFound)

			w := send(t, "/api/users/999/deactivate")
			assert.Equal(t, http.StatusNotFound, w.Code)
		},
	)

	t.Run(
		"BadPathArg", func(t *testing.T) {
			mauth.EXPECT().
				ParseClaims(gomock.Any(), "owner-token").
				Return(ownerClaims, nil)

			w := send(t, "/api/users/abc/deactivate")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		},
	)
}

func TestHandler_ListCompanyUsers(t *testing.T) {
	h, mctrl, mauth := newTestHandler(t)

	companyID := int64(7)
	memberClaims := jwt.Claims{ID: 42, Role: md.RoleMember, CompanyID: &companyID}

	t.Run(
		"Success", func(t *testing.T) {
			mauth.EXPECT().
				ParseClaims(gomock.Any(), "member-token").
				Return(memberClaims, nil)
			mctrl.EXPECT().
				ListCompanyUsers(gomock.Any(), companyID, 2, 10, gomock.Any()).
				Return(
					&dto.PaginatedUserResponse{
						Data:        []*dto.UserResponse{{ID: 1}},
						Count:       11,
						TotalPages:  2,
						CurrentPage: 2,
					}, nil,
				)

			req := httptest.NewRequest(
				http.MethodGet, "/api/companies/7/users?page=2&size=10", nil,
			)
			req.Header.Set("Authorization", "Bearer member-token")

			w := httptest.NewRecorder()
			h.Router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)

			res := &dto.PaginatedUserResponse{}
			require.NoError(t, json.NewDecoder(w.Result().Body).Decode(res))
			assert.Equal(t, int64(11), res.Count)
			assert.Len(t, res.Data, 1)
		},
	)

	t.Run(
		"CrossCompanyForbidden", func(t *testing.T) {
			mauth.EXPECT().
				ParseClaims(gomock.Any(), "member-token").
				Return(memberClaims, nil)

			req := httptest.NewRequest(http.MethodGet, "/api/companies/8/users", nil)
			req.Header.Set("Authorization", "Bearer member-token")

			w := httptest.NewRecorder()
			h.Router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusForbidden, w.Code)
		},
	)
}
