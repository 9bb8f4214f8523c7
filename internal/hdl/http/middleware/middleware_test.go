package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/quotegrid/quotegrid/internal/auth/jwt"
	"github.com/quotegrid/quotegrid/internal/config"
	md "github.com/quotegrid/quotegrid/internal/models"
	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	)
}

func requestWithClaims(claims *jwt.Claims) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if claims != nil {
		ctx := context.WithValue(req.Context(), config.ClaimsKey, *claims)
		req = req.WithContext(ctx)
	}
	return req
}

func claimsFor(role md.Role, companyID *int64) *jwt.Claims {
	return &jwt.Claims{
		ID:        42,
		Username:  "jdoe",
		Role:      role,
		CompanyID: companyID,
	}
}

func TestRequireAdmin(t *testing.T) {
	companyID := int64(7)

	tests := []struct {
		name   string
		claims *jwt.Claims
		status int
	}{
		{"NoIdentity", nil, http.StatusUnauthorized},
		{"Member", claimsFor(md.RoleMember, &companyID), http.StatusForbidden},
		{"Owner", claimsFor(md.RoleOwner, &companyID), http.StatusForbidden},
		{"Admin", claimsFor(md.RoleAdmin, nil), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				w := httptest.NewRecorder()
				RequireAdmin(okHandler()).ServeHTTP(w, requestWithClaims(tt.claims))
				assert.Equal(t, tt.status, w.Code)
			},
		)
	}
}

func TestRequireOwner(t *testing.T) {
	companyID := int64(7)

	tests := []struct {
		name   string
		claims *jwt.Claims
		status int
	}{
		{"NoIdentity", nil, http.StatusUnauthorized},
		{"Member", claimsFor(md.RoleMember, &companyID), http.StatusForbidden},
		{"Owner", claimsFor(md.RoleOwner, &companyID), http.StatusOK},
		{"Admin", claimsFor(md.RoleAdmin, nil), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				w := httptest.NewRecorder()
				RequireOwner(okHandler()).ServeHTTP(w, requestWithClaims(tt.claims))
				assert.Equal(t, tt.status, w.Code)
			},
		)
	}
}

func TestRequireCompanyAccess(t *testing.T) {
	sameCompany := int64(7)
	otherCompany := int64(8)

	tests := []struct {
		name   string
		claims *jwt.Claims
		status int
	}{
		{"NoIdentity", nil, http.StatusUnauthorized},
		{"AdminAnyCompany", claimsFor(md.RoleAdmin, nil), http.StatusOK},
		{"OwnerWithCompany", claimsFor(md.RoleOwner, &otherCompany), http.StatusOK},
		{"MemberSameCompany", claimsFor(md.RoleMember, &sameCompany), http.StatusOK},
		{"MemberOtherCompany", claimsFor(md.RoleMember, &otherCompany), http.StatusForbidden},
		{"MemberNoCompany", claimsFor(md.RoleMember, nil), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				r := chi.NewRouter()
				r.With(RequireCompanyAccess).Get(
					"/api/companies/{companyId}/users",
					func(w http.ResponseWriter, r *http.Request) {
						w.WriteHeader(http.StatusOK)
					},
				)

				req := httptest.NewRequest(http.MethodGet, "/api/companies/7/users", nil)
				if tt.claims != nil {
					ctx := context.WithValue(req.Context(), config.ClaimsKey, *tt.claims)
					req = req.WithContext(ctx)
				}

				w := httptest.NewRecorder()
				r.ServeHTTP(w, req)
				assert.Equal(t, tt.status, w.Code)
			},
		)
	}
}

func TestRequireSameCompany(t *testing.T) {
	sameCompany := int64(7)
	otherCompany := int64(8)

	tests := []struct {
		name   string
		claims *jwt.Claims
		status int
	}{
		{"AdminBypasses", claimsFor(md.RoleAdmin, nil), http.StatusOK},
		{"OwnerOtherCompany", claimsFor(md.RoleOwner, &otherCompany), http.StatusForbidden},
		{"MemberSameCompany", claimsFor(md.RoleMember, &sameCompany), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				r := chi.NewRouter()
				r.With(RequireSameCompany).Get(
					"/api/companies/{companyId}/users",
					func(w http.ResponseWriter, r *http.Request) {
						w.WriteHeader(http.StatusOK)
					},
				)

				req := httptest.NewRequest(http.MethodGet, "/api/companies/7/users", nil)
				if tt.claims != nil {
					ctx := context.WithValue(req.Context(), config.ClaimsKey, *tt.claims)
					req = req.WithContext(ctx)
				}

				w := httptest.NewRecorder()
				r.ServeHTTP(w, req)
				assert.Equal(t, tt.status, w.Code)
			},
		)
	}
}
