package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/opentracing/opentracing-go"
	"github.com/quotegrid/quotegrid/internal/auth"
	"github.com/quotegrid/quotegrid/internal/auth/jwt"
	"github.com/quotegrid/quotegrid/internal/config"
	"github.com/quotegrid/quotegrid/internal/hdl"
	"github.com/quotegrid/quotegrid/internal/hdl/http/utils"
	md "github.com/quotegrid/quotegrid/internal/models"
	metrics "github.com/quotegrid/quotegrid/internal/observability/metrics/prometheus"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// ClaimsFromCtx returns the typed claims the Auth middleware attached.
func ClaimsFromCtx(ctx context.Context) (jwt.Claims, bool) {
	claims, ok := ctx.Value(config.ClaimsKey).(jwt.Claims)
	return claims, ok
}

// Auth requires a valid bearer access token and attaches its claims to the
// request context. Missing or malformed headers and verification failures
// are all 401: the client's cue to attempt a silent refresh.
func Auth(au auth.Core) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				header := r.Header.Get("Authorization")
				if header == "" || !strings.HasPrefix(header, bearerPrefix) {
					utils.ErrResponse(w, http.StatusUnauthorized, hdl.ErrMissingToken)
					return
				}

				claims, err := au.ParseClaims(
					r.Context(), strings.TrimPrefix(header, bearerPrefix),
				)
				if err != nil {
					utils.ErrResponse(w, http.StatusUnauthorized, auth.ErrInvalidToken)
					return
				}

				ctx := context.WithValue(r.Context(), config.ClaimsKey, claims)
				next.ServeHTTP(w, r.WithContext(ctx))
			},
		)
	}
}

// RequireAdmin only passes role=admin. 401 without an identity, 403 with an
// insufficient one: the distinction matters because only 401 triggers the
// client's silent refresh.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromCtx(r.Context())
			if !ok {
				utils.ErrResponse(w, http.StatusUnauthorized, hdl.ErrUnauthorized)
				return
			}

			if claims.Role != md.RoleAdmin {
				utils.ErrResponse(w, http.StatusForbidden, hdl.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		},
	)
}

// RequireOwner passes admins and owners.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromCtx(r.Context())
			if !ok {
				utils.ErrResponse(w, http.StatusUnauthorized, hdl.ErrUnauthorized)
				return
			}

			if claims.Role != md.RoleAdmin && claims.Role != md.RoleOwner {
				utils.ErrResponse(w, http.StatusForbidden, hdl.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		},
	)
}

// RequireSameCompany passes admins, otherwise the requester's company must
// match the companyId path parameter.
func RequireSameCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromCtx(r.Context())
			if !ok {
				utils.ErrResponse(w, http.StatusUnauthorized, hdl.ErrUnauthorized)
				return
			}

			if claims.Role == md.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			companyID, err := strconv.ParseInt(chi.URLParam(r, "companyId"), 10, 64)
			if err != nil {
				utils.ErrResponse(w, http.StatusBadRequest, hdl.ErrToRetrievePathArg)
				return
			}

			if claims.CompanyID == nil || *claims.CompanyID != companyID {
				utils.ErrResponse(w, http.StatusForbidden, hdl.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		},
	)
}

// RequireCompanyAccess passes admins, owners affiliated with any company,
// and otherwise falls back to the same-company check.
func RequireCompanyAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromCtx(r.Context())
			if !ok {
				utils.ErrResponse(w, http.StatusUnauthorized, hdl.ErrUnauthorized)
				return
			}

			if claims.Role == md.RoleAdmin ||
				(claims.Role == md.RoleOwner && claims.CompanyID != nil) {
				next.ServeHTTP(w, r)
				return
			}

			companyID, err := strconv.ParseInt(chi.URLParam(r, "companyId"), 10, 64)
			if err != nil {
				utils.ErrResponse(w, http.StatusBadRequest, hdl.ErrToRetrievePathArg)
				return
			}

			if claims.CompanyID == nil || *claims.CompanyID != companyID {
				utils.ErrResponse(w, http.StatusForbidden, hdl.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		},
	)
}

type LoggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func NewLoggingResponseWriter(w http.ResponseWriter) *LoggingResponseWriter {
	return &LoggingResponseWriter{w, http.StatusOK}
}

func (lrw *LoggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			s := time.Now()
			op := fmt.Sprintf("%s %s", r.Method, r.URL.Path)

			lrw := NewLoggingResponseWriter(w)
			next.ServeHTTP(lrw, r)
			metrics.ObserveRequest(time.Since(s), lrw.statusCode, op)
		},
	)
}

func Logger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				start := time.Now()
				lrw := NewLoggingResponseWriter(w)
				logger.Debug(
					"-->",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote", r.RemoteAddr),
				)

				next.ServeHTTP(lrw, r)

				logger.Info(
					"<--",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", lrw.statusCode),
					zap.Duration("duration", time.Since(start)),
					zap.String("remote", r.RemoteAddr),
				)
			},
		)
	}
}

func OT(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			span, ctx := opentracing.StartSpanFromContext(
				r.Context(), fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			)
			defer span.Finish()

			next.ServeHTTP(w, r.WithContext(ctx))
		},
	)
}
