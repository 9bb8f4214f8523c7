package utils

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/quotegrid/quotegrid/internal/config"
	"github.com/quotegrid/quotegrid/internal/hdl"
	"github.com/quotegrid/quotegrid/internal/hdl/validation"
)

// ErrorResponse is the error envelope for every failure mode: auth failures
// carry only the generic message, validation failures add per-field detail.
type ErrorResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func SuccessResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func ErrResponse(w http.ResponseWriter, statusCode int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(
		&ErrorResponse{
			Success: false,
			Message: err.Error(),
		},
	)
}

func ValidationErrResponse(w http.ResponseWriter, errs []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(
		&ErrorResponse{
			Success: false,
			Message: hdl.ErrDecodeRequest.Error(),
			Errors:  errs,
		},
	)
}

// ParseAndValidate decodes the JSON body into dst and validates it, writing
// the 400 response itself on failure.
func ParseAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		ErrResponse(w, http.StatusBadRequest, hdl.ErrDecodeRequest)
		return false
	}

	if errs := validation.ValidateStruct(dst); errs != nil {
		ValidationErrResponse(w, errs)
		return false
	}

	return true
}

func ParsePaginationValues(r *http.Request) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = config.DefaultPage
	}

	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size < 1 {
		size = config.DefaultSize
	}

	return page, size
}

func ParseFiltersByURL(r *http.Request) map[string]any {
	filters := make(map[string]any)

	if v := r.URL.Query().Get("is_active"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filters["is_active"] = b
		}
	}

	if v := r.URL.Query().Get("role"); v != "" {
		filters["role"] = v
	}

	return filters
}

// SetRefreshCookie hands the refresh token to the browser as an httpOnly,
// strict-same-site cookie scoped to the whole site. Secure is tied to prod
// mode so local http development keeps working.
func SetRefreshCookie(w http.ResponseWriter, token string, mode string) {
	http.SetCookie(
		w, &http.Cookie{
			Name:     config.RefreshCookieName,
			Value:    token,
			MaxAge:   int(config.RefreshTokenDuration.Seconds()),
			HttpOnly: true,
			Secure:   mode == "prod",
			Path:     "/",
			SameSite: http.SameSiteStrictMode,
		},
	)
}

func ClearRefreshCookie(w http.ResponseWriter, mode string) {
	http.SetCookie(
		w, &http.Cookie{
			Name:     config.RefreshCookieName,
			Value:    "",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   mode == "prod",
			Path:     "/",
			SameSite: http.SameSiteStrictMode,
		},
	)
}
