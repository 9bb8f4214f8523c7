package http

import (
	"errors"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/quotegrid/quotegrid/internal/auth"
	"github.com/quotegrid/quotegrid/internal/config"
	"github.com/quotegrid/quotegrid/internal/dto"
	"github.com/quotegrid/quotegrid/internal/hdl"
	mid "github.com/quotegrid/quotegrid/internal/hdl/http/middleware"
	"github.com/quotegrid/quotegrid/internal/hdl/http/utils"
)

func (h *Handler) RegisterAuthRoutes() {
	h.Router.Route(
		"/api/auth", func(r chi.Router) {
			r.Post("/login", h.login)
			r.Post("/refresh", h.refresh)
			r.Post("/logout", h.logout)
			r.With(mid.Auth(h.au)).Get("/status", h.status)
		},
	)
}

// login godoc
//
//	@Summary		Authenticate with username or email and password
//	@Description	Issues an access token and sets the refresh-token cookie
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.LoginRequest	true	"Login credentials"
//	@Success		200		{object}	dto.SessionResponse
//	@Failure		400		{object}	utils.ErrorResponse
//	@Failure		401		{object}	utils.ErrorResponse
//	@Failure		500		{object}	utils.ErrorResponse
//	@Router			/api/auth/login [post]
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	req := &dto.LoginRequest{}
	if ok := utils.ParseAndValidate(w, r, req); !ok {
		return
	}

	res, err := h.ctrl.Login(r.Context(), req, r.RemoteAddr)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			utils.ErrResponse(w, http.StatusUnauthorized, auth.ErrInvalidCredentials)
			return
		}

		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	utils.SetRefreshCookie(w, res.RefreshToken, h.mode)
	utils.SuccessResponse(w, http.StatusOK, res)
}

// refresh godoc
//
//	@Summary		Rotate the refresh token and mint a new access token
//	@Description	Reads the refresh token from the cookie, falling back to the body
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.RefreshRequest	false	"Fallback refresh token"
//	@Success		200		{object}	dto.SessionResponse
//	@Failure		401		{object}	utils.ErrorResponse
//	@Failure		500		{object}	utils.ErrorResponse
//	@Router			/api/auth/refresh [post]
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	token := h.refreshTokenFromRequest(r)
	if token == "" {
		utils.ErrResponse(w, http.StatusUnauthorized, hdl.ErrMissingToken)
		return
	}

	res, err := h.ctrl.Refresh(r.Context(), token, r.RemoteAddr)
	if err != nil {
		if errors.Is(err, auth.ErrTokenRevoked) {
			utils.ErrResponse(w, http.StatusUnauthorized, auth.ErrTokenRevoked)
			return
		}

		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	utils.SetRefreshCookie(w, res.RefreshToken, h.mode)
	utils.SuccessResponse(w, http.StatusOK, res)
}

// logout godoc
//
//	@Summary		Revoke the refresh token and clear the cookie
//	@Description	Always succeeds from the client's point of view
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.LogoutRequest	false	"Fallback refresh token"
//	@Success		200		{object}	dto.LogoutResponse
//	@Router			/api/auth/logout [post]
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	// Logging out without a token is still a successful no-op.
	_ = h.ctrl.Logout(r.Context(), h.refreshTokenFromRequest(r), r.RemoteAddr)

	utils.ClearRefreshCookie(w, h.mode)
	utils.SuccessResponse(w, http.StatusOK, &dto.LogoutResponse{Success: true})
}

// status godoc
//
//	@Summary		Confirm the access token is valid
//	@Description	Pass-through over the auth middleware; no store lookup
//	@Tags			Authentication
//	@Produce		json
//	@Param			Authorization	header		string	true	"Bearer access token"
//	@Success		200				{object}	dto.StatusResponse
//	@Failure		401				{object}	utils.ErrorResponse
//	@Router			/api/auth/status [get]
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	claims, ok := mid.ClaimsFromCtx(r.Context())
	if !ok {
		utils.ErrResponse(w, http.StatusUnauthorized, hdl.ErrUnauthorized)
		return
	}

	utils.SuccessResponse(
		w, http.StatusOK, &dto.StatusResponse{
			Authenticated: true,
			User: &dto.UserResponse{
				ID:        claims.ID,
				Username:  claims.Username,
				Email:     claims.Email,
				Role:      claims.Role,
				CompanyID: claims.CompanyID,
				IsActive:  true,
			},
		},
	)
}

// refreshTokenFromRequest prefers the httpOnly cookie and falls back to the
// JSON body for clients where the cookie channel is blocked.
func (h *Handler) refreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(config.RefreshCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	req := &dto.RefreshRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err == nil {
		return req.RefreshToken
	}

	return ""
}
