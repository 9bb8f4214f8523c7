package http

import (
	"errors"
	"net/http"
	"strconv"

	chi "github.com/go-chi/chi/v5"
	"github.com/quotegrid/quotegrid/internal/auth"
	"github.com/quotegrid/quotegrid/internal/ctrl"
	"github.com/quotegrid/quotegrid/internal/dto"
	"github.com/quotegrid/quotegrid/internal/hdl"
	mid "github.com/quotegrid/quotegrid/internal/hdl/http/middleware"
	"github.com/quotegrid/quotegrid/internal/hdl/http/utils"
	"go.uber.org/zap"
)

func (h *Handler) RegisterUserRoutes() {
	h.Router.Route(
		"/api", func(r chi.Router) {
			r.With(mid.Auth(h.au)).Get("/users/me", h.getMe)
			r.With(mid.Auth(h.au)).Put("/users/me/password", h.changePassword)
			r.With(mid.Auth(h.au), mid.RequireAdmin).Post("/users", h.createUser)
			r.With(mid.Auth(h.au), mid.RequireOwner).Put(
				"/users/{id}/deactivate", h.deactivateUser,
			)
			r.With(mid.Auth(h.au), mid.RequireCompanyAccess).Get(
				"/companies/{companyId}/users", h.listCompanyUsers,
			)
		},
	)
}

// getMe godoc
//
//	@Summary		Retrieve current user profile
//	@Description	Returns the authenticated user's profile
//	@Tags			User
//	@Produce		json
//	@Success		200	{object}	dto.UserResponse
//	@Failure		401	{object}	utils.ErrorResponse	"unauthorized"
//	@Failure		404	{object}	utils.ErrorResponse	"user not found"
//	@Failure		500	{object}	utils.ErrorResponse	"internal error"
//	@Router			/api/users/me [get]
func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := mid.ClaimsFromCtx(r.Context())
	if !ok {
		utils.ErrResponse(w, http.StatusUnauthorized, hdl.ErrUnauthorized)
		return
	}

	res, err := h.ctrl.GetUserByID(r.Context(), claims.ID)
	if err != nil {
		if errors.Is(err, ctrl.ErrNotFound) {
			utils.ErrResponse(w, http.StatusNotFound, err)
			return
		}
		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, dto.NewUserResponse(res))
}

// changePassword godoc
//
//	@Summary		Change the current user's password
//	@Description	Verifies the current password, then revokes every session
//	@Tags			User
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.ChangePasswordRequest	true	"Password change payload"
//	@Success		200		{object}	dto.LogoutResponse
//	@Failure		400		{object}	utils.ErrorResponse
//	@Failure		401		{object}	utils.ErrorResponse
//	@Failure		500		{object}	utils.ErrorResponse
//	@Router			/api/users/me/password [put]
func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := mid.ClaimsFromCtx(r.Context())
	if !ok {
		utils.ErrResponse(w, http.StatusUnauthorized, hdl.ErrUnauthorized)
		return
	}

	req := &dto.ChangePasswordRequest{}
	if ok := utils.ParseAndValidate(w, r, req); !ok {
		return
	}

	err := h.ctrl.ChangePassword(r.Context(), claims.ID, req, r.RemoteAddr)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			utils.ErrResponse(w, http.StatusUnauthorized, auth.ErrInvalidCredentials)
			return
		}
		if errors.Is(err, ctrl.ErrNotFound) {
			utils.ErrResponse(w, http.StatusNotFound, err)
			return
		}
		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	utils.ClearRefreshCookie(w, h.mode)
	utils.SuccessResponse(w, http.StatusOK, &dto.LogoutResponse{Success: true})
}

// createUser godoc
//
//	@Summary		Provision a new user
//	@Description	Admin-only user creation
//	@Tags			User
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.CreateUserRequest	true	"User payload"
//	@Success		201		{object}	dto.CreateUserResponse
//	@Failure		400		{object}	utils.ErrorResponse
//	@Failure		401		{object}	utils.ErrorResponse
//	@Failure		403		{object}	utils.ErrorResponse
//	@Failure		409		{object}	utils.ErrorResponse
//	@Failure		500		{object}	utils.ErrorResponse
//	@Router			/api/users [post]
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	req := &dto.CreateUserRequest{}
	if ok := utils.ParseAndValidate(w, r, req); !ok {
		return
	}

	res, err := h.ctrl.CreateUser(r.Context(), req)
	if err != nil {
		if errors.Is(err, ctrl.ErrAlreadyExists) {
			utils.ErrResponse(w, http.StatusConflict, err)
			return
		}
		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	utils.SuccessResponse(w, http.StatusCreated, res)
}

// deactivateUser godoc
//
//	@Summary		Deactivate a user
//	@Description	Soft-deactivation; revokes all of the user's sessions
//	@Tags			User
//	@Produce		json
//	@Param			id	path		int	true	"User ID"
//	@Success		200	{object}	dto.LogoutResponse
//	@Failure		400	{object}	utils.ErrorResponse
//	@Failure		401	{object}	utils.ErrorResponse
//	@Failure		403	{object}	utils.ErrorResponse
//	@Failure		404	{object}	utils.ErrorResponse
//	@Failure		500	{object}	utils.ErrorResponse
//	@Router			/api/users/{id}/deactivate [put]
func (h *Handler) deactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		zap.L().Debug(
			hdl.ErrToRetrievePathArg.Error(),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		utils.ErrResponse(w, http.StatusBadRequest, hdl.ErrToRetrievePathArg)
		return
	}

	if err = h.ctrl.DeactivateUser(r.Context(), id, r.RemoteAddr); err != nil {
		if errors.Is(err, ctrl.ErrNotFound) {
			utils.ErrResponse(w, http.StatusNotFound, err)
			return
		}
		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, &dto.LogoutResponse{Success: true})
}

// listCompanyUsers godoc
//
//	@Summary		List users of a company
//	@Description	Paginated, filterable by role and active flag
//	@Tags			User
//	@Produce		json
//	@Param			companyId	path		int		true	"Company ID"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			size		query		int		false	"Page size"		default(40)
//	@Param			role		query		string	false	"Role filter"
//	@Param			is_active	query		bool	false	"Active filter"
//	@Success		200			{object}	dto.PaginatedUserResponse
//	@Failure		401			{object}	utils.ErrorResponse
//	@Failure		403			{object}	utils.ErrorResponse
//	@Failure		500			{object}	utils.ErrorResponse
//	@Router			/api/companies/{companyId}/users [get]
func (h *Handler) listCompanyUsers(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(chi.URLParam(r, "companyId"), 10, 64)
	if err != nil {
		utils.ErrResponse(w, http.StatusBadRequest, hdl.ErrToRetrievePathArg)
		return
	}

	page, size := utils.ParsePaginationValues(r)
	filters := utils.ParseFiltersByURL(r)

	res, err := h.ctrl.ListCompanyUsers(r.Context(), companyID, page, size, filters)
	if err != nil {
		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, res)
}
