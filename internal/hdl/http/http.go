package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "github.com/quotegrid/quotegrid/api/rest/v1"
	"github.com/quotegrid/quotegrid/internal/auth"
	"github.com/quotegrid/quotegrid/internal/ctrl"
	mid "github.com/quotegrid/quotegrid/internal/hdl/http/middleware"
	"github.com/quotegrid/quotegrid/internal/hdl/http/utils"
	"go.uber.org/zap"
)

type Handler struct {
	Router *chi.Mux
	au     auth.Core
	mode   string
	srv    *http.Server
	ctrl   ctrl.AppCtrl
}

func New(au auth.Core, ctrl ctrl.AppCtrl, mode string) *Handler {
	h := &Handler{
		Router: chi.NewRouter(),
		au:     au,
		mode:   mode,
		ctrl:   ctrl,
	}

	h.Router.Use(
		mid.Logger(zap.L()),
		middleware.StripSlashes,
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		mid.Prometheus,
		mid.OT,
	)

	h.RegisterAuthRoutes()
	h.RegisterUserRoutes()

	h.Router.Get("/swagger/*", httpSwagger.WrapHandler)
	h.Router.Get(
		"/health", func(w http.ResponseWriter, r *http.Request) {
			utils.SuccessResponse(w, http.StatusOK, map[string]string{"status": "OK"})
		},
	)

	return h
}

func (h *Handler) Start(port int) {
	h.srv = &http.Server{
		Handler:      h.Router,
		Addr:         fmt.Sprintf(":%v", port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info(
		"Starting HTTP server",
		zap.String("addr", h.srv.Addr),
	)

	err := h.srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		zap.L().Error("Server error", zap.Error(err))
	}
}

func (h *Handler) Close(ctx context.Context) error {
	return h.srv.Shutdown(ctx)
}
