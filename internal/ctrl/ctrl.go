package ctrl

import (
	"context"
	"io"
	"time"

	"github.com/quotegrid/quotegrid/internal/auth"
)

type AppRepo interface {
	authRepo
	userRepo
	Close(ctx context.Context) error
}

type AppCtrl interface {
	authCtrl
	userCtrl
}

type CacheService interface {
	io.Closer
	GetToStruct(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, t time.Duration, key string, val any)
	Delete(ctx context.Context, key string)
	InvalidateKeysByPattern(ctx context.Context, pattern string)
}

type EmailService interface {
	SendPasswordChanged(toEmail string) error
}

type Controller struct {
	au    auth.Core
	repo  AppRepo
	cache CacheService
	email EmailService
}

func New(au auth.Core, repo AppRepo, cache CacheService, email EmailService) *Controller {
	return &Controller{
		au:    au,
		repo:  repo,
		cache: cache,
		email: email,
	}
}
