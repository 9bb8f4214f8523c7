// Package mem is the fallback store used when no database is configured. It
// implements the same repository contract as the Postgres store over
// in-process maps, so the rest of the application never branches on the
// backing implementation.
package mem

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/quotegrid/quotegrid/internal/dto"
	md "github.com/quotegrid/quotegrid/internal/models"
	"github.com/quotegrid/quotegrid/internal/repo"
	"go.uber.org/zap"
)

type Repository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*md.User
	tokens map[string]*md.RefreshToken
}

func New() *Repository {
	return &Repository{
		nextID: 1,
		users:  make(map[int64]*md.User),
		tokens: make(map[string]*md.RefreshToken),
	}
}

func (r *Repository) Close(ctx context.Context) error {
	return nil
}

func (r *Repository) CreateToken(ctx context.Context, t *md.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[t.Token]; ok {
		return repo.ErrAlreadyExists
	}

	cp := *t
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	r.tokens[cp.Token] = &cp

	return nil
}

func (r *Repository) GetUsableToken(ctx context.Context, token string) (*md.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[token]
	if !ok || !t.Usable(time.Now()) {
		return nil, repo.ErrNotFound
	}

	cp := *t
	return &cp, nil
}

// RotateToken retires the old token and stores its replacement under one lock
// acquisition, so concurrent calls with the same token admit exactly one
// winner.
func (r *Repository) RotateToken(
	ctx context.Context,
	oldToken string,
	next *md.RefreshToken,
) (*md.RefreshToken, error) {
	const op = "auth.RotateToken.repo"

	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.tokens[oldToken]
	if !ok || !old.Usable(time.Now()) {
		if ok && old.ReplacedByToken != "" {
			zap.L().Warn(
				"refresh token reuse detected",
				zap.String("op", op),
			)
		}
		return nil, repo.ErrNotFound
	}

	old.IsActive = false
	old.ReplacedByToken = next.Token

	cp := *next
	cp.UserID = old.UserID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	r.tokens[cp.Token] = &cp

	out := cp
	return &out, nil
}

func (r *Repository) RevokeToken(ctx context.Context, token, ip string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[token]
	if !ok || t.IsRevoked {
		return nil
	}

	now := time.Now()
	t.IsRevoked = true
	t.IsActive = false
	t.RevokedAt = &now
	t.RevokedByIP = ip

	return nil
}

func (r *Repository) RevokeAllTokens(ctx context.Context, userID int64, ip string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, t := range r.tokens {
		if t.UserID != userID || t.IsRevoked || !t.IsActive {
			continue
		}
		t.IsRevoked = true
		t.IsActive = false
		t.RevokedAt = &now
		t.RevokedByIP = ip
	}

	return nil
}

func (r *Repository) SweepExpiredTokens(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var swept int64
	now := time.Now()
	for _, t := range r.tokens {
		if !t.IsExpired && !t.Expires.After(now) {
			t.IsExpired = true
			swept++
		}
	}

	return swept, nil
}

func (r *Repository) GetUserByLogin(ctx context.Context, login string) (*md.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == login || u.Email == login {
			cp := *u
			return &cp, nil
		}
	}

	// Lowest id wins when the fold-insensitive match is ambiguous.
	var match *md.User
	for _, u := range r.users {
		if strings.EqualFold(u.Username, login) || strings.EqualFold(u.Email, login) {
			if match == nil || u.ID < match.ID {
				match = u
			}
		}
	}
	if match != nil {
		cp := *match
		return &cp, nil
	}

	return nil, repo.ErrNotFound
}

func (r *Repository) GetUserByID(ctx context.Context, userID int64) (*md.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}

	cp := *u
	return &cp, nil
}

func (r *Repository) CreateUser(ctx context.Context, u *md.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return 0, repo.ErrAlreadyExists
		}
	}

	cp := *u
	cp.ID = r.nextID
	r.nextID++
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.users[cp.ID] = &cp

	return cp.ID, nil
}

func (r *Repository) ListCompanyUsers(
	ctx context.Context,
	companyID int64,
	page, size int,
	filters map[string]any,
) (*dto.PaginatedUserResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]*md.User, 0)
	for _, u := range r.users {
		if u.CompanyID == nil || *u.CompanyID != companyID {
			continue
		}
		if isActive, ok := filters["is_active"].(bool); ok && u.IsActive != isActive {
			continue
		}
		if role, ok := filters["role"].(string); ok && string(u.Role) != role {
			continue
		}
		matched = append(matched, u)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	count := int64(len(matched))
	start := (page - 1) * size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}

	data := make([]*dto.UserResponse, 0, end-start)
	for _, u := range matched[start:end] {
		data = append(data, dto.NewUserResponse(u))
	}

	totalPages := int((count + int64(size) - 1) / int64(size))
	return &dto.PaginatedUserResponse{
		Data:        data,
		Count:       count,
		TotalPages:  totalPages,
		CurrentPage: page,
		HasNextPage: page < totalPages,
	}, nil
}

func (r *Repository) UpdatePassword(ctx context.Context, userID int64, hashed string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return repo.ErrNotFound
	}

	u.Password.String = hashed
	u.Password.Valid = true
	u.UpdatedAt = time.Now()

	return nil
}

func (r *Repository) SetUserActive(ctx context.Context, userID int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return repo.ErrNotFound
	}

	u.IsActive = active
	u.UpdatedAt = time.Now()

	return nil
}

func (r *Repository) UpdateLastLogin(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return repo.ErrNotFound
	}

	now := time.Now()
	u.LastLogin = &now

	return nil
}
