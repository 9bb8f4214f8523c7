package ctrl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/quotegrid/quotegrid/internal/auth"
	"github.com/quotegrid/quotegrid/internal/dto"
	md "github.com/quotegrid/quotegrid/internal/models"
	"github.com/quotegrid/quotegrid/internal/repo"
	"github.com/quotegrid/quotegrid/tests/mocks"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

var errCacheMiss = errors.New("cache miss")

func TestController_GetUserByID(t *testing.T) {
	ctrlMock := gomock.NewController(t)
	defer ctrlMock.Finish()

	mockAuth := mocks.NewMockCore(ctrlMock)
	mockRepo := mocks.NewMockAppRepo(ctrlMock)
	mockCache := mocks.NewMockCacheService(ctrlMock)
	mockEmail := mocks.NewMockEmailService(ctrlMock)

	ctx := context.Background()
	ctrl := New(mockAuth, mockRepo, mockCache, mockEmail)

	testUser := &md.User{
		ID:       42,
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Role:     md.RoleMember,
		IsActive: true,
	}

	t.Run(
		"CacheMissHitsStore", func(t *testing.T) {
			mockCache.EXPECT().
				GetToStruct(gomock.Any(), fmt.Sprintf(userCacheKey, testUser.ID), gomock.Any()).
				Return(errCacheMiss)
			mockRepo.EXPECT().
				GetUserByID(gomock.Any(), testUser.ID).
				Return(testUser, nil)
			mockCache.EXPECT().
				Set(gomock.Any(), gomock.Any(), fmt.Sprintf(userCacheKey, testUser.ID), gomock.Any())

			res, err := ctrl.GetUserByID(ctx, testUser.ID)
			assert.NoError(t, err)
			assert.Equal(t, testUser, res)
		},
	)

	t.Run(
		"CacheHitSkipsStore", func(t *testing.T) {
			mockCache.EXPECT().
				GetToStruct(gomock.Any(), fmt.Sprintf(userCacheKey, testUser.ID), gomock.Any()).
				Return(nil)

			_, err := ctrl.GetUserByID(ctx, testUser.ID)
			assert.NoError(t, err)
		},
	)

	t.Run(
		"NotFound", func(t *testing.T) {
			mockCache.EXPECT().
				GetToStruct(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(errCacheMiss)
			mockRepo.EXPECT().
				GetUserByID(gomock.Any(), int64(999)).
				Return(nil, repo.ErrNotFound)

			_, err := ctrl.GetUserByID(ctx, 999)
			assert.ErrorIs(t, err, ErrNotFound)
		},
	)
}

func TestController_CreateUser(t *testing.T) {
	ctrlMock := gomock.NewController(t)
	defer ctrlMock.Finish()

	mockAuth := mocks.NewMockCore(ctrlMock)
	mockRepo := mocks.NewMockAppRepo(ctrlMock)
	mockCache := mocks.NewMockCacheService(ctrlMock)
	mockEmail := mocks.NewMockEmailService(ctrlMock)

	ctx := context.Background()
	ctrl := New(mockAuth, mockRepo, mockCache, mockEmail)

	companyID := int64(7)
	testReq := &dto.CreateUserRequest{
		Username:  "newuser",
		Email:     "new@example.com",
		Password:  "validpassword123!",
		Role:      md.RoleMember,
		CompanyID: &companyID,
	}

	tests := []struct {
		name    string
		setup   func()
		wantErr bool
		err     error
	}{
		{
			name: "Success",
			setup: func() {
				mockAuth.EXPECT().
					Hash(testReq.Password).
					Return("hashedvalue", nil)
				mockRepo.EXPECT().
					CreateUser(gomock.Any(), gomock.Any()).
					DoAndReturn(
						func(_ context.Context, u *md.User) (int64, error) {
							assert.Equal(t, testReq.Username, u.Username)
							assert.Equal(t, "hashedvalue", u.Password.String)
							assert.True(t, u.IsActive)
							return 101, nil
						},
					)
				mockCache.EXPECT().
					InvalidateKeysByPattern(gomock.Any(), companyUsersPtrn)
			},
		},
		{
			name: "AlreadyExists",
			setup: func() {
				mockAuth.EXPECT().
					Hash(testReq.Password).
					Return("hashedvalue", nil)
				mockRepo.EXPECT().
					CreateUser(gomock.Any(), gomock.Any()).
					Return(int64(0), repo.ErrAlreadyExists)
			},
			wantErr: true,
			err:     ErrAlreadyExists,
		},
		{
			name: "HashError",
			setup: func() {
				mockAuth.EXPECT().
					Hash(testReq.Password).
					Return("", errors.New("kdf failure"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				tt.setup()

				res, err := ctrl.CreateUser(ctx, testReq)
				if tt.wantErr {
					assert.Error(t, err)
					if tt.err != nil {
						assert.ErrorIs(t, err, tt.err)
					}
					return
				}

				assert.NoError(t, err)
				assert.Equal(t, int64(101), res.ID)
			},
		)
	}
}

func TestController_ChangePassword(t *testing.T) {
	ctrlMock := gomock.NewController(t)
	defer ctrlMock.Finish()

	mockAuth := mocks.NewMockCore(ctrlMock)
	mockRepo := mocks.NewMockAppRepo(ctrlMock)
	mockCache := mocks.NewMockCacheService(ctrlMock)
	mockEmail := mocks.NewMockEmailService(ctrlMock)

	ctx := context.Background()
	ctrl := New(mockAuth, mockRepo, mockCache, mockEmail)

	testIP := "10.0.0.1"
	testUser := &md.User{
		ID:       42,
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Password: sql.NullString{String: "oldhash", Valid: true},
		Role:     md.RoleMember,
		IsActive: true,
	}
	testReq := &dto.ChangePasswordRequest{
		CurrentPassword: "oldpassword",
		NewPassword:     "newpassword123!",
	}

	tests := []struct {
		name    string
		setup   func()
		wantErr bool
		err     error
	}{
		{
			name: "Success",
			setup: func() {
				mockRepo.EXPECT().
					GetUserByID(gomock.Any(), testUser.ID).
					Return(testUser, nil)
				mockAuth.EXPECT().
					Verify(testReq.CurrentPassword, "oldhash").
					Return(true)
				mockAuth.EXPECT().
					Hash(testReq.NewPassword).
					Return("newhash", nil)
				mockRepo.EXPECT().
					UpdatePassword(gomock.Any(), testUser.ID, "newhash").
					Return(nil)
				mockRepo.EXPECT().
					RevokeAllTokens(gomock.Any(), testUser.ID, testIP).
					Return(nil)
				mockCache.EXPECT().
					Delete(gomock.Any(), fmt.Sprintf(userCacheKey, testUser.ID))
				mockEmail.EXPECT().
					SendPasswordChanged(testUser.Email).
					Return(nil)
			},
		},
		{
			name: "WrongCurrentPassword",
			setup: func() {
				mockRepo.EXPECT().
					GetUserByID(gomock.Any(), testUser.ID).
					Return(testUser, nil)
				mockAuth.EXPECT().
					Verify(testReq.CurrentPassword, "oldhash").
					Return(false)
			},
			wantErr: true,
			err:     auth.ErrInvalidCredentials,
		},
		{
			name: "RevokeAndEmailFailuresAreNonFatal",
			setup: func() {
				mockRepo.EXPECT().
					GetUserByID(gomock.Any(), testUser.ID).
					Return(testUser, nil)
				mockAuth.EXPECT().
					Verify(testReq.CurrentPassword, "oldhash").
					Return(true)
				mockAuth.EXPECT().
					Hash(testReq.NewPassword).
					Return("newhash", nil)
				mockRepo.EXPECT().
					UpdatePassword(gomock.Any(), testUser.ID, "newhash").
					Return(nil)
				mockRepo.EXPECT().
					RevokeAllTokens(gomock.Any(), testUser.ID, testIP).
					Return(errors.New("db down"))
				mockCache.EXPECT().
					Delete(gomock.Any(), fmt.Sprintf(userCacheKey, testUser.ID))
				mockEmail.EXPECT().
					SendPasswordChanged(testUser.Email).
					Return(errors.New("smtp down"))
			},
		},
		{
			name: "UserNotFound",
			setup: func() {
				mockRepo.EXPECT().
					GetUserByID(gomock.Any(), testUser.ID).
					Return(nil, repo.ErrNotFound)
			},
			wantErr: true,
			err:     ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				tt.setup()

				err := ctrl.ChangePassword(ctx, testUser.ID, testReq, testIP)
				if tt.wantErr {
					assert.Error(t, err)
					if tt.err != nil {
						assert.ErrorIs(t, err, tt.err)
					}
					return
				}

				assert.NoError(t, err)
			},
		)
	}
}

func TestController_DeactivateUser(t *testing.T) {
	ctrlMock := gomock.NewController(t)
	defer ctrlMock.Finish()

	mockAuth := mocks.NewMockCore(ctrlMock)
	mockRepo := mocks.NewMockAppRepo(ctrlMock)
	mockCache := mocks.NewMockCacheService(ctrlMock)
	mockEmail := mocks.NewMockEmailService(ctrlMock)

	ctx := context.Background()
	ctrl := New(mockAuth, mockRepo, mockCache, mockEmail)

	testIP := "10.0.0.1"
	testUserID := int64(42)

	t.Run(
		"Success", func(t *testing.T) {
			mockRepo.EXPECT().
				SetUserActive(gomock.Any(), testUserID, false).
				Return(nil)
			mockRepo.EXPECT().
				RevokeAllTokens(gomock.Any(), testUserID, testIP).
				Return(nil)
			mockCache.EXPECT().
				Delete(gomock.Any(), fmt.Sprintf(userCacheKey, testUserID))
			mockCache.EXPECT().
				InvalidateKeysByPattern(gomock.Any(), companyUsersPtrn)

			assert.NoError(t, ctrl.DeactivateUser(ctx, testUserID, testIP))
		},
	)

	t.Run(
		"NotFound", func(t *testing.T) {
			mockRepo.EXPECT().
				SetUserActive(gomock.Any(), testUserID, false).
				Return(repo.ErrNotFound)

			assert.ErrorIs(t, ctrl.DeactivateUser(ctx, testUserID, testIP), ErrNotFound)
		},
	)
}

func TestController_ListCompanyUsers(t *testing.T) {
	ctrlMock := gomock.NewController(t)
	defer ctrlMock.Finish()

	mockAuth := mocks.NewMockCore(ctrlMock)
	mockRepo := mocks.NewMockAppRepo(ctrlMock)
	mockCache := mocks.NewMockCacheService(ctrlMock)
	mockEmail := mocks.NewMockEmailService(ctrlMock)

	ctx := context.Background()
	ctrl := New(mockAuth, mockRepo, mockCache, mockEmail)

	companyID := int64(7)
	expected := &dto.PaginatedUserResponse{
		Data:        []*dto.UserResponse{{ID: 1, Username: "jdoe"}},
		Count:       1,
		TotalPages:  1,
		CurrentPage: 1,
	}

	t.Run(
		"CacheMissHitsStore", func(t *testing.T) {
			mockCache.EXPECT().
				GetToStruct(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(errCacheMiss)
			mockRepo.EXPECT().
				ListCompanyUsers(gomock.Any(), companyID, 1, 40, gomock.Any()).
				Return(expected, nil)
			mockCache.EXPECT().
				Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())

			res, err := ctrl.ListCompanyUsers(ctx, companyID, 1, 40, map[string]any{})
			assert.NoError(t, err)
			assert.Equal(t, expected, res)
		},
	)

	t.Run(
		"StoreError", func(t *testing.T) {
			mockCache.EXPECT().
				GetToStruct(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(errCacheMiss)
			mockRepo.EXPECT().
				ListCompanyUsers(gomock.Any(), companyID, 1, 40, gomock.Any()).
				Return(nil, errors.New("db down"))

			_, err := ctrl.ListCompanyUsers(ctx, companyID, 1, 40, map[string]any{})
			assert.Error(t, err)
		},
	)
}
