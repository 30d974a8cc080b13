package user

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "portunus/internal/domain/user"
	apperrors "portunus/pkg/errors"
	"portunus/pkg/security"
)

// MockRepository is a mock implementation of the Repository interface.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, u *domain.User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, query string, page, limit int64) ([]domain.User, int64, error) {
	args := m.Called(ctx, query, page, limit)
	return args.Get(0).([]domain.User), args.Get(1).(int64), args.Error(2)
}

func setupTestUsecase(t *testing.T) (*usecase, *MockRepository) {
	mockRepo := new(MockRepository)
	uc := New(mockRepo, zaptest.NewLogger(t))
	return uc, mockRepo
}

// ==================== CREATE USER TESTS ====================

func TestCreateUser_Success(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	req := CreateUserRequest{
		Username: "john",
		Email:    "john@example.com",
		Password: "s3cret-pass",
	}

	mockRepo.On("GetByUsername", ctx, req.Username).Return(nil, nil)
	mockRepo.On("GetByEmail", ctx, req.Email).Return(nil, nil)
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Username == req.Username &&
			u.Email == req.Email &&
			u.PasswordHash != req.Password &&
			security.CheckPassword(u.PasswordHash, req.Password) == nil
	})).Return(int64(1), nil)

	resp, err := uc.CreateUser(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)
	mockRepo.AssertExpectations(t)
}

func TestCreateUser_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateUserRequest
		wantMsg []string
	}{
		{
			name:    "username required",
			req:     CreateUserRequest{Email: "john@example.com", Password: "s3cret-pass"},
			wantMsg: []string{"Username is required"},
		},
		{
			name:    "username too short",
			req:     CreateUserRequest{Username: "jo", Email: "john@example.com", Password: "s3cret-pass"},
			wantMsg: []string{"Username must be at least 3 characters"},
		},
		{
			name:    "username charset",
			req:     CreateUserRequest{Username: "john doe", Email: "john@example.com", Password: "s3cret-pass"},
			wantMsg: []string{"Username may only contain"},
		},
		{
			name:    "email invalid",
			req:     CreateUserRequest{Username: "john", Email: "invalid-email", Password: "s3cret-pass"},
			wantMsg: []string{"Email must be a valid email"},
		},
		{
			name:    "password too short",
			req:     CreateUserRequest{Username: "john", Email: "john@example.com", Password: "short"},
			wantMsg: []string{"Password must be at least 8 characters"},
		},
		{
			name:    "password over 72 bytes",
			req:     CreateUserRequest{Username: "john", Email: "john@example.com", Password: strings.Repeat("é", 40)},
			wantMsg: []string{"Password must be at most 72 bytes"},
		},
		{
			name:    "multiple errors",
			req:     CreateUserRequest{Username: "jo", Email: "invalid"},
			wantMsg: []string{"Username must be at least 3 characters", "Email must be a valid email", "Password is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, mockRepo := setupTestUsecase(t)

			resp, err := uc.CreateUser(context.Background(), tt.req)

			assert.Nil(t, resp)
			var validation *apperrors.ValidationError
			require.ErrorAs(t, err, &validation)
			for _, msg := range tt.wantMsg {
				assert.Contains(t, err.Error(), msg)
			}
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateUser_UsernameAlreadyExists(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	req := CreateUserRequest{Username: "john", Email: "john@example.com", Password: "s3cret-pass"}
	mockRepo.On("GetByUsername", ctx, req.Username).Return(&domain.User{ID: 2, Username: "john"}, nil)

	resp, err := uc.CreateUser(ctx, req)

	assert.Nil(t, resp)
	var exists *apperrors.AlreadyExistsError
	require.ErrorAs(t, err, &exists)
	assert.Contains(t, err.Error(), "username already exists")
	mockRepo.AssertExpectations(t)
}

func TestCreateUser_EmailAlreadyExists(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	req := CreateUserRequest{Username: "john", Email: "john@example.com", Password: "s3cret-pass"}
	mockRepo.On("GetByUsername", ctx, req.Username).Return(nil, nil)
	mockRepo.On("GetByEmail", ctx, req.Email).Return(&domain.User{ID: 2, Email: req.Email}, nil)

	resp, err := uc.CreateUser(ctx, req)

	assert.Nil(t, resp)
	var exists *apperrors.AlreadyExistsError
	require.ErrorAs(t, err, &exists)
	assert.Contains(t, err.Error(), "email already exists")
}

func TestCreateUser_RepositoryError(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	req := CreateUserRequest{Username: "john", Email: "john@example.com", Password: "s3cret-pass"}
	mockRepo.On("GetByUsername", ctx, req.Username).Return(nil, nil)
	mockRepo.On("GetByEmail", ctx, req.Email).Return(nil, nil)
	mockRepo.On("Create", ctx, mock.Anything).Return(int64(0), errors.New("database connection failed"))

	resp, err := uc.CreateUser(ctx, req)

	assert.Nil(t, resp)
	assert.EqualError(t, err, "database connection failed")
}

// ==================== UPDATE USER TESTS ====================

func TestUpdateUser_Success(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	current := &domain.User{ID: 1, Username: "john", Email: "john@example.com", PasswordHash: "old-hash"}
	admin := true
	req := UpdateUserRequest{ID: 1, Email: "johnny@example.com", IsAdmin: &admin}

	mockRepo.On("GetByID", ctx, int64(1)).Return(current, nil)
	mockRepo.On("GetByEmail", ctx, req.Email).Return(nil, nil)
	mockRepo.On("Update", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.ID == 1 &&
			u.Username == "john" &&
			u.Email == "johnny@example.com" &&
			u.PasswordHash == "old-hash" &&
			u.IsAdmin
	})).Return(int64(1), nil)

	resp, err := uc.UpdateUser(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)
	mockRepo.AssertExpectations(t)
}

func TestUpdateUser_PasswordRehashed(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1, Username: "john", PasswordHash: "old-hash"}, nil)
	mockRepo.On("Update", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return security.CheckPassword(u.PasswordHash, "brand-new-pass") == nil
	})).Return(int64(1), nil)

	_, err := uc.UpdateUser(ctx, UpdateUserRequest{ID: 1, Password: "brand-new-pass"})

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUpdateUser_SameEmailSameUser(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	current := &domain.User{ID: 1, Username: "john", Email: "john@example.com"}
	mockRepo.On("GetByID", ctx, int64(1)).Return(current, nil)
	mockRepo.On("GetByEmail", ctx, "john@example.com").Return(current, nil)
	mockRepo.On("Update", ctx, mock.Anything).Return(int64(1), nil)

	_, err := uc.UpdateUser(ctx, UpdateUserRequest{ID: 1, Email: "john@example.com"})

	assert.NoError(t, err)
}

func TestUpdateUser_UsernameTaken(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1, Username: "john"}, nil)
	mockRepo.On("GetByUsername", ctx, "jane").Return(&domain.User{ID: 2, Username: "jane"}, nil)

	resp, err := uc.UpdateUser(ctx, UpdateUserRequest{ID: 1, Username: "jane"})

	assert.Nil(t, resp)
	var exists *apperrors.AlreadyExistsError
	assert.ErrorAs(t, err, &exists)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateUser_NotFound(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(9)).Return(nil, apperrors.NewNotFoundError("user", "user not found: id=9"))

	resp, err := uc.UpdateUser(ctx, UpdateUserRequest{ID: 9, Username: "ghost"})

	assert.Nil(t, resp)
	var notFound *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestUpdateUser_ValidationError(t *testing.T) {
	uc, _ := setupTestUsecase(t)

	resp, err := uc.UpdateUser(context.Background(), UpdateUserRequest{ID: 0})

	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "ID is required")
}

func TestUpdateUser_MultibytePasswordTooLong(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)

	resp, err := uc.UpdateUser(context.Background(), UpdateUserRequest{ID: 1, Password: strings.Repeat("é", 40)})

	assert.Nil(t, resp)
	var validation *apperrors.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

// ==================== DELETE USER TESTS ====================

func TestDeleteUser_Success(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("Delete", ctx, int64(1)).Return(int64(1), nil)

	resp, err := uc.DeleteUser(ctx, DeleteUserRequest{ID: 1})

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)
	mockRepo.AssertExpectations(t)
}

func TestDeleteUser_InvalidID(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)

	resp, err := uc.DeleteUser(context.Background(), DeleteUserRequest{ID: -1})

	assert.Nil(t, resp)
	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// ==================== GET USER TESTS ====================

func TestGetUser_Success(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1, Username: "john", Email: "john@example.com", PasswordHash: "hash"}, nil)

	resp, err := uc.GetUser(ctx, GetUserRequest{ID: 1})

	require.NoError(t, err)
	assert.Equal(t, User{ID: 1, Username: "john", Email: "john@example.com"}, resp.User)
}

func TestGetUser_InvalidID(t *testing.T) {
	uc, _ := setupTestUsecase(t)

	resp, err := uc.GetUser(context.Background(), GetUserRequest{ID: 0})

	assert.Nil(t, resp)
	assert.Error(t, err)
}

// ==================== LIST USERS TESTS ====================

func TestListUsers_Pagination(t *testing.T) {
	tests := []struct {
		name           string
		req            ListUsersRequest
		wantPage       int64
		wantLimit      int64
		total          int64
		wantTotalPages int64
	}{
		{"defaults", ListUsersRequest{}, 1, 10, 25, 3},
		{"explicit", ListUsersRequest{Page: 2, Limit: 5}, 2, 5, 11, 3},
		{"limit capped", ListUsersRequest{Page: 1, Limit: 1000}, 1, 100, 250, 3},
		{"empty", ListUsersRequest{Page: 1, Limit: 10}, 1, 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, mockRepo := setupTestUsecase(t)
			ctx := context.Background()

			mockRepo.On("List", ctx, tt.req.Query, tt.wantPage, tt.wantLimit).
				Return([]domain.User{{ID: 1, Username: "john"}}, tt.total, nil)

			resp, err := uc.ListUsers(ctx, tt.req)

			require.NoError(t, err)
			require.Len(t, resp.Users, 1)
			assert.Equal(t, tt.total, resp.Pagination.Total)
			assert.Equal(t, tt.wantPage, resp.Pagination.Page)
			assert.Equal(t, tt.wantLimit, resp.Pagination.Limit)
			assert.Equal(t, tt.wantTotalPages, resp.Pagination.TotalPages)
		})
	}
}

func TestListUsers_InvalidQuery(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	queryErr := apperrors.NewValidationError("query", "invalid search query: search query contains invalid characters")
	mockRepo.On("List", ctx, "'; drop", int64(1), int64(10)).Return([]domain.User(nil), int64(0), queryErr)

	resp, err := uc.ListUsers(ctx, ListUsersRequest{Query: "'; drop"})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, queryErr)
}

// ==================== AUTHENTICATE TESTS ====================

func TestAuthenticate(t *testing.T) {
	hash, err := security.HashPassword("correct-horse")
	require.NoError(t, err)
	stored := &domain.User{ID: 7, Username: "john", Email: "john@example.com", PasswordHash: hash, IsAdmin: true}

	t.Run("by username", func(t *testing.T) {
		uc, mockRepo := setupTestUsecase(t)
		ctx := context.Background()
		mockRepo.On("GetByUsername", ctx, "john").Return(stored, nil)

		resp, err := uc.Authenticate(ctx, AuthenticateRequest{Identifier: "john", Password: "correct-horse"})

		require.NoError(t, err)
		assert.Equal(t, int64(7), resp.User.ID)
		assert.True(t, resp.User.IsAdmin)
	})

	t.Run("by email", func(t *testing.T) {
		uc, mockRepo := setupTestUsecase(t)
		ctx := context.Background()
		mockRepo.On("GetByEmail", ctx, "john@example.com").Return(stored, nil)

		resp, err := uc.Authenticate(ctx, AuthenticateRequest{Identifier: "john@example.com", Password: "correct-horse"})

		require.NoError(t, err)
		assert.Equal(t, int64(7), resp.User.ID)
	})

	t.Run("failures share one message", func(t *testing.T) {
		uc, mockRepo := setupTestUsecase(t)
		ctx := context.Background()
		mockRepo.On("GetByUsername", ctx, "john").Return(stored, nil)
		mockRepo.On("GetByUsername", ctx, "nobody").Return(nil, nil)

		_, wrongPassword := uc.Authenticate(ctx, AuthenticateRequest{Identifier: "john", Password: "wrong-horse"})
		_, unknownUser := uc.Authenticate(ctx, AuthenticateRequest{Identifier: "nobody", Password: "correct-horse"})
		_, missingFields := uc.Authenticate(ctx, AuthenticateRequest{})

		for _, err := range []error{wrongPassword, unknownUser, missingFields} {
			var unauthorized *apperrors.UnauthorizedError
			require.ErrorAs(t, err, &unauthorized)
			assert.Equal(t, "invalid credentials", err.Error())
		}
	})
}
