package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"portunus/internal/domain/pagination"
	domain "portunus/internal/domain/user"
	apperrors "portunus/pkg/errors"
	"portunus/pkg/security"
)

// errInvalidCredentials is returned for every failed login, whatever the cause.
var errInvalidCredentials = apperrors.NewUnauthorizedError("invalid credentials")

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Repository defines the interface for user data access operations.
// It abstracts the data layer, allowing different implementations
// (e.g., PostgreSQL, SQLite, a cache-aside wrapper) to be used interchangeably.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (int64, error)                               // Create a new user
	GetByID(ctx context.Context, id int64) (*domain.User, error)                             // Retrieve user by ID
	GetByEmail(ctx context.Context, email string) (*domain.User, error)                      // Retrieve user by email
	GetByUsername(ctx context.Context, username string) (*domain.User, error)                // Retrieve user by username
	Update(ctx context.Context, u *domain.User) (int64, error)                               // Update existing user
	Delete(ctx context.Context, id int64) (int64, error)                                     // Delete user and their routes
	List(ctx context.Context, query string, page, limit int64) ([]domain.User, int64, error) // List users with total count
}

var _ Usecase = (*usecase)(nil)

// usecase implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type usecase struct {
	repo     Repository          // Repository for data access
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request validation
}

// New creates the user use case with the provided repository and logger.
func New(r Repository, log *zap.Logger) *usecase {
	v := validator.New()
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	// bcrypt bounds passwords in bytes, not characters
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= security.MaxPasswordLength
	})
	return &usecase{repo: r, log: log, validate: v}
}

// formatValidationError converts validator.ValidationErrors into a human-readable error message.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email", e.Field()))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param()))
		case "password":
			messages = append(messages, fmt.Sprintf("%s must be at most %d bytes", e.Field(), security.MaxPasswordLength))
		case "username":
			messages = append(messages, fmt.Sprintf("%s may only contain letters, digits, '.', '_' and '-'", e.Field()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return apperrors.NewValidationError("", strings.Join(messages, ", "))
}

// CreateUser creates a new user after validating the request and checking uniqueness.
func (uc *usecase) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	uc.log.Info("creating user", zap.String("username", in.Username), zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	if err := uc.ensureUnique(ctx, 0, in.Username, in.Email); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		uc.log.Error("failed to hash password", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to create user", err)
	}

	id, err := uc.repo.Create(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		IsAdmin:      in.IsAdmin,
	})
	if err != nil {
		uc.log.Error("failed to create user", zap.Error(err))
		return nil, err
	}
	return &CreateUserResponse{ID: id}, nil
}

// UpdateUser applies the non-empty fields of the request to an existing user.
func (uc *usecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error) {
	uc.log.Info("updating user", zap.Int64("id", in.ID), zap.String("username", in.Username), zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	current, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		uc.log.Warn("failed to load user for update", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	if err := uc.ensureUnique(ctx, in.ID, in.Username, in.Email); err != nil {
		return nil, err
	}

	updated := *current
	if in.Username != "" {
		updated.Username = in.Username
	}
	if in.Email != "" {
		updated.Email = in.Email
	}
	if in.IsAdmin != nil {
		updated.IsAdmin = *in.IsAdmin
	}
	if in.Password != "" {
		hash, err := security.HashPassword(in.Password)
		if err != nil {
			uc.log.Error("failed to hash password", zap.Error(err))
			return nil, apperrors.NewInternalError("failed to update user", err)
		}
		updated.PasswordHash = hash
	}

	id, err := uc.repo.Update(ctx, &updated)
	if err != nil {
		uc.log.Error("failed to update user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	return &UpdateUserResponse{ID: id}, nil
}

// DeleteUser deletes a user, and every route they own, after validating the user ID.
func (uc *usecase) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	uc.log.Info("deleting user", zap.Int64("id", in.ID))

	if in.ID <= 0 {
		uc.log.Warn("delete user validation failed", zap.Int64("id", in.ID), zap.String("reason", "invalid id"))
		return nil, apperrors.NewValidationError("id", "invalid user id")
	}

	id, err := uc.repo.Delete(ctx, in.ID)
	if err != nil {
		uc.log.Error("failed to delete user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	return &DeleteUserResponse{ID: id}, nil
}

// GetUser retrieves a user by ID after validating the request.
func (uc *usecase) GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error) {
	if in.ID <= 0 {
		uc.log.Warn("get user validation failed", zap.Int64("id", in.ID), zap.String("reason", "invalid id"))
		return nil, apperrors.NewValidationError("id", "invalid user id")
	}

	u, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		uc.log.Warn("failed to get user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	return &GetUserResponse{User: toDTO(u)}, nil
}

// ListUsers retrieves a paginated list of users with optional search functionality.
func (uc *usecase) ListUsers(ctx context.Context, in ListUsersRequest) (*ListUsersResponse, error) {
	in.Page, in.Limit = pagination.Normalize(in.Page, in.Limit)

	uc.log.Info("listing users", zap.String("query", in.Query), zap.Int64("page", in.Page), zap.Int64("limit", in.Limit))

	domainUsers, total, err := uc.repo.List(ctx, in.Query, in.Page, in.Limit)
	if err != nil {
		uc.log.Warn("failed to list users", zap.String("query", in.Query), zap.Int64("page", in.Page), zap.Int64("limit", in.Limit), zap.Error(err))
		return nil, err
	}

	users := make([]User, len(domainUsers))
	for i := range domainUsers {
		users[i] = toDTO(&domainUsers[i])
	}

	return &ListUsersResponse{
		Users:      users,
		Pagination: pagination.New(total, in.Page, in.Limit),
	}, nil
}

// Authenticate checks a username or email against its stored password hash.
func (uc *usecase) Authenticate(ctx context.Context, in AuthenticateRequest) (*AuthenticateResponse, error) {
	if err := uc.validate.Struct(in); err != nil {
		return nil, errInvalidCredentials
	}

	var (
		u   *domain.User
		err error
	)
	if strings.Contains(in.Identifier, "@") {
		u, err = uc.repo.GetByEmail(ctx, in.Identifier)
	} else {
		u, err = uc.repo.GetByUsername(ctx, in.Identifier)
	}
	if err != nil {
		uc.log.Error("failed to look up user for login", zap.Error(err))
		return nil, err
	}
	if u == nil {
		uc.log.Info("login rejected", zap.String("reason", "unknown user"))
		return nil, errInvalidCredentials
	}

	if err := security.CheckPassword(u.PasswordHash, in.Password); err != nil {
		uc.log.Info("login rejected", zap.Int64("id", u.ID), zap.String("reason", "bad password"))
		return nil, errInvalidCredentials
	}

	return &AuthenticateResponse{User: toDTO(u)}, nil
}

// ensureUnique rejects a username or email already held by a user other than self.
func (uc *usecase) ensureUnique(ctx context.Context, self int64, username, email string) error {
	if username != "" {
		existing, err := uc.repo.GetByUsername(ctx, username)
		if err != nil {
			uc.log.Error("failed to check existing username", zap.String("username", username), zap.Error(err))
			return apperrors.NewInternalError("failed to validate username uniqueness", err)
		}
		if existing != nil && existing.ID != self {
			uc.log.Warn("username already exists", zap.String("username", username))
			return apperrors.NewAlreadyExistsError("user", "username already exists")
		}
	}

	if email != "" {
		existing, err := uc.repo.GetByEmail(ctx, email)
		if err != nil {
			uc.log.Error("failed to check existing email", zap.String("email", email), zap.Error(err))
			return apperrors.NewInternalError("failed to validate email uniqueness", err)
		}
		if existing != nil && existing.ID != self {
			uc.log.Warn("email already exists", zap.String("email", email))
			return apperrors.NewAlreadyExistsError("user", "email already exists")
		}
	}

	return nil
}

func toDTO(u *domain.User) User {
	return User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}
