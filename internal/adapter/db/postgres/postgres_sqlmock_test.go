package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"portunus/internal/domain/route"
	apperrors "portunus/pkg/errors"
)

// setupMockPG returns a GORM handle speaking the PostgreSQL dialect to sqlmock.
func setupMockPG(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err)

	return db, mock
}

func TestUserRepoPG_List_PostgresSQL(t *testing.T) {
	db, mock := setupMockPG(t)
	repo := NewUserRepoPG(db, zaptest.NewLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "users" WHERE (LOWER(username) LIKE $1 ESCAPE '\' OR LOWER(email) LIKE $2 ESCAPE '\')`)).
		WithArgs(`%a\_b%`, `%a\_b%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE (LOWER(username) LIKE $1 ESCAPE '\' OR LOWER(email) LIKE $2 ESCAPE '\') ORDER BY id LIMIT $3 OFFSET $4`)).
		WithArgs(`%a\_b%`, `%a\_b%`, 5, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "is_admin"}).
			AddRow(3, "a_b", "a_b@example.com", "hash", false))

	users, total, err := repo.List(context.Background(), "A_B", 2, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "a_b", users[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouteRepoPG_Create_UniqueViolation(t *testing.T) {
	db, mock := setupMockPG(t)
	repo := NewRouteRepoPG(db, zaptest.NewLogger(t))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "routes"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), &route.Route{
		Name:     "api",
		Hostname: "api.example.com",
		IP:       "10.0.0.1",
		Port:     80,
		Protocol: route.ProtocolHTTP,
		OwnerID:  1,
	})

	var exists *apperrors.AlreadyExistsError
	assert.ErrorAs(t, err, &exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouteRepoPG_Create_MissingOwner(t *testing.T) {
	db, mock := setupMockPG(t)
	repo := NewRouteRepoPG(db, zaptest.NewLogger(t))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "routes"`)).
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "insert or update on table \"routes\" violates foreign key constraint"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), &route.Route{
		Name:     "api",
		Hostname: "api.example.com",
		IP:       "10.0.0.1",
		Port:     80,
		Protocol: route.ProtocolHTTP,
		OwnerID:  42,
	})

	var notFound *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
