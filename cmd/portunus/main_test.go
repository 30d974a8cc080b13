package main

import (
	"bytes"
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"portunus/cmd/portunus/app"
	"portunus/internal/config"
	"portunus/internal/models"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.App.HTTPPort = "18080"
	cfg.App.GRPCPort = "15051"
	cfg.App.ShutdownTimeoutSeconds = 1
	cfg.DB.Driver = config.DriverSQLite
	cfg.DB.Path = filepath.Join(t.TempDir(), "portunus.db")
	cfg.DB.MaxOpenConns = 1
	cfg.DB.AutoMigrate = true
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.JWTTTLMinutes = 5
	cfg.Logger.Level = "error"
	cfg.Logger.ServiceName = "portunus"

	a, err := app.NewWithConfig(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestMakeShellContext(t *testing.T) {
	a := newTestApp(t)
	fn := makeShellContext(a)

	ctx := fn()

	require.Len(t, ctx, 3)
	assert.ElementsMatch(t, []string{"db", "User", "Route"}, keys(ctx))

	db, ok := ctx["db"].(*gorm.DB)
	require.True(t, ok)
	assert.Same(t, a.DB(), db)
	assert.Equal(t, reflect.TypeFor[models.User](), ctx["User"])
	assert.Equal(t, reflect.TypeFor[models.Route](), ctx["Route"])
}

func TestMakeShellContext_NoSideEffects(t *testing.T) {
	a := newTestApp(t)
	fn := makeShellContext(a)

	tablesBefore, err := a.DB().Migrator().GetTables()
	require.NoError(t, err)
	var usersBefore int64
	require.NoError(t, a.DB().Model(&models.User{}).Count(&usersBefore).Error)

	first := fn()
	second := fn()
	assert.Equal(t, first, second)

	tablesAfter, err := a.DB().Migrator().GetTables()
	require.NoError(t, err)
	assert.ElementsMatch(t, tablesBefore, tablesAfter)
	var usersAfter int64
	require.NoError(t, a.DB().Model(&models.User{}).Count(&usersAfter).Error)
	assert.Equal(t, usersBefore, usersAfter)
	assert.Same(t, a.DB(), first["db"])
}

func TestMakeShellContext_RegisteredOnApp(t *testing.T) {
	a := newTestApp(t)
	a.ShellContextProcessor(makeShellContext(a))

	ns := a.MakeShellContext()
	assert.Equal(t, []string{"Route", "User", "db"}, ns.Names())
}

func TestDispatch_DB(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, dispatch(ctx, a, []string{"db", "drop"}, nil, &out))
	assert.False(t, a.DB().Migrator().HasTable("users"))

	require.NoError(t, dispatch(ctx, a, []string{"db", "create"}, nil, &out))
	assert.True(t, a.DB().Migrator().HasTable("users"))

	require.NoError(t, dispatch(ctx, a, []string{"db", "reset"}, nil, &out))
	assert.True(t, a.DB().Migrator().HasTable("routes"))
	assert.Contains(t, out.String(), "db reset: ok")

	assert.Error(t, dispatch(ctx, a, []string{"db"}, nil, &out))
	assert.Error(t, dispatch(ctx, a, []string{"db", "truncate"}, nil, &out))
	assert.Error(t, dispatch(ctx, a, []string{"frobnicate"}, nil, &out))
}

func TestDispatch_CreateAdmin(t *testing.T) {
	a := newTestApp(t)
	var out bytes.Buffer

	err := dispatch(context.Background(), a, []string{
		"createadmin", "-username", "root", "-email", "root@example.com", "-password", "s3cret-pass",
	}, nil, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `created administrator "root"`)

	var u models.User
	require.NoError(t, a.DB().Where("username = ?", "root").First(&u).Error)
	assert.True(t, u.IsAdmin)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)

	err = dispatch(context.Background(), a, []string{"createadmin", "-email", "x@example.com"}, nil, &out)
	assert.Error(t, err)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
