package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"portunus/cmd/portunus/di"
	"portunus/cmd/portunus/infrastructure"
	"portunus/cmd/portunus/server"
	"portunus/internal/config"
	"portunus/internal/shell"
	"portunus/internal/usecase/user"
	"portunus/pkg/logger"
)

// ShellContextFunc supplies names to the administrative shell. It is called
// with no arguments each time a shell starts.
type ShellContextFunc func() map[string]any

// App represents the application
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Server    *server.Server
	Container *di.Container

	mu             sync.Mutex
	shellProcessor []ShellContextFunc
	closeOnce      sync.Once
	closeErr       error
}

// New creates a new application instance from CONFIG_PATH and the environment.
func New() (*App, error) {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := initLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return NewWithConfig(cfg, l)
}

// NewWithConfig creates an application from an already loaded configuration.
func NewWithConfig(cfg *config.Config, l *zap.Logger) (*App, error) {
	// Create DI container
	container, err := di.NewContainer(context.Background(), cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	return &App{
		Config:    cfg,
		Logger:    l,
		Server:    server.New(cfg, l, container),
		Container: container,
	}, nil
}

// DB returns the application's database handle.
func (a *App) DB() *gorm.DB {
	return a.Container.DB
}

// ShellContextProcessor registers fn to contribute names to the shell.
func (a *App) ShellContextProcessor(fn ShellContextFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shellProcessor = append(a.shellProcessor, fn)
}

// MakeShellContext calls every registered processor and merges the results in
// registration order; later processors win on name collisions.
func (a *App) MakeShellContext() shell.Namespace {
	a.mu.Lock()
	processors := append([]ShellContextFunc(nil), a.shellProcessor...)
	a.mu.Unlock()

	maps := make([]map[string]any, 0, len(processors))
	for _, fn := range processors {
		maps = append(maps, fn())
	}
	return shell.Merge(maps...)
}

// Shell runs the interactive administrative shell on in and out.
func (a *App) Shell(ctx context.Context, in io.Reader, out io.Writer) error {
	return shell.Run(ctx, a.MakeShellContext(), shell.Options{
		In:  in,
		Out: out,
		Log: a.Logger.Named("shell"),
	})
}

// CreateAll creates the database schema.
func (a *App) CreateAll(ctx context.Context) error {
	a.Logger.Info("creating tables")
	return infrastructure.CreateAll(ctx, a.DB())
}

// DropAll drops the database schema.
func (a *App) DropAll(ctx context.Context) error {
	a.Logger.Warn("dropping tables")
	return infrastructure.DropAll(ctx, a.DB())
}

// CreateAdmin creates an administrator account and returns its ID.
func (a *App) CreateAdmin(ctx context.Context, username, email, password string) (int64, error) {
	resp, err := a.Container.UserUC.CreateUser(ctx, user.CreateUserRequest{
		Username: username,
		Email:    email,
		Password: password,
		IsAdmin:  true,
	})
	if err != nil {
		return 0, err
	}
	a.Logger.Info("administrator created", zap.Int64("id", resp.ID), zap.String("username", username))
	return resp.ID, nil
}

// Run starts the application and blocks until ctx is canceled or a server fails.
func (a *App) Run(ctx context.Context) (err error) {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			a.Logger.Error("panic recovered in application",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			err = fmt.Errorf("application panic: %v", r)
		}
	}()

	a.Logger.Info("starting application",
		zap.String("service", a.Config.Logger.ServiceName),
		zap.String("version", a.Config.Logger.ServiceVersion),
		zap.String("environment", a.Config.App.Env),
	)

	if err := a.Server.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	a.Logger.Info("application shutdown complete")
	return nil
}

// Close releases the container resources and flushes the logger. It is safe to call more than once.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		var errs []error

		if a.Container != nil {
			if err := a.Container.Close(); err != nil {
				a.Logger.Error("failed to close container", zap.Error(err))
				errs = append(errs, fmt.Errorf("container close: %w", err))
			}
		}

		if err := logger.Sync(a.Logger); err != nil {
			errs = append(errs, fmt.Errorf("logger sync: %w", err))
		}

		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}

// loadConfig loads application configuration
func loadConfig() (*config.Config, error) {
	return config.LoadConfig(getConfigPath())
}

// initLogger initializes the application logger
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	loggerCfg := logger.Config{
		Level:            cfg.Logger.Level,
		Format:           cfg.Logger.Format,
		OutputPath:       cfg.Logger.OutputPath,
		SlowQuerySeconds: cfg.Logger.SlowQuerySeconds,
		EnableSampling:   cfg.Logger.EnableSampling,
		ServiceName:      cfg.Logger.ServiceName,
		ServiceVersion:   cfg.Logger.ServiceVersion,
		Environment:      cfg.App.Env,
	}

	return logger.NewWithConfig(loggerCfg)
}

// getConfigPath returns the configuration path
func getConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "."
}
