// Command portunus serves the route registry and provides its administrative
// commands.
//
//	portunus [serve]                  run the HTTP and gRPC servers
//	portunus shell                    open the administrative shell
//	portunus db create|drop|reset     manage the schema
//	portunus createadmin -username u -email e -password p
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"portunus/cmd/portunus/app"
	"portunus/cmd/portunus/server"
	"portunus/internal/models"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("application exited with error: %v", err)
	}
}

func run(args []string) error {
	a, err := app.New()
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() { _ = a.Close() }()

	a.ShellContextProcessor(makeShellContext(a))

	ctx, stop := server.WithSignal(context.Background())
	defer stop()

	return dispatch(ctx, a, args, os.Stdin, os.Stdout)
}

// makeShellContext binds the database handle and the models into the shell.
func makeShellContext(a *app.App) app.ShellContextFunc {
	return func() map[string]any {
		return map[string]any{
			"db":    a.DB(),
			"User":  models.UserType,
			"Route": models.RouteType,
		}
	}
}

func dispatch(ctx context.Context, a *app.App, args []string, in io.Reader, out io.Writer) error {
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		return a.Run(ctx)
	case "shell":
		return a.Shell(ctx, in, out)
	case "db":
		return dbCommand(ctx, a, args, out)
	case "createadmin":
		return createAdmin(ctx, a, args, out)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func dbCommand(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: portunus db create|drop|reset")
	}

	switch args[0] {
	case "create":
		if err := a.CreateAll(ctx); err != nil {
			return err
		}
	case "drop":
		if err := a.DropAll(ctx); err != nil {
			return err
		}
	case "reset":
		if err := a.DropAll(ctx); err != nil {
			return err
		}
		if err := a.CreateAll(ctx); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown db command %q", args[0])
	}

	_, err := fmt.Fprintf(out, "db %s: ok\n", args[0])
	return err
}

func createAdmin(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	fs.SetOutput(out)
	username := fs.String("username", "admin", "administrator username")
	email := fs.String("email", "", "administrator email")
	password := fs.String("password", os.Getenv("PORTUNUS_ADMIN_PASSWORD"), "administrator password (default $PORTUNUS_ADMIN_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := a.CreateAdmin(ctx, *username, *email, *password)
	if err != nil {
		return fmt.Errorf("failed to create administrator: %w", err)
	}

	_, err = fmt.Fprintf(out, "created administrator %q with id %d\n", *username, id)
	return err
}
