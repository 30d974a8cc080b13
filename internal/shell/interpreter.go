package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrExit is returned by Eval when the user asks to leave the shell.
var ErrExit = errors.New("exit")

const defaultRowLimit = 20

const helpText = `commands:
  help                         show this help
  names                        list the bound names
  <name>                       describe a binding
  db.ping                      check the database connection
  db.tables                    list the tables
  db.create_all                create the tables of every bound model
  db.drop_all                  drop the tables of every bound model
  <Model>.count                count rows
  <Model>.all [limit]          list rows (default 20)
  <Model>.get <id>             show one row by primary key
  <Model>.where <column> <v>   list rows where column equals v
  exit, quit                   leave the shell`

// Interpreter evaluates shell lines against a Namespace.
type Interpreter struct {
	ns  Namespace
	log *zap.Logger
}

// NewInterpreter creates an Interpreter over ns.
func NewInterpreter(ns Namespace, log *zap.Logger) *Interpreter {
	return &Interpreter{ns: ns, log: log}
}

// Namespace returns the names the interpreter evaluates against.
func (in *Interpreter) Namespace() Namespace {
	return in.ns
}

// Eval evaluates one line and returns its printable result. Errors describe a
// bad command or a failed query; only ErrExit ends the session.
func (in *Interpreter) Eval(ctx context.Context, line string) (string, error) {
	args, err := shellquote.Split(strings.TrimSpace(line))
	if err != nil {
		return "", fmt.Errorf("parse: %w", err)
	}
	if len(args) == 0 {
		return "", nil
	}

	switch args[0] {
	case "exit", "quit":
		return "", ErrExit
	case "help":
		return helpText, nil
	case "names":
		return in.names(), nil
	}

	target, method, hasMethod := strings.Cut(args[0], ".")
	v, ok := in.ns[target]
	if !ok {
		return "", fmt.Errorf("name %q is not defined", target)
	}
	if !hasMethod {
		if len(args) > 1 {
			return "", fmt.Errorf("%s takes no arguments", target)
		}
		return Describe(v), nil
	}

	in.log.Debug("shell eval", zap.String("target", target), zap.String("method", method), zap.Strings("args", args[1:]))

	if db, ok := v.(*gorm.DB); ok {
		if db == nil {
			return "", fmt.Errorf("%s is closed", target)
		}
		return in.evalDB(ctx, db, method, args[1:])
	}
	if t, ok := in.ns.Model(target); ok {
		return in.evalModel(ctx, target, t, method, args[1:])
	}
	return "", fmt.Errorf("%s has no method %q", target, method)
}

func (in *Interpreter) names() string {
	var b strings.Builder
	for i, name := range in.ns.Names() {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-8s %s", name, Describe(in.ns[name]))
	}
	return b.String()
}

func (in *Interpreter) evalDB(ctx context.Context, db *gorm.DB, method string, args []string) (string, error) {
	if len(args) > 0 {
		return "", fmt.Errorf("db.%s takes no arguments", method)
	}

	switch method {
	case "ping":
		sqlDB, err := db.DB()
		if err != nil {
			return "", fmt.Errorf("ping: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return "", fmt.Errorf("ping: %w", err)
		}
		return "ok", nil
	case "tables":
		tables, err := db.WithContext(ctx).Migrator().GetTables()
		if err != nil {
			return "", fmt.Errorf("tables: %w", err)
		}
		return strings.Join(tables, "\n"), nil
	case "create_all":
		if err := db.WithContext(ctx).AutoMigrate(in.modelValues()...); err != nil {
			return "", fmt.Errorf("create_all: %w", err)
		}
		in.log.Info("tables created from shell", zap.Strings("models", in.ns.Models()))
		return "created " + strings.Join(in.ns.Models(), ", "), nil
	case "drop_all":
		if err := db.WithContext(ctx).Migrator().DropTable(in.modelValues()...); err != nil {
			return "", fmt.Errorf("drop_all: %w", err)
		}
		in.log.Warn("tables dropped from shell", zap.Strings("models", in.ns.Models()))
		return "dropped " + strings.Join(in.ns.Models(), ", "), nil
	default:
		return "", fmt.Errorf("db has no method %q", method)
	}
}

func (in *Interpreter) modelValues() []any {
	names := in.ns.Models()
	values := make([]any, 0, len(names))
	for _, name := range names {
		t, _ := in.ns.Model(name)
		values = append(values, reflect.New(t).Interface())
	}
	return values
}

func (in *Interpreter) evalModel(ctx context.Context, name string, t reflect.Type, method string, args []string) (string, error) {
	db, err := in.ns.DB()
	if err != nil {
		return "", err
	}
	db = db.WithContext(ctx)
	model := reflect.New(t).Interface()

	switch method {
	case "count":
		if len(args) != 0 {
			return "", fmt.Errorf("usage: %s.count", name)
		}
		var n int64
		if err := db.Model(model).Count(&n).Error; err != nil {
			return "", fmt.Errorf("%s.count: %w", name, err)
		}
		return strconv.FormatInt(n, 10), nil

	case "all":
		limit := defaultRowLimit
		switch len(args) {
		case 0:
		case 1:
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return "", fmt.Errorf("usage: %s.all [limit]", name)
			}
			limit = n
		default:
			return "", fmt.Errorf("usage: %s.all [limit]", name)
		}
		rows := reflect.New(reflect.SliceOf(t))
		if err := db.Model(model).Order(clause.OrderByColumn{Column: clause.PrimaryColumn}).Limit(limit).Find(rows.Interface()).Error; err != nil {
			return "", fmt.Errorf("%s.all: %w", name, err)
		}
		return render(rows.Elem().Interface())

	case "get":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: %s.get <id>", name)
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return "", fmt.Errorf("usage: %s.get <id>", name)
		}
		if err := db.First(model, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", fmt.Errorf("%s %d not found", name, id)
			}
			return "", fmt.Errorf("%s.get: %w", name, err)
		}
		return render(model)

	case "where":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: %s.where <column> <value>", name)
		}
		column, value, err := condition(db, model, args[0], args[1])
		if err != nil {
			return "", err
		}
		rows := reflect.New(reflect.SliceOf(t))
		if err := db.Model(model).Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
			Limit(defaultRowLimit).Find(rows.Interface()).Error; err != nil {
			return "", fmt.Errorf("%s.where: %w", name, err)
		}
		return render(rows.Elem().Interface())

	default:
		return "", fmt.Errorf("%s has no method %q", name, method)
	}
}

// condition resolves a field or column name of model and converts raw to the
// column's Go type, so only real columns reach the query.
func condition(db *gorm.DB, model any, name, raw string) (string, any, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return "", nil, fmt.Errorf("parse model: %w", err)
	}
	field := stmt.Schema.LookUpField(name)
	if field == nil || field.DBName == "" {
		return "", nil, fmt.Errorf("%s has no column %q", stmt.Schema.Name, name)
	}

	var (
		value any = raw
		err   error
	)
	switch field.FieldType.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		value, err = strconv.ParseInt(raw, 10, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		value, err = strconv.ParseUint(raw, 10, 64)
	case reflect.Bool:
		value, err = strconv.ParseBool(raw)
	case reflect.Float32, reflect.Float64:
		value, err = strconv.ParseFloat(raw, 64)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %q is not a valid %s", field.DBName, raw, field.FieldType.Kind())
	}
	return field.DBName, value, nil
}

func render(v any) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return string(out), nil
}
