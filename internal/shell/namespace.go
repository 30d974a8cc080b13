// Package shell implements the interactive administrative shell. Names are
// supplied by shell context processors and merged into a Namespace; lines are
// evaluated against it by an Interpreter and presented through a bubbletea UI.
package shell

import (
	"fmt"
	"reflect"
	"sort"

	"gorm.io/gorm"
)

// Namespace is the set of names visible in the shell.
type Namespace map[string]any

// Merge combines mappings in order. Later mappings win on key collisions.
func Merge(maps ...map[string]any) Namespace {
	ns := make(Namespace)
	for _, m := range maps {
		for k, v := range m {
			ns[k] = v
		}
	}
	return ns
}

// Names returns the bound names, sorted.
func (ns Namespace) Names() []string {
	names := make([]string, 0, len(ns))
	for k := range ns {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// DB returns the database handle: the binding named "db", or else the only
// *gorm.DB binding in the namespace.
func (ns Namespace) DB() (*gorm.DB, error) {
	if v, ok := ns["db"]; ok {
		db, ok := v.(*gorm.DB)
		if ok && db != nil {
			return db, nil
		}
		if ok {
			return nil, fmt.Errorf("db is closed")
		}
		return nil, fmt.Errorf("db is bound to %T, not a database handle", v)
	}

	var found *gorm.DB
	for _, name := range ns.Names() {
		if db, ok := ns[name].(*gorm.DB); ok && db != nil {
			if found != nil {
				return nil, fmt.Errorf("more than one database handle is bound; name one \"db\"")
			}
			found = db
		}
	}
	if found == nil {
		return nil, fmt.Errorf("no database handle is bound")
	}
	return found, nil
}

// Model returns the struct type bound to name.
func (ns Namespace) Model(name string) (reflect.Type, bool) {
	t, ok := ns[name].(reflect.Type)
	if !ok || t == nil {
		return nil, false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t, t.Kind() == reflect.Struct
}

// Models returns the names bound to model types, sorted.
func (ns Namespace) Models() []string {
	var names []string
	for _, name := range ns.Names() {
		if _, ok := ns.Model(name); ok {
			names = append(names, name)
		}
	}
	return names
}

// Describe renders a one-line summary of a binding.
func Describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case *gorm.DB:
		if x == nil || x.Dialector == nil {
			return "<database closed>"
		}
		return fmt.Sprintf("<database %s>", x.Dialector.Name())
	case reflect.Type:
		return fmt.Sprintf("<model %s>", x.String())
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%T(%v)", v, v)
	}
}
