package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/foundryerp/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ErrUnavailable is returned when a template names a data source that
// has no live connection in the registry.
var ErrUnavailable = errors.New("data source unavailable")

// Registry holds the named report data sources. Report queries run
// against one of these connections; the metadata database itself serves
// as the default source when none is configured.
type Registry struct {
	conns       map[string]*gorm.DB
	defaultName string
}

func NewRegistry(cfgs []config.SourceConfig, metaDB *gorm.DB) (*Registry, error) {
	r := &Registry{conns: make(map[string]*gorm.DB)}

	for _, sc := range cfgs {
		var dialector gorm.Dialector
		switch sc.Driver {
		case "postgres":
			dialector = postgres.Open(sc.DSN)
		case "sqlite", "":
			dialector = sqlite.Open(sc.DSN)
		default:
			return nil, fmt.Errorf("unknown source driver %q for source %q", sc.Driver, sc.Name)
		}

		conn, err := gorm.Open(dialector, &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to open source %q: %w", sc.Name, err)
		}
		r.conns[sc.Name] = conn

		if sc.Default || r.defaultName == "" {
			r.defaultName = sc.Name
		}
	}

	if r.defaultName == "" {
		r.conns["default"] = metaDB
		r.defaultName = "default"
	}

	return r, nil
}

// Get resolves a source by name. An empty name falls back to the
// default source.
func (r *Registry) Get(name string) (*gorm.DB, error) {
	if name == "" {
		name = r.defaultName
	}
	conn, ok := r.conns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, name)
	}
	return conn, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.conns))
	for name := range r.conns {
		names = append(names, name)
	}
	return names
}

// Query runs a read query verbatim and buffers the full result set.
// Column order is preserved from the statement so downstream rendering
// stays deterministic.
func Query(ctx context.Context, db *gorm.DB, query string) ([]string, []map[string]interface{}, error) {
	rows, err := db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var results []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return columns, results, nil
}
