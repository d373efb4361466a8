package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // CGO-free sqlite driver
)

func init() {
	Register("sqlite", func() Adapter { return &sqliteAdapter{} })
}

type sqliteAdapter struct {
	db *sql.DB
}

func (a *sqliteAdapter) Provider() string { return "sqlite" }

// Connect opens the database file. Both plain paths and ADO-style
// "Data Source=./x.db" connection strings are accepted, the latter for
// compatibility with configurations written against the original server.
func (a *sqliteAdapter) Connect(ctx context.Context, connection string) error {
	db, err := sql.Open("sqlite", sqlitePath(connection))
	if err != nil {
		return fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping sqlite database: %w", err)
	}
	a.db = db
	return nil
}

func (a *sqliteAdapter) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *sqliteAdapter) Ping(ctx context.Context) error {
	if a.db == nil {
		return fmt.Errorf("sqlite adapter is not connected")
	}
	return a.db.PingContext(ctx)
}

func (a *sqliteAdapter) Inspect(ctx context.Context) (*Database, error) {
	if a.db == nil {
		return nil, fmt.Errorf("sqlite adapter is not connected")
	}
	return inspectSQLite(ctx, a.db)
}

// sqlitePath extracts the file path from a connection string. The ADO form
// may carry extra ';'-separated options, which sqlite ignores.
func sqlitePath(connection string) string {
	for _, part := range strings.Split(connection, ";") {
		k, v, found := strings.Cut(part, "=")
		if found && strings.EqualFold(strings.TrimSpace(k), "data source") {
			return strings.TrimSpace(v)
		}
	}
	return connection
}

// inspectSQLite reads the schema through sqlite_master and table_info. Split
// out from the adapter so it can be tested against a mock *sql.DB.
func inspectSQLite(ctx context.Context, db *sql.DB) (*Database, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list sqlite tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := &Database{Provider: "sqlite"}
	for _, name := range names {
		table, err := inspectSQLiteTable(ctx, db, name)
		if err != nil {
			return nil, err
		}
		out.Tables = append(out.Tables, *table)
	}
	return out, nil
}

func inspectSQLiteTable(ctx context.Context, db *sql.DB, name string) (*Table, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", name))
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", name, err)
	}
	defer rows.Close()

	table := &Table{Name: name}
	for rows.Next() {
		var (
			cid     int
			colName string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		table.Columns = append(table.Columns, Column{
			Name:     colName,
			Type:     colType,
			Nullable: notNull == 0,
		})
		if pk == 1 && table.PrimaryKey == "" {
			table.PrimaryKey = colName
		}
		if table.GeometryColumn == "" && isGeometryType(colType) {
			table.GeometryColumn = colName
		}
	}
	return table, rows.Err()
}

func isGeometryType(colType string) bool {
	switch strings.ToUpper(strings.TrimSpace(colType)) {
	case "GEOMETRY", "POINT", "LINESTRING", "POLYGON",
		"MULTIPOINT", "MULTILINESTRING", "MULTIPOLYGON", "GEOMETRYCOLLECTION":
		return true
	}
	return false
}
