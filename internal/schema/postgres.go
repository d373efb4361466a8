package schema

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

func init() {
	Register("postgresql", func() Adapter { return &postgresAdapter{} })
}

type postgresAdapter struct {
	db *sql.DB
}

func (a *postgresAdapter) Provider() string { return "postgresql" }

func (a *postgresAdapter) Connect(ctx context.Context, connection string) error {
	db, err := sql.Open("pgx", connection)
	if err != nil {
		return fmt.Errorf("open postgresql connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping postgresql: %w", err)
	}
	a.db = db
	return nil
}

func (a *postgresAdapter) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *postgresAdapter) Ping(ctx context.Context) error {
	if a.db == nil {
		return fmt.Errorf("postgresql adapter is not connected")
	}
	return a.db.PingContext(ctx)
}

func (a *postgresAdapter) Inspect(ctx context.Context) (*Database, error) {
	if a.db == nil {
		return nil, fmt.Errorf("postgresql adapter is not connected")
	}
	return inspectPostgres(ctx, a.db)
}

const pgColumnsQuery = `
SELECT c.table_name, c.column_name, c.udt_name, c.is_nullable
FROM information_schema.columns c
JOIN information_schema.tables t
  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
WHERE c.table_schema = current_schema() AND t.table_type = 'BASE TABLE'
ORDER BY c.table_name, c.ordinal_position`

const pgPrimaryKeyQuery = `
SELECT tc.table_name, kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
WHERE tc.table_schema = current_schema() AND tc.constraint_type = 'PRIMARY KEY'
ORDER BY tc.table_name, kcu.ordinal_position`

// inspectPostgres reads the schema from information_schema. Split out from
// the adapter so it can be tested against a mock *sql.DB.
func inspectPostgres(ctx context.Context, db *sql.DB) (*Database, error) {
	rows, err := db.QueryContext(ctx, pgColumnsQuery)
	if err != nil {
		return nil, fmt.Errorf("list postgresql columns: %w", err)
	}
	defer rows.Close()

	out := &Database{Provider: "postgresql"}
	byName := make(map[string]*Table)
	var order []string
	for rows.Next() {
		var table, column, udt, nullable string
		if err := rows.Scan(&table, &column, &udt, &nullable); err != nil {
			return nil, err
		}
		t, ok := byName[table]
		if !ok {
			t = &Table{Name: table}
			byName[table] = t
			order = append(order, table)
		}
		t.Columns = append(t.Columns, Column{
			Name:     column,
			Type:     udt,
			Nullable: nullable == "YES",
		})
		if t.GeometryColumn == "" && (udt == "geometry" || udt == "geography") {
			t.GeometryColumn = column
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pkRows, err := db.QueryContext(ctx, pgPrimaryKeyQuery)
	if err != nil {
		return nil, fmt.Errorf("list postgresql primary keys: %w", err)
	}
	defer pkRows.Close()
	for pkRows.Next() {
		var table, column string
		if err := pkRows.Scan(&table, &column); err != nil {
			return nil, err
		}
		if t, ok := byName[table]; ok && t.PrimaryKey == "" {
			t.PrimaryKey = column
		}
	}
	if err := pkRows.Err(); err != nil {
		return nil, err
	}

	for _, name := range order {
		out.Tables = append(out.Tables, *byName[name])
	}
	return out, nil
}
