package db

import (
	"cmp"
	"context"
	"embed"
	"errors"
	"fmt"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"regexp"
	"sort"
	"strconv"
)

type Connection struct {
	postgres *pgxpool.Pool
}

func New(ctx context.Context, postgresURI string) (*Connection, error) {
	pool, err := pgxpool.New(ctx, postgresURI)
	if err != nil {
		return nil, err
	}
	err = migrate(ctx, pool)
	if err != nil {
		return nil, err
	}
	return &Connection{
		postgres: pool,
	}, nil
}

func (c *Connection) Close() {
	c.postgres.Close()
}

//go:embed migrations/*.sql
var fs embed.FS

var migrationName = regexp.MustCompile(`^(\d+)_(\w+)\.(up|down)\.sql$`)

type migration struct {
	version int
	file    string
}

// pendingMigrations returns up migrations newer than version in apply order.
func pendingMigrations(names []string, version int) ([]migration, error) {
	sort.Slice(names, func(i, j int) bool {
		return cmp.Less(names[i], names[j])
	})
	var res []migration
	next := version + 1
	for _, name := range names {
		matches := migrationName.FindStringSubmatch(name)
		if len(matches) != 4 {
			return nil, fmt.Errorf("invalid filename %s", name)
		}
		fVersion, _ := strconv.Atoi(matches[1])
		if fVersion <= version || matches[3] != "up" {
			continue
		}
		if fVersion != next {
			return nil, fmt.Errorf("invalid version %d, expected %d", fVersion, next)
		}
		res = append(res, migration{version: fVersion, file: name})
		next++
	}
	return res, nil
}

func migrate(ctx context.Context, postgres *pgxpool.Pool) error {
	dir, err := fs.ReadDir("migrations")
	if err != nil {
		return err
	}
	_, err = postgres.Exec(ctx, `create table if not exists schema_migrations (version bigint, dirty boolean)`)
	if err != nil {
		return err
	}
	var version int
	var dirty bool
	err = postgres.QueryRow(ctx, `select version, dirty from schema_migrations limit 1`).Scan(&version, &dirty)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if dirty {
		return fmt.Errorf("database migration is dirty")
	}
	names := make([]string, 0, len(dir))
	for _, f := range dir {
		if f.Type().IsRegular() {
			names = append(names, f.Name())
		}
	}
	pending, err := pendingMigrations(names, version)
	if err != nil {
		return err
	}
	for _, m := range pending {
		if version == 0 {
			_, err = postgres.Exec(ctx, `insert into schema_migrations (version, dirty) values ($1, $2)`, m.version, true)
		} else {
			_, err = postgres.Exec(ctx, `update schema_migrations set dirty = $1, version = $2`, true, m.version)
		}
		if err != nil {
			return err
		}
		data, err := fs.ReadFile("migrations/" + m.file)
		if err != nil {
			return err
		}
		if _, err = postgres.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("migration %s: %w", m.file, err)
		}
		_, err = postgres.Exec(ctx, `update schema_migrations set dirty = $1, version = $2`, false, m.version)
		if err != nil {
			return err
		}
		version = m.version
	}
	return nil
}
