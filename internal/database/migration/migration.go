package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"itemapi/internal/database/dialect"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinels report whether the item table already exists.
var sentinels = map[string]string{
	"postgres":  `SELECT to_regclass('public.item') IS NOT NULL`,
	"sqlite":    `SELECT COUNT(*) > 0 FROM sqlite_master WHERE type = 'table' AND name = 'item'`,
	"mysql":     `SELECT COUNT(*) > 0 FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = 'item'`,
	"sqlserver": `SELECT CASE WHEN OBJECT_ID('dbo.item', 'U') IS NULL THEN 0 ELSE 1 END`,
}

var steps = map[string][]migrationStep{
	"postgres": {
		{
			Name: "create_table_item",
			SQL: `CREATE TABLE IF NOT EXISTS item (
  id        BIGINT       GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
  owner_id  BIGINT       NOT NULL,
  name      VARCHAR(256) NOT NULL UNIQUE,
  origin    VARCHAR(256) NOT NULL DEFAULT '',
  grapes    VARCHAR(256) NOT NULL DEFAULT '',
  good_with VARCHAR(256) NOT NULL DEFAULT '',
  acid      SMALLINT     NOT NULL DEFAULT 0,
  alcohol   SMALLINT     NOT NULL DEFAULT 0,
  body      SMALLINT     NOT NULL DEFAULT 0,
  tannin    SMALLINT     NOT NULL DEFAULT 0,
  cid       BIGINT       NOT NULL,
  ctime     TIMESTAMPTZ  NOT NULL,
  mid       BIGINT       NOT NULL,
  mtime     TIMESTAMPTZ  NOT NULL
);`,
		},
		{
			Name: "create_index_item_owner_id",
			SQL:  `CREATE INDEX IF NOT EXISTS idx_item_owner_id ON item (owner_id);`,
		},
	},
	"sqlite": {
		{
			Name: "create_table_item",
			SQL: `CREATE TABLE IF NOT EXISTS item (
  id        INTEGER PRIMARY KEY AUTOINCREMENT,
  owner_id  INTEGER NOT NULL,
  name      TEXT    NOT NULL UNIQUE,
  origin    TEXT    NOT NULL DEFAULT '',
  grapes    TEXT    NOT NULL DEFAULT '',
  good_with TEXT    NOT NULL DEFAULT '',
  acid      INTEGER NOT NULL DEFAULT 0,
  alcohol   INTEGER NOT NULL DEFAULT 0,
  body      INTEGER NOT NULL DEFAULT 0,
  tannin    INTEGER NOT NULL DEFAULT 0,
  cid       INTEGER NOT NULL,
  ctime     TEXT    NOT NULL,
  mid       INTEGER NOT NULL,
  mtime     TEXT    NOT NULL
);`,
		},
		{
			Name: "create_index_item_owner_id",
			SQL:  `CREATE INDEX IF NOT EXISTS idx_item_owner_id ON item (owner_id);`,
		},
	},
	"mysql": {
		{
			Name: "create_table_item",
			SQL: "CREATE TABLE IF NOT EXISTS item (" + `
  id        BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
  owner_id  BIGINT       NOT NULL,
  name      VARCHAR(255) NOT NULL UNIQUE,
  origin    VARCHAR(255) NOT NULL DEFAULT '',
  grapes    VARCHAR(255) NOT NULL DEFAULT '',
  good_with VARCHAR(255) NOT NULL DEFAULT '',
  acid      TINYINT      NOT NULL DEFAULT 0,
  alcohol   TINYINT      NOT NULL DEFAULT 0,
  body      TINYINT      NOT NULL DEFAULT 0,
  tannin    TINYINT      NOT NULL DEFAULT 0,
  cid       BIGINT       NOT NULL,
  ctime     DATETIME(6)  NOT NULL,
  mid       BIGINT       NOT NULL,
  mtime     DATETIME(6)  NOT NULL,
  INDEX idx_item_owner_id (owner_id)
);`,
		},
	},
	"sqlserver": {
		{
			Name: "create_table_item",
			SQL: `IF OBJECT_ID('dbo.item', 'U') IS NULL
CREATE TABLE item (
  id        BIGINT        IDENTITY(1,1) PRIMARY KEY,
  owner_id  BIGINT        NOT NULL,
  name      NVARCHAR(256) NOT NULL UNIQUE,
  origin    NVARCHAR(256) NOT NULL DEFAULT '',
  grapes    NVARCHAR(256) NOT NULL DEFAULT '',
  good_with NVARCHAR(256) NOT NULL DEFAULT '',
  acid      SMALLINT      NOT NULL DEFAULT 0,
  alcohol   SMALLINT      NOT NULL DEFAULT 0,
  body      SMALLINT      NOT NULL DEFAULT 0,
  tannin    SMALLINT      NOT NULL DEFAULT 0,
  cid       BIGINT        NOT NULL,
  ctime     DATETIME2(6)  NOT NULL,
  mid       BIGINT        NOT NULL,
  mtime     DATETIME2(6)  NOT NULL
);`,
		},
		{
			Name: "create_index_item_owner_id",
			SQL: `IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = 'idx_item_owner_id')
CREATE INDEX idx_item_owner_id ON item (owner_id);`,
		},
	},
}

// EnsureMigrated checks if the 'item' table exists and creates the schema if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, d dialect.Dialect, log zerolog.Logger) error {
	start := time.Now()
	log = log.With().Str("component", "database").Str("driver", d.Name()).Logger()

	sentinel, ok := sentinels[d.Name()]
	if !ok {
		return fmt.Errorf("no schema for driver %q", d.Name())
	}

	log.Info().Str("event", "db_migration_check").Str("status", "starting").Send()

	var exists bool
	if err := db.QueryRowContext(ctx, sentinel).Scan(&exists); err != nil {
		log.Error().
			Str("event", "db_migration_failed").
			Str("status", "error").
			Err(err).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info().
			Str("event", "db_migration_skip").
			Str("status", "success").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("schema already exists, skipping migration")
		return nil
	}

	log.Info().Str("event", "db_migration_start").Str("status", "in_progress").Send()

	for _, step := range steps[d.Name()] {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error().
				Str("event", "db_migration_failed").
				Str("status", "error").
				Str("migration_step", step.Name).
				Err(err).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
				Send()
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info().
			Str("event", "db_migration_step").
			Str("status", "success").
			Str("migration_step", step.Name).
			Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
			Send()
	}

	log.Info().
		Str("event", "db_migration_success").
		Str("status", "success").
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Send()

	return nil
}
