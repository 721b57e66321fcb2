package sqlstore

import (
	"fmt"
	"strings"
)

// Dialect captures the SQL differences between the supported drivers
type Dialect struct {
	Name   string
	Driver string

	quote       func(ident string) string
	payloadType string
	upsert      string
	tableExists string
	countTables string
}

// SQLite uses modernc.org/sqlite (pure Go, no cgo)
var SQLite = Dialect{
	Name:        "sqlite",
	Driver:      "sqlite",
	quote:       func(ident string) string { return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"` },
	payloadType: "TEXT",
	upsert: `INSERT INTO %s (id, user_id, payload, embedding) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, payload = excluded.payload, embedding = excluded.embedding`,
	tableExists: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
	countTables: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`,
}

// MySQL uses github.com/go-sql-driver/mysql
var MySQL = Dialect{
	Name:        "mysql",
	Driver:      "mysql",
	quote:       func(ident string) string { return "`" + strings.ReplaceAll(ident, "`", "``") + "`" },
	payloadType: "LONGTEXT",
	upsert: `INSERT INTO %s (id, user_id, payload, embedding) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE user_id = VALUES(user_id), payload = VALUES(payload), embedding = VALUES(embedding)`,
	tableExists: `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`,
	countTables: `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE()`,
}

func (d Dialect) createTable(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id BIGINT PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		payload %s NOT NULL,
		embedding BLOB
	)`, d.quote(table), d.payloadType)
}

func (d Dialect) upsertStmt(table string) string {
	return fmt.Sprintf(d.upsert, d.quote(table))
}
