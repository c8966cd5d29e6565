package sqliteutil

import (
	"database/sql"
	"fmt"
	"strings"

	devenv "regassist-backend/dev/env"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func isRemote(location string) bool {
	for _, prefix := range []string{"libsql://", "http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(location, prefix) {
			return true
		}
	}
	return false
}

// OpenDB opens a database and applies `schema` to it. `location` is either a
// remote libsql url, ":memory:" or a sqlite file path (which may start with
// "<dev_state>").
func OpenDB(schema, location string) (*sql.DB, error) {
	if location == "" {
		return nil, fmt.Errorf("a database location was not specified")
	}

	db, err := open(location)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

func open(location string) (*sql.DB, error) {
	if isRemote(location) {
		return sql.Open("libsql", location)
	}

	if location != ":memory:" {
		var err error
		location, err = devenv.ResolvePath(location)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", location)
	if err != nil {
		return nil, err
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	// (this also keeps a ":memory:" database on a single connection)
	db.SetMaxOpenConns(1)
	if location != ":memory:" {
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}
