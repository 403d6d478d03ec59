// Package database provides support for access the database.
package database

import (
	"log"
	"net/url"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Config is the required properties to use the database.
type Config struct {
	// Path is the sqlite database file path. ":memory:" opens a private
	// in-memory database, used by tests.
	Path string
}

// Open knows how to open a database connection based on the configuration.
func Open(cfg Config) (*sqlx.DB, error) {
	q := make(url.Values)
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")

	u := url.URL{
		Scheme:   "file",
		Opaque:   cfg.Path,
		RawQuery: q.Encode(),
	}
	db, err := sqlx.Connect("sqlite", u.String())
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; a single pooled connection avoids
	// SQLITE_BUSY contention between the scheduler and the web service.
	db.SetMaxOpenConns(1)
	return db, nil
}

/*
Transact starts a Transaction on sqlx.DB, calls txFunc and commits or rolls back the transaction depending on the
return code of the txFunc result
*/
func Transact(log *log.Logger, db *sqlx.DB, txFunc func(*sqlx.Tx) error) (err error) {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback() // err is non-nil; don't change it
			if rollbackErr != nil {
				log.Printf("Received error while attempting to rollback transaction. error:%v", rollbackErr)
			}
			return
		}
		err = tx.Commit() // err is nil; if Commit returns error update err
	}()
	err = txFunc(tx)
	return err
}
