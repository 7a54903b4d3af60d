// Package sqlite stores the settings scope in a SQLite file through
// mattn/go-sqlite3. The schema is embedded and applied with golang-migrate
// when the store is opened.
package sqlite
