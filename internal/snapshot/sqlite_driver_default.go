//go:build !(cgo && sqlite3_cgo)

package snapshot

import (
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const sqliteDriverID = "ncruces/go-sqlite3"
const sqliteDriverName = "sqlite3"
