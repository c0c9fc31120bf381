package store

import (
	"fmt"

	"github.com/eludris-go/eludris/internal/config"
)

// dbTestConfig gives every test its own private in-memory sqlite
// database. Each call names a fresh in-memory database, and cache=shared
// lets every connection of the Store's *sql.DB pool reach that same
// database (a plain ":memory:" database would be private to one
// connection).
var testDBCounter int

func dbTestConfig() config.DatabaseConfig {
	testDBCounter++
	return config.DatabaseConfig{
		Dialect: "sqlite3",
		DSN:     fmt.Sprintf("file:store_test_%d?mode=memory&cache=shared", testDBCounter),
	}
}
