// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/inboxhub/internal/app/store/records"
)

// DBDeps holds database/back-end dependencies for the app.
// Extend this struct as your app evolves.
type DBDeps struct {
	Records *records.Client
}
