package httpapi

import (
	"net/http"

	"github.com/jmoiron/sqlx"
)

// NewMux returns a mux with the service-level routes registered. Feature
// modules add their own routes to it.
func NewMux(db *sqlx.DB) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	return mux
}
