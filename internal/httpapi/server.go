package httpapi

import (
	"net/http"
	"time"

	"github.com/ravikanth-kolla/HawaiiFiveO/internal/config"
)

func NewServer(cfg config.Config, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           Wrap(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
