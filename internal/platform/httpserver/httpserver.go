package httpserver

import (
	"net/http"
	"time"
)

// New builds the site's HTTP server. The write timeout leaves headroom for
// the callback path, which talks to the identity provider and the profile
// store before it can redirect.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
