package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Serve exposes the default prometheus registry over HTTP at the given
// address and path. It returns the bound address; the server runs until
// the process exits.
func Serve(addr, path string) (net.Addr, error) {
	if path == "" {
		path = "/metrics"
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	srv := &http.Server{Handler: mux}
	go func() { _ = srv.Serve(l) }()
	return l.Addr(), nil
}
