package main

import (
	"net/http"

	"github.com/JaimeStill/pdf-reader/internal/lifecycle"
	"github.com/JaimeStill/pdf-reader/internal/pipeline"
	"github.com/JaimeStill/pdf-reader/internal/routes"
)

func registerRoutes(r routes.System, reader *pipeline.Handler, ready lifecycle.ReadinessChecker) {
	r.RegisterRoute(routes.Route{
		Method:  "GET",
		Pattern: "/healthz",
		Handler: handleHealthCheck,
	})
	r.RegisterRoute(routes.Route{
		Method:  "GET",
		Pattern: "/readyz",
		Handler: handleReadyCheck(ready),
	})
	r.RegisterGroup(reader.Routes())
}

func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func handleReadyCheck(ready lifecycle.ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ready.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("NOT READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	}
}
