package api

import (
	"net/http"

	"github.com/sweater-ventures/funnel/app"
	"github.com/sweater-ventures/funnel/config"
)

func init() {
	registerRoute(func(funnel *app.Application, router *http.ServeMux) {
		router.Handle("/version", routeHandler(funnel, versionApiHandler))
	})
}

type VersionResponse struct {
	App     string `json:"app"`
	Version string `json:"version"`
}

func versionApiHandler(funnel *app.Application, w http.ResponseWriter, r *http.Request) {
	// write (using JSON) the version response
	writeJsonResponse(w, http.StatusOK, VersionResponse{
		App:     "funnel",
		Version: config.Version,
	})
}
