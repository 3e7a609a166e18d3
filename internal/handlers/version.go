package handlers

import (
	"net/http"

	"portfolio-site/internal/images"
	"portfolio-site/internal/startup"
)

// VersionResponse is the build information plus the active image settings.
type VersionResponse struct {
	startup.BuildInfo
	ImageQuality int   `json:"imageQuality"`
	ImageWidths  []int `json:"imageWidths"`
	Vips         bool  `json:"vips"`
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, VersionResponse{
		BuildInfo:    startup.GetBuildInfo(),
		ImageQuality: h.imageOpts.Quality,
		ImageWidths:  h.imageOpts.Widths,
		Vips:         h.imageOpts.UseVips && images.IsVipsAvailable(),
	})
}
