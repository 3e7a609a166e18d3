package handlers

import (
	"fmt"
	"sync"
	"time"

	"portfolio-site/internal/database"
	"portfolio-site/internal/images"
	"portfolio-site/internal/publish"
	"portfolio-site/internal/startup"
)

// Handlers holds the dependencies shared by every HTTP handler.
type Handlers struct {
	db        *database.Database
	pipeline  *images.Pipeline
	imageRes  *images.Resolver
	uploadRes *images.Resolver
	publisher publish.Publisher
	pages     *Pages

	imageOpts images.Options
	siteDir   string
	imagesDir string
	uploadDir string

	uploadsEnabled bool
	// uploadMu serializes choosing and creating upload file names.
	uploadMu       sync.Mutex
	maxUpload      int64
	resumeFile     string
	resumeName     string
	adminHash      []byte

	startTime time.Time
}

// New creates the handlers. A nil publisher disables mirroring of derived
// images.
func New(db *database.Database, pipeline *images.Pipeline, publisher publish.Publisher, config *startup.Config) (*Handlers, error) {
	opts := config.ImageOptions()

	pages, err := LoadPages(config.SiteDir, opts.Widths)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	if publisher == nil {
		publisher = publish.Nop{}
	}

	return &Handlers{
		db:             db,
		pipeline:       pipeline,
		imageRes:       images.NewResolver(nil, config.ImagesDir, opts),
		uploadRes:      images.NewResolver(nil, config.UploadDir, opts),
		publisher:      publisher,
		pages:          pages,
		imageOpts:      opts,
		siteDir:        config.SiteDir,
		imagesDir:      config.ImagesDir,
		uploadDir:      config.UploadDir,
		uploadsEnabled: config.UploadsEnabled,
		maxUpload:      config.MaxUploadBytes,
		resumeFile:     config.ResumeFile,
		resumeName:     config.ResumeDownloadName,
		adminHash:      []byte(config.AdminPasswordHash),
		startTime:      time.Now(),
	}, nil
}
