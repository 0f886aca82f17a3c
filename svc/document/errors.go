package document

import "errors"

var (
	// ErrNotReady means there is nothing to render yet. Callers treat it as
	// a silent no-op.
	ErrNotReady     = errors.New("document not ready")
	ErrBrowser      = errors.New("browser unavailable")
	ErrRasterize    = errors.New("failed to rasterize document")
	ErrCompose      = errors.New("failed to compose pdf")
	ErrInvalidImage = errors.New("invalid raster image")
)
