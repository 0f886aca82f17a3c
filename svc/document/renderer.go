package document

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/auxesispharma/emission/pkg/logger"
	"github.com/auxesispharma/emission/svc/submission"
)

// Document is a rendered settlement note.
type Document struct {
	Filename  string
	Content   []byte
	PageCount int
}

// Renderer turns the settlement note HTML of a record into a PDF.
type Renderer struct {
	raster Rasterizer
	cfg    Config
	log    *slog.Logger
	now    func() time.Time
}

type RendererOption func(*Renderer)

func WithLogger(log *slog.Logger) RendererOption {
	return func(r *Renderer) {
		if log != nil {
			r.log = log
		}
	}
}

func NewRenderer(raster Rasterizer, cfg Config, opts ...RendererOption) *Renderer {
	r := &Renderer{
		raster: raster,
		cfg:    cfg.withDefaults(),
		log:    logger.Noop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render rasterizes view, the note already painted with rec's data, and
// composes the PDF. It returns ErrNotReady when view is empty or rec is nil.
func (r *Renderer) Render(ctx context.Context, view []byte, rec *submission.Record) (*Document, error) {
	if len(view) == 0 || rec == nil {
		return nil, ErrNotReady
	}

	start := r.now()
	raster, err := r.raster.Rasterize(ctx, view, r.cfg.Selector)
	if err != nil {
		return nil, err
	}
	if raster == nil || raster.Image == nil {
		return nil, errors.Join(ErrRasterize, ErrInvalidImage)
	}
	if len(raster.PendingImages) > 0 {
		r.log.WarnContext(ctx, "images still loading after timeout, rendering anyway",
			logger.Component("document"),
			logger.SubmissionID(rec.ID),
			slog.Any("pending_images", raster.PendingImages),
			logger.Duration(r.cfg.ImageTimeout),
		)
	}

	content, err := Compose(raster.Image, r.cfg.JPEGQuality, Metadata{
		Title:   "Teckningsanmälan",
		Author:  rec.Request.Name,
		Subject: "Avräkningsnota Auxesis Pharma Holding AB (publ)",
	})
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Filename:  Filename(rec.Request.PersonalNumber),
		Content:   content,
		PageCount: 1,
	}
	r.log.DebugContext(ctx, "document rendered",
		logger.Component("document"),
		logger.SubmissionID(rec.ID),
		slog.String("filename", doc.Filename),
		slog.Int("size", len(content)),
		logger.Duration(r.now().Sub(start)),
	)
	return doc, nil
}
