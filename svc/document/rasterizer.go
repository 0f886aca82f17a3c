package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/auxesispharma/emission/pkg/logger"
)

// Raster is a captured element.
type Raster struct {
	Image image.Image
	// PendingImages lists image sources that had not settled when the
	// image wait timed out.
	PendingImages []string
}

// Rasterizer captures the element matching selector from a standalone HTML
// document.
type Rasterizer interface {
	Rasterize(ctx context.Context, html []byte, selector string) (*Raster, error)
}

// waitImagesJS resolves with the sources of images still loading after ms
// milliseconds, or with an empty list once every image has loaded or failed.
const waitImagesJS = `(ms) => new Promise((resolve) => {
	const pending = () => Array.from(document.images)
		.filter((img) => !img.complete)
		.map((img) => img.currentSrc || img.src);
	const waits = Array.from(document.images)
		.filter((img) => !img.complete)
		.map((img) => new Promise((done) => {
			img.addEventListener("load", done, { once: true });
			img.addEventListener("error", done, { once: true });
		}));
	const timer = setTimeout(() => resolve(pending()), ms);
	Promise.all(waits).then(() => { clearTimeout(timer); resolve([]); });
})`

// RodRasterizer renders with a shared headless Chrome started on first use.
// Every call gets its own page.
type RodRasterizer struct {
	cfg Config
	log *slog.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// RodOption configures a RodRasterizer.
type RodOption func(*RodRasterizer)

func WithRodLogger(log *slog.Logger) RodOption {
	return func(r *RodRasterizer) {
		if log != nil {
			r.log = log
		}
	}
}

func NewRodRasterizer(cfg Config, opts ...RodOption) *RodRasterizer {
	r := &RodRasterizer{cfg: cfg.withDefaults(), log: logger.Noop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches Chrome unless it is already running. Calling it is
// optional; Rasterize starts the browser lazily.
func (r *RodRasterizer) Start(ctx context.Context) error {
	_, err := r.ensureBrowser(ctx)
	return err
}

func (r *RodRasterizer) ensureBrowser(ctx context.Context) (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		if _, err := r.browser.Version(); err == nil {
			return r.browser, nil
		}
		r.log.WarnContext(ctx, "stale browser connection, relaunching", logger.Component("rasterizer"))
		r.closeLocked()
	}

	l := launcher.New().Headless(r.cfg.Headless).Leakless(false)
	if r.cfg.ChromeBin != "" {
		l = l.Bin(r.cfg.ChromeBin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, errors.Join(ErrBrowser, fmt.Errorf("launch chrome: %w", err))
	}

	// Not bound to ctx: the browser outlives the request that started it.
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, errors.Join(ErrBrowser, fmt.Errorf("connect to chrome: %w", err))
	}

	r.launcher = l
	r.browser = browser
	r.log.InfoContext(ctx, "chrome started", logger.Component("rasterizer"))
	return browser, nil
}

func (r *RodRasterizer) Rasterize(ctx context.Context, html []byte, selector string) (*Raster, error) {
	browser, err := r.ensureBrowser(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.RenderTimeout)
	defer cancel()

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, errors.Join(ErrRasterize, fmt.Errorf("create page: %w", err))
	}
	defer func() { _ = page.Close() }()

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             r.cfg.ViewportWidth,
		Height:            1131,
		DeviceScaleFactor: r.cfg.Scale,
		Mobile:            false,
	}).Call(page); err != nil {
		return nil, errors.Join(ErrRasterize, fmt.Errorf("set viewport: %w", err))
	}

	if err := page.SetDocumentContent(string(html)); err != nil {
		return nil, errors.Join(ErrRasterize, fmt.Errorf("load document: %w", err))
	}

	res, err := page.Eval(waitImagesJS, r.cfg.ImageTimeout.Milliseconds())
	if err != nil {
		return nil, errors.Join(ErrRasterize, fmt.Errorf("wait for images: %w", err))
	}
	var pending []string
	for _, v := range res.Value.Arr() {
		pending = append(pending, v.Str())
	}

	el, err := page.Element(selector)
	if err != nil {
		return nil, errors.Join(ErrRasterize, fmt.Errorf("find %s: %w", selector, err))
	}
	shot, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, errors.Join(ErrRasterize, fmt.Errorf("capture %s: %w", selector, err))
	}

	img, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, errors.Join(ErrRasterize, ErrInvalidImage, err)
	}
	return &Raster{Image: img, PendingImages: pending}, nil
}

// Close shuts the browser down.
func (r *RodRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
	return nil
}

func (r *RodRasterizer) closeLocked() {
	if r.browser != nil {
		_ = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher = nil
	}
}
