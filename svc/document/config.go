package document

import "time"

// Config controls the browser and the output quality.
type Config struct {
	ChromeBin     string        `env:"CHROME_BIN"`
	Headless      bool          `env:"CHROME_HEADLESS" envDefault:"true"`
	ImageTimeout  time.Duration `env:"DOCUMENT_IMAGE_TIMEOUT" envDefault:"5s"`
	RenderTimeout time.Duration `env:"DOCUMENT_RENDER_TIMEOUT" envDefault:"20s"`
	Scale         float64       `env:"DOCUMENT_SCALE" envDefault:"1.4"`
	JPEGQuality   int           `env:"DOCUMENT_JPEG_QUALITY" envDefault:"75"`
	// ViewportWidth is the CSS width the note is laid out at.
	ViewportWidth int    `env:"DOCUMENT_VIEWPORT_WIDTH" envDefault:"800"`
	Selector      string `env:"DOCUMENT_SELECTOR" envDefault:"#settlement-note"`
}

// DefaultConfig mirrors the env defaults.
func DefaultConfig() Config {
	return Config{
		Headless:      true,
		ImageTimeout:  5 * time.Second,
		RenderTimeout: 20 * time.Second,
		Scale:         1.4,
		JPEGQuality:   75,
		ViewportWidth: 800,
		Selector:      "#settlement-note",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ImageTimeout <= 0 {
		c.ImageTimeout = d.ImageTimeout
	}
	if c.RenderTimeout <= 0 {
		c.RenderTimeout = d.RenderTimeout
	}
	if c.Scale <= 0 {
		c.Scale = d.Scale
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		c.JPEGQuality = d.JPEGQuality
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = d.ViewportWidth
	}
	if c.Selector == "" {
		c.Selector = d.Selector
	}
	return c
}
