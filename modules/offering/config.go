package offering

type Config struct {
	// WebsiteURL is encoded in the QR code on the settlement note.
	WebsiteURL string `env:"WEBSITE_URL" envDefault:"https://auxesispharma.com"`
	QRSize     int    `env:"QR_SIZE" envDefault:"160"`
	// Contact is the address shown on the privacy page.
	Contact string `env:"PRIVACY_CONTACT" envDefault:"auxesis@auxesispharma.com"`
}

func (c Config) withDefaults() Config {
	if c.WebsiteURL == "" {
		c.WebsiteURL = "https://auxesispharma.com"
	}
	if c.QRSize <= 0 {
		c.QRSize = 160
	}
	if c.Contact == "" {
		c.Contact = "auxesis@auxesispharma.com"
	}
	return c
}
