package mailrelay

type Config struct {
	// Recipient receives every subscription.
	Recipient string `env:"MAIL_RECIPIENT" envDefault:"auxesis@auxesispharma.com"`
	// DefaultFilename is used when the pdf part carries no filename.
	DefaultFilename string `env:"MAIL_DEFAULT_FILENAME" envDefault:"Teckningsanmalan.pdf"`
}
