package delivery

import "time"

type Config struct {
	FormRelayURL  string        `env:"FORM_RELAY_URL" envDefault:"https://formspree.io/f/mzzkeobb"`
	FormName      string        `env:"FORM_RELAY_NAME" envDefault:"Auxesis Teckningsanmälan"`
	MailRelayURL  string        `env:"MAIL_RELAY_URL" envDefault:"http://localhost:8080/api/send-pdf"`
	Timeout       time.Duration `env:"DELIVERY_TIMEOUT" envDefault:"30s"`
	DataRelayWait time.Duration `env:"DATA_RELAY_WAIT" envDefault:"5s"`
}

func (c Config) withDefaults() Config {
	if c.FormName == "" {
		c.FormName = "Auxesis Teckningsanmälan"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.DataRelayWait <= 0 {
		c.DataRelayWait = 5 * time.Second
	}
	return c
}
