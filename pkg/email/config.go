package email

type Config struct {
	// PostmarkServerToken is the only secret the service needs. When empty
	// messages are written to DevDir instead of being sent.
	PostmarkServerToken string `env:"POSTMARK_SERVER_TOKEN"`
	SenderEmail         string `env:"SENDER_EMAIL" envDefault:"Auxesis Emission <no-reply@auxesispharma.com>"`
	DevDir              string `env:"MAIL_DEV_DIR" envDefault:"tmp/mail"`
}
