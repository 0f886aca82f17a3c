package mailrelay

import (
	"bytes"
	"encoding/json"
	"strings"
)

// text accepts a JSON string, number or boolean. Relays send shares and
// totals either way.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*t = text(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	if b {
		*t = "true"
	} else {
		*t = "false"
	}
	return nil
}

// Meta is the subset of subscription fields the notification email uses.
type Meta struct {
	Name           text `json:"name"`
	PersonalNumber text `json:"personalNumber"`
	Email          text `json:"email"`
	Phone          text `json:"phone"`
	Shares         text `json:"shares"`
	TotalAmount    text `json:"totalAmount"`
}

// ParseMeta decodes raw. Empty input yields an empty Meta.
func ParseMeta(raw string) (Meta, error) {
	var m Meta
	if strings.TrimSpace(raw) == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Meta{}, err
	}
	return m, nil
}

func orDash(t text) string {
	if s := strings.TrimSpace(string(t)); s != "" {
		return s
	}
	return "-"
}
