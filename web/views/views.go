// Package views renders the pages and fragments of the share offering.
//
// Templates are plain html/template files embedded in the binary and exposed
// as templ.Component values, so they plug into the handler package the same
// way generated templ components would. Fragment views (Form, Confirmation,
// Total, DeliveryStatus, Toast) render a single element with a stable id and
// are what datastar patches into the page.
package views

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"time"

	"github.com/a-h/templ"

	"github.com/auxesispharma/emission/handler"
	"github.com/auxesispharma/emission/modules/offering"
	"github.com/auxesispharma/emission/pkg/validator"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// DatastarURL is the datastar client bundle loaded by every page.
const DatastarURL = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

var ErrParseTemplates = errors.New("views: failed to parse templates")

type Views struct {
	tmpl *template.Template
}

func New() (*Views, error) {
	tmpl, err := template.New("views").Funcs(template.FuncMap{
		"datastarURL": func() string { return DatastarURL },
		"year":        func() int { return time.Now().Year() },
		"field":       newField,
	}).ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, errors.Join(ErrParseTemplates, err)
	}
	return &Views{tmpl: tmpl}, nil
}

// Must panics if New failed.
func Must(v *Views, err error) *Views {
	if err != nil {
		panic(err)
	}
	return v
}

func (v *Views) component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return v.tmpl.ExecuteTemplate(w, name, data)
	})
}

// Offering returns the view set of the offering module.
func (v *Views) Offering() *offering.Views {
	return &offering.Views{
		FormPage:         v.FormPage,
		Form:             v.Form,
		Total:            v.Total,
		ConfirmationPage: v.ConfirmationPage,
		Confirmation:     v.Confirmation,
		DeliveryStatus:   v.DeliveryStatus,
		SettlementNote:   v.SettlementNote,
		Toast:            v.Toast,
		PrivacyPage:      v.PrivacyPage,
	}
}

// ErrorHandlerConfig wires the error page and toast into handler.NewErrorHandler.
func (v *Views) ErrorHandlerConfig() handler.ErrorHandlerConfig {
	return handler.ErrorHandlerConfig{
		ErrorPage:   v.ErrorPage,
		ErrorToast:  v.ErrorToast,
		ToastTarget: "#toasts",
	}
}

func (v *Views) FormPage(p offering.FormParams) templ.Component {
	return v.component("form-page", p)
}

func (v *Views) Form(p offering.FormParams) templ.Component {
	return v.component("form", p)
}

func (v *Views) Total(p offering.TotalParams) templ.Component {
	return v.component("total", p)
}

func (v *Views) ConfirmationPage(p offering.ConfirmationParams) templ.Component {
	return v.component("confirmation-page", p)
}

func (v *Views) Confirmation(p offering.ConfirmationParams) templ.Component {
	return v.component("confirmation", p)
}

func (v *Views) DeliveryStatus(p offering.DeliveryStatusParams) templ.Component {
	return v.component("delivery-status", p)
}

// SettlementNote is the standalone document handed to the rasterizer. The
// note element carries the id document.Config.Selector points at.
func (v *Views) SettlementNote(p offering.NoteParams) templ.Component {
	return v.component("settlement-document", p)
}

func (v *Views) Toast(n offering.Notice) templ.Component {
	return v.component("toast", n)
}

func (v *Views) PrivacyPage(p offering.PrivacyParams) templ.Component {
	return v.component("privacy-page", p)
}

func (v *Views) ErrorPage(p handler.ErrorPageParams) templ.Component {
	return v.component("error-page", p)
}

func (v *Views) ErrorToast(p handler.ErrorToastParams) templ.Component {
	return v.component("toast", p)
}

type field struct {
	Name        string
	Label       string
	Type        string
	Placeholder string
	Value       string
	Error       string
	Hint        string
}

func newField(name, label, typ, placeholder, value string, errs validator.ValidationErrors, hint ...string) field {
	f := field{
		Name:        name,
		Label:       label,
		Type:        typ,
		Placeholder: placeholder,
		Value:       value,
		Error:       errs.First(name),
	}
	if len(hint) > 0 {
		f.Hint = hint[0]
	}
	return f
}
