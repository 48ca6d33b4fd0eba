package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"io"
	"strings"
	"sync"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// Template names
const (
	AccountPending  = "account_pending"
	AccountApproved = "account_approved"
)

// EmailData defines the fields account templates can use.
type EmailData struct {
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	RecipientEmail string `json:"RecipientEmail"`
	Type           string `json:"Type"`
	Role           string `json:"Role"`

	CompanyName string `json:"CompanyName"`
	AppName     string `json:"AppName"`

	SupportURL string `json:"SupportURL"`
	LoginURL   string `json:"LoginURL"`

	Time   string    `json:"Time"`
	TimeAt time.Time `json:"TimeAt"`
}

// ToMap flattens EmailData into the map carried by an EmailJob.
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// Known reports whether name has a full subject/text/html template set.
func Known(name string) bool {
	return name == AccountPending || name == AccountApproved
}

// {{ .Value | default "Fallback" }}
func fallback(def, value any) any {
	switch x := value.(type) {
	case nil:
		return def
	case string:
		if strings.TrimSpace(x) == "" {
			return def
		}
	}
	return value
}

var funcs = map[string]any{"default": fallback}

type parsed struct {
	text *texttpl.Template
	html *htmpl.Template
}

// Subject and text files share the text engine; html files get contextual escaping.
func parseAll() (parsed, error) {
	text, err := texttpl.New("text").Funcs(funcs).ParseFS(FS, "*.subject.tmpl", "*.text.tmpl")
	if err != nil {
		return parsed{}, fmt.Errorf("parse text templates: %w", err)
	}
	html, err := htmpl.New("html").Funcs(funcs).ParseFS(FS, "*.html.tmpl")
	if err != nil {
		return parsed{}, fmt.Errorf("parse html templates: %w", err)
	}
	return parsed{text: text, html: html}, nil
}

var loaded = sync.OnceValues(parseAll)

type executor interface {
	ExecuteTemplate(w io.Writer, name string, data any) error
}

func exec(t executor, file string, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, file, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", file, err)
	}
	return buf.String(), nil
}

// Render produces subject, text and html for the named template set.
func Render(name string, data any) (subject, text, html string, err error) {
	if !Known(name) {
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}
	p, err := loaded()
	if err != nil {
		return "", "", "", err
	}
	if subject, err = exec(p.text, name+".subject.tmpl", data); err != nil {
		return "", "", "", err
	}
	if text, err = exec(p.text, name+".text.tmpl", data); err != nil {
		return "", "", "", err
	}
	if html, err = exec(p.html, name+".html.tmpl", data); err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(subject), text, html, nil
}
