package transport

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"text/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	i18ncatalog "github.com/louisbranch/restobot/internal/platform/i18n/catalog"
	"github.com/louisbranch/restobot/internal/services/ordering/app"
	"github.com/louisbranch/restobot/internal/services/ordering/order"
)

const defaultDateTimeLayout = "2006-01-02 15:04"

// RenderedButton is one control as the chat collaborator shows it.
type RenderedButton struct {
	Label    string `json:"label"`
	Callback string `json:"callback"`
}

// Rendered is a view turned into localized text.
type Rendered struct {
	View    string             `json:"view,omitempty"`
	Text    string             `json:"text,omitempty"`
	Buttons [][]RenderedButton `json:"buttons,omitempty"`
}

// Renderer turns app views into localized text using the message catalog.
// Parsed templates are cached per locale and key.
type Renderer struct {
	bundle *i18ncatalog.Bundle
	loc    *time.Location

	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewRenderer builds a renderer. A nil bundle uses the embedded catalog and a
// nil loc renders timestamps in the process zone.
func NewRenderer(bundle *i18ncatalog.Bundle, loc *time.Location) *Renderer {
	if bundle == nil {
		bundle = i18ncatalog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{bundle: bundle, loc: loc, cache: make(map[string]*template.Template)}
}

// ResolveLocale maps a requested locale to one the catalog carries.
func (r *Renderer) ResolveLocale(requested string) string {
	return r.bundle.ResolveLocale(requested)
}

// Render localizes view for locale.
func (r *Renderer) Render(locale string, view app.View) (Rendered, error) {
	locale = r.bundle.ResolveLocale(locale)
	text, err := r.execute(locale, "bot.view."+string(view.Kind), view.Data)
	if err != nil {
		return Rendered{}, err
	}
	out := Rendered{View: string(view.Kind), Text: text}
	for _, buttons := range view.Buttons {
		rendered := make([]RenderedButton, 0, len(buttons))
		for _, b := range buttons {
			data := b.LabelData
			if data == nil {
				data = map[string]any{}
			}
			label, err := r.execute(locale, b.LabelKey, data)
			if err != nil {
				return Rendered{}, err
			}
			rendered = append(rendered, RenderedButton{Label: label, Callback: b.Action.Token()})
		}
		out.Buttons = append(out.Buttons, rendered)
	}
	return out, nil
}

func (r *Renderer) execute(locale, key string, data any) (string, error) {
	tmpl, err := r.template(locale, key)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s/%s: %w", locale, key, err)
	}
	return buf.String(), nil
}

func (r *Renderer) template(locale, key string) (*template.Template, error) {
	cacheKey := locale + "\x00" + key
	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.cache[cacheKey]; ok {
		return tmpl, nil
	}
	source, ok := r.bundle.Message(locale, key)
	if !ok {
		return nil, fmt.Errorf("message %q is not defined for %s", key, locale)
	}
	tmpl, err := template.New(key).Option("missingkey=zero").Funcs(r.funcs(locale)).Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse %s/%s: %w", locale, key, err)
	}
	r.cache[cacheKey] = tmpl
	return tmpl, nil
}

func (r *Renderer) funcs(locale string) template.FuncMap {
	printer := message.NewPrinter(language.Make(locale))
	translate := func(key string) string {
		value, _ := r.bundle.Message(locale, key)
		return value
	}
	layout := translate("core.datetime_layout")
	if layout == "" {
		layout = defaultDateTimeLayout
	}
	return template.FuncMap{
		"t": translate,
		"money": func(amount int64) string {
			return printer.Sprintf("%d", amount)
		},
		"statusLabel": func(status order.Status) string {
			return translate("status." + strings.ToLower(string(status)))
		},
		"filterLabel": func(filter order.Filter) string {
			return translate("status." + filter.String())
		},
		"statusCount": func(counts map[order.Status]int, status order.Status) int {
			return counts[status]
		},
		"datetime": func(t time.Time) string {
			return t.In(r.loc).Format(layout)
		},
		"inc": func(i int) int {
			return i + 1
		},
	}
}
