package negotiation

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Kind identifies a message in the catalog. Every engine reply has one.
type Kind string

const (
	KindWelcome   Kind = "welcome"
	KindNoOffer   Kind = "no_offer"
	KindTooLow    Kind = "too_low"
	KindExcellent Kind = "excellent"
	KindGood      Kind = "good"
	KindCounter   Kind = "counter"
	KindAccepted  Kind = "accepted"
	KindFullPrice Kind = "full_price"
)

// Kinds lists every message kind a language must define.
var Kinds = []Kind{
	KindWelcome, KindNoOffer, KindTooLow, KindExcellent,
	KindGood, KindCounter, KindAccepted, KindFullPrice,
}

//go:embed messages.yaml
var defaultMessages []byte

// Values are interpolated into message templates.
type Values struct {
	Product   string
	Unit      string
	Currency  string
	Price     int
	Offer     int
	Discount  int
	Counter   int
	Suggested int
}

type bundle struct {
	Currency  string                      `yaml:"currency"`
	Languages map[Language]languageBundle `yaml:"languages"`
}

type languageBundle struct {
	Defaults struct {
		Product string `yaml:"product"`
		Unit    string `yaml:"unit"`
	} `yaml:"defaults"`
	Messages map[Kind]string `yaml:"messages"`
}

// Catalog is an immutable (language, kind) -> template lookup table.
// It is safe for concurrent use.
type Catalog struct {
	currency  string
	products  map[Language]string
	units     map[Language]string
	templates map[Language]map[Kind]*template.Template
}

// LoadCatalog parses a YAML message bundle. It fails if any supported
// language lacks any message kind or a template does not parse.
func LoadCatalog(data []byte) (*Catalog, error) {
	var b bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse message bundle: %w", err)
	}

	c := &Catalog{
		currency:  b.Currency,
		products:  make(map[Language]string, len(Languages)),
		units:     make(map[Language]string, len(Languages)),
		templates: make(map[Language]map[Kind]*template.Template, len(Languages)),
	}

	for _, lang := range Languages {
		lb, ok := b.Languages[lang]
		if !ok {
			return nil, fmt.Errorf("message bundle: missing language %q", lang)
		}
		c.products[lang] = lb.Defaults.Product
		c.units[lang] = lb.Defaults.Unit

		c.templates[lang] = make(map[Kind]*template.Template, len(Kinds))
		for _, kind := range Kinds {
			src, ok := lb.Messages[kind]
			if !ok || strings.TrimSpace(src) == "" {
				return nil, fmt.Errorf("message bundle: %s has no %q message", lang, kind)
			}
			tmpl, err := template.New(string(lang) + "." + string(kind)).Option("missingkey=error").Parse(src)
			if err != nil {
				return nil, fmt.Errorf("message bundle: %s.%s: %w", lang, kind, err)
			}
			c.templates[lang][kind] = tmpl
		}
	}

	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// DefaultCatalog returns the catalog built from the embedded messages.yaml.
func DefaultCatalog() *Catalog {
	defaultOnce.Do(func() {
		c, err := LoadCatalog(defaultMessages)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Currency is the currency label used in every message.
func (c *Catalog) Currency() string {
	return c.currency
}

// DefaultProduct is the product noun used when a session has no name.
func (c *Catalog) DefaultProduct(lang Language) string {
	return c.products[ParseLanguage(string(lang))]
}

// DefaultUnit is the unit noun used when a session has no unit.
func (c *Catalog) DefaultUnit(lang Language) string {
	return c.units[ParseLanguage(string(lang))]
}

// Render produces the text for one message. Blank product and unit values
// are replaced with the language's defaults.
func (c *Catalog) Render(lang Language, kind Kind, v Values) string {
	lang = ParseLanguage(string(lang))
	tmpl, ok := c.templates[lang][kind]
	if !ok {
		return string(kind)
	}

	if strings.TrimSpace(v.Product) == "" {
		v.Product = c.products[lang]
	}
	if strings.TrimSpace(v.Unit) == "" {
		v.Unit = c.units[lang]
	}
	if v.Currency == "" {
		v.Currency = c.currency
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, v); err != nil {
		return tmpl.Root.String()
	}
	return sb.String()
}
