// Package negotiation implements the scripted price haggling dialogue shown
// next to negotiable products. It is pure and in-memory: a Session is created
// per open dialogue and discarded when the dialogue closes.
package negotiation

import (
	"errors"
	"strings"
)

// ErrNotAccepted is returned by Commit when the last offer was not accepted.
var ErrNotAccepted = errors.New("negotiation: no accepted offer to commit")

type Speaker string

const (
	SpeakerUser   Speaker = "user"
	SpeakerEngine Speaker = "engine"
)

type Entry struct {
	Speaker Speaker
	Text    string
}

// Reply is the engine's answer to one submitted message.
type Reply struct {
	Outcome        Kind
	Text           string
	Offer          *int
	Accepted       bool
	Discount       int
	CounterOffer   int
	SuggestedOffer int
}

// Deal is the accepted price handed to the cart.
type Deal struct {
	FinalPrice      int
	DiscountPercent int
}

// Session is one dialogue. It is not safe for concurrent use.
type Session struct {
	ListedPrice        int
	MinAcceptablePrice int
	ProductName        string
	Unit               string
	Language           Language
	Transcript         []Entry
	LastOffer          *int
	OfferAccepted      bool

	catalog *Catalog
}

// Start opens a dialogue using the embedded catalog.
func Start(listedPrice int, productName, unit string, lang Language) *Session {
	return DefaultCatalog().Start(listedPrice, productName, unit, lang)
}

// Start opens a dialogue and emits the welcome message. Inputs are coerced
// rather than rejected: negative prices become 0, blank names and units use
// the language defaults, unknown languages become English.
func (c *Catalog) Start(listedPrice int, productName, unit string, lang Language) *Session {
	if listedPrice < 0 {
		listedPrice = 0
	}
	s := &Session{
		ListedPrice:        listedPrice,
		MinAcceptablePrice: MinAcceptablePrice(listedPrice),
		ProductName:        strings.TrimSpace(productName),
		Unit:               strings.TrimSpace(unit),
		Language:           ParseLanguage(string(lang)),
		catalog:            c,
	}
	s.say(c.Render(s.Language, KindWelcome, s.values()))
	return s
}

// SetLanguage switches the language of subsequent engine messages.
func (s *Session) SetLanguage(lang Language) {
	s.Language = ParseLanguage(string(lang))
}

// SubmitOffer records the user's message, classifies the offer found in it
// and appends the engine's answer. The last offer always wins: a later
// offer outside the acceptable band clears an earlier acceptance.
func (s *Session) SubmitOffer(raw string) Reply {
	s.Transcript = append(s.Transcript, Entry{Speaker: SpeakerUser, Text: raw})

	v := s.values()
	offer, ok := ExtractOffer(raw)
	if !ok {
		s.LastOffer = nil
		s.OfferAccepted = false
		v.Suggested = SuggestedOffer(s.ListedPrice)
		text := s.catalog.Render(s.Language, KindNoOffer, v)
		s.say(text)
		return Reply{Outcome: KindNoOffer, Text: text}
	}

	d := Classify(s.ListedPrice, offer)
	s.LastOffer = &offer
	s.OfferAccepted = d.Accepted

	v.Offer = offer
	v.Discount = d.Discount
	v.Counter = d.Counter
	v.Suggested = d.Suggested
	text := s.catalog.Render(s.Language, d.Kind, v)
	s.say(text)

	accepted := offer
	return Reply{
		Outcome:        d.Kind,
		Text:           text,
		Offer:          &accepted,
		Accepted:       d.Accepted,
		Discount:       d.Discount,
		CounterOffer:   d.Counter,
		SuggestedOffer: d.Suggested,
	}
}

// Commit returns the accepted price. The counter offer is never applied.
func (s *Session) Commit() (Deal, error) {
	if !s.OfferAccepted || s.LastOffer == nil {
		return Deal{}, ErrNotAccepted
	}
	return Deal{
		FinalPrice:      *s.LastOffer,
		DiscountPercent: DiscountPercent(s.ListedPrice, *s.LastOffer),
	}, nil
}

func (s *Session) say(text string) {
	s.Transcript = append(s.Transcript, Entry{Speaker: SpeakerEngine, Text: text})
}

func (s *Session) values() Values {
	return Values{
		Product:  s.ProductName,
		Unit:     s.Unit,
		Currency: s.catalog.Currency(),
		Price:    s.ListedPrice,
	}
}
