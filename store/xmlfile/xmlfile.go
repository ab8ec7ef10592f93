/*
Package xmlfile provides the XML-document-backed CardStore.

PURPOSE:
  Persists the full card set as one XML document with a BonusCards root
  holding BonusCard records. This is the program's canonical interchange
  format: balances serialize with two decimals, registration dates at
  day granularity, and the active flag as the literals "True"/"False".

FULL-REWRITE SEMANTICS:
  Every Save upserts one record and rewrites the whole document. Writes
  are atomic: the document is written to a temp file and renamed over
  the original, so a crash mid-write never corrupts the store.

FAILURE SEMANTICS:
  - Missing file on open: empty store, not an error
  - Malformed individual record: logged and dropped, loading continues
  - Write failure: *loyalty.StorageError, no partial-write recovery

RECORD FORMAT:
  <BonusCards>
    <BonusCard>
      <CardNumber>1234567890123456</CardNumber>
      <ClientName>Anna Petrova</ClientName>
      <PhoneNumber>+375445123443</PhoneNumber>
      <Balance>150.00</Balance>
      <RegistrationDate>2026-09-01</RegistrationDate>
      <IsActive>True</IsActive>
    </BonusCard>
  </BonusCards>

SEE ALSO:
  - loyalty/store.go: CardStore contract
  - store/sqlite: Swap-in backing with the same contract
*/
package xmlfile

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/loyalty-engine/loyalty"
)

const dateLayout = "2006-01-02"

// Store implements loyalty.CardStore over a single XML document file.
type Store struct {
	path string
	log  *zap.Logger

	mu    sync.RWMutex
	cards map[string]loyalty.Card
	order []string // insertion order of card numbers, stable across rewrites
}

// New opens the store at path, loading the document if it exists. A
// missing file yields an empty store.
func New(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		path:  path,
		log:   log,
		cards: make(map[string]loyalty.Card),
	}
	if err := s.loadFile(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close is a no-op; the file is rewritten on every save and holds no
// open handles between operations.
func (s *Store) Close() error { return nil }

// =============================================================================
// DOCUMENT MODEL
// =============================================================================

type document struct {
	XMLName xml.Name `xml:"BonusCards"`
	Cards   []record `xml:"BonusCard"`
}

type record struct {
	CardNumber       string `xml:"CardNumber"`
	ClientName       string `xml:"ClientName"`
	PhoneNumber      string `xml:"PhoneNumber"`
	Balance          string `xml:"Balance"`
	RegistrationDate string `xml:"RegistrationDate"`
	IsActive         string `xml:"IsActive"`
}

func toRecord(c loyalty.Card) record {
	active := "False"
	if c.Active {
		active = "True"
	}
	return record{
		CardNumber:       c.Number,
		ClientName:       c.ClientName,
		PhoneNumber:      c.Phone,
		Balance:          c.Balance.StringFixed(2),
		RegistrationDate: c.RegisteredAt.Format(dateLayout),
		IsActive:         active,
	}
}

func fromRecord(r record) (loyalty.Card, error) {
	if !loyalty.ValidCardNumber(r.CardNumber) {
		return loyalty.Card{}, fmt.Errorf("bad card number %q", r.CardNumber)
	}
	balance, err := decimal.NewFromString(r.Balance)
	if err != nil {
		return loyalty.Card{}, fmt.Errorf("bad balance %q: %w", r.Balance, err)
	}
	if balance.IsNegative() {
		return loyalty.Card{}, fmt.Errorf("negative balance %q", r.Balance)
	}
	registered, err := time.Parse(dateLayout, r.RegistrationDate)
	if err != nil {
		return loyalty.Card{}, fmt.Errorf("bad registration date %q: %w", r.RegistrationDate, err)
	}
	var active bool
	switch r.IsActive {
	case "True":
		active = true
	case "False":
		active = false
	default:
		return loyalty.Card{}, fmt.Errorf("bad active flag %q", r.IsActive)
	}
	return loyalty.Card{
		Number:       r.CardNumber,
		ClientName:   r.ClientName,
		Phone:        r.PhoneNumber,
		Balance:      balance,
		RegisteredAt: registered,
		Active:       active,
	}, nil
}

// =============================================================================
// CARDSTORE CONTRACT
// =============================================================================

// Load returns independent copies of every card in document order.
func (s *Store) Load(_ context.Context) ([]*loyalty.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*loyalty.Card, 0, len(s.order))
	for _, n := range s.order {
		c := s.cards[n]
		out = append(out, &c)
	}
	return out, nil
}

// Save upserts by card number and rewrites the document.
func (s *Store) Save(_ context.Context, card *loyalty.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cards[card.Number]; !exists {
		s.order = append(s.order, card.Number)
	}
	s.cards[card.Number] = *card
	return s.writeFile()
}

// SaveAll replaces every record wholesale and rewrites the document.
func (s *Store) SaveAll(_ context.Context, cards []*loyalty.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards = make(map[string]loyalty.Card, len(cards))
	s.order = s.order[:0]
	for _, c := range cards {
		if _, exists := s.cards[c.Number]; !exists {
			s.order = append(s.order, c.Number)
		}
		s.cards[c.Number] = *c
	}
	return s.writeFile()
}

// FindByNumber returns the persisted card or loyalty.ErrCardNotFound.
func (s *Store) FindByNumber(_ context.Context, number string) (*loyalty.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cards[number]
	if !ok {
		return nil, loyalty.ErrCardNotFound
	}
	return &c, nil
}

// ActiveCardNumbers returns the numbers of active cards, sorted.
func (s *Store) ActiveCardNumbers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for n, c := range s.cards {
		if c.Active {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out, nil
}

// =============================================================================
// FILE I/O
// =============================================================================

func (s *Store) loadFile() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil // empty store
	}
	if err != nil {
		return &loyalty.StorageError{Op: "load", Path: s.path, Err: err}
	}

	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return &loyalty.StorageError{Op: "load", Path: s.path, Err: err}
	}

	for _, r := range doc.Cards {
		card, err := fromRecord(r)
		if err != nil {
			s.log.Warn("skipping malformed card record",
				zap.String("path", s.path),
				zap.Error(err))
			continue
		}
		if _, exists := s.cards[card.Number]; !exists {
			s.order = append(s.order, card.Number)
		}
		s.cards[card.Number] = card
	}
	return nil
}

// writeFile rewrites the whole document atomically. Callers hold s.mu.
func (s *Store) writeFile() error {
	doc := document{Cards: make([]record, 0, len(s.order))}
	for _, n := range s.order {
		doc.Cards = append(doc.Cards, toRecord(s.cards[n]))
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &loyalty.StorageError{Op: "save", Path: s.path, Err: err}
	}
	data = append([]byte(xml.Header), data...)

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &loyalty.StorageError{Op: "save", Path: s.path, Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return &loyalty.StorageError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

var _ loyalty.CardStore = (*Store)(nil)
