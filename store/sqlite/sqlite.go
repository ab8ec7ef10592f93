/*
Package sqlite provides a SQLite-backed implementation of the CardStore.

PURPOSE:
  Swap-in alternative to the XML document store for installations that
  outgrow a flat file. Same contract, same failure semantics: the domain
  logic never notices the difference.

SCHEMA:
  cards(number PRIMARY KEY, client_name, phone, balance TEXT,
        registered_at TEXT, active INTEGER)

  Balance is stored as its two-decimal string form so round-trips match
  the XML store exactly; registered_at is stored at day granularity.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.
  WAL mode is enabled for better reader concurrency.

USAGE:
  store, err := sqlite.New("./cards.db", logger)
  Use ":memory:" for an in-memory database in tests.

SEE ALSO:
  - loyalty/store.go: Interface definition
  - store/xmlfile: The primary document-file backing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/loyalty-engine/loyalty"
)

const dateLayout = "2006-01-02"

// Store implements loyalty.CardStore using SQLite.
type Store struct {
	db   *sql.DB
	path string
	log  *zap.Logger
	mu   sync.RWMutex
}

// New creates a SQLite store at the given database path and migrates
// the schema. Use ":memory:" for an in-memory database.
func New(dbPath string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, &loyalty.StorageError{Op: "open", Path: dbPath, Err: err}
	}

	s := &Store{db: db, path: dbPath, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, &loyalty.StorageError{Op: "migrate", Path: dbPath, Err: err}
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cards (
		number        TEXT PRIMARY KEY,
		client_name   TEXT NOT NULL,
		phone         TEXT NOT NULL,
		balance       TEXT NOT NULL,
		registered_at TEXT NOT NULL,
		active        INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cards_active ON cards(active);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CARDSTORE CONTRACT
// =============================================================================

// Load returns every card ordered by number. Malformed rows are logged
// and dropped, matching the document store's partial-failure tolerance.
func (s *Store) Load(ctx context.Context) ([]*loyalty.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT number, client_name, phone, balance, registered_at, active
		 FROM cards ORDER BY number`)
	if err != nil {
		return nil, &loyalty.StorageError{Op: "load", Path: s.path, Err: err}
	}
	defer rows.Close()

	var out []*loyalty.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			s.log.Warn("skipping malformed card row", zap.Error(err))
			continue
		}
		out = append(out, card)
	}
	if err := rows.Err(); err != nil {
		return nil, &loyalty.StorageError{Op: "load", Path: s.path, Err: err}
	}
	return out, nil
}

// Save upserts one card by number.
func (s *Store) Save(ctx context.Context, card *loyalty.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsert(ctx, s.db, card)
}

// SaveAll replaces the whole card set in one transaction.
func (s *Store) SaveAll(ctx context.Context, cards []*loyalty.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &loyalty.StorageError{Op: "save", Path: s.path, Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cards`); err != nil {
		return &loyalty.StorageError{Op: "save", Path: s.path, Err: err}
	}
	for _, c := range cards {
		if err := s.upsert(ctx, tx, c); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return &loyalty.StorageError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

// FindByNumber returns the persisted card or loyalty.ErrCardNotFound.
func (s *Store) FindByNumber(ctx context.Context, number string) (*loyalty.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT number, client_name, phone, balance, registered_at, active
		 FROM cards WHERE number = ?`, number)

	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, loyalty.ErrCardNotFound
	}
	if err != nil {
		return nil, &loyalty.StorageError{Op: "load", Path: s.path, Err: err}
	}
	return card, nil
}

// ActiveCardNumbers returns the numbers of active cards, sorted.
func (s *Store) ActiveCardNumbers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT number FROM cards WHERE active = 1 ORDER BY number`)
	if err != nil {
		return nil, &loyalty.StorageError{Op: "load", Path: s.path, Err: err}
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, &loyalty.StorageError{Op: "load", Path: s.path, Err: err}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) upsert(ctx context.Context, db execer, card *loyalty.Card) error {
	active := 0
	if card.Active {
		active = 1
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO cards (number, client_name, phone, balance, registered_at, active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(number) DO UPDATE SET
			client_name = excluded.client_name,
			phone = excluded.phone,
			balance = excluded.balance,
			registered_at = excluded.registered_at,
			active = excluded.active`,
		card.Number, card.ClientName, card.Phone,
		card.Balance.StringFixed(2),
		card.RegisteredAt.Format(dateLayout),
		active)
	if err != nil {
		return &loyalty.StorageError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(row scanner) (*loyalty.Card, error) {
	var (
		c          loyalty.Card
		balance    string
		registered string
		active     int
	)
	if err := row.Scan(&c.Number, &c.ClientName, &c.Phone, &balance, &registered, &active); err != nil {
		return nil, err
	}

	b, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, err
	}
	at, err := time.Parse(dateLayout, registered)
	if err != nil {
		return nil, err
	}

	c.Balance = b
	c.RegisteredAt = at
	c.Active = active != 0
	return &c, nil
}

var _ loyalty.CardStore = (*Store)(nil)
