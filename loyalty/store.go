/*
store.go - Persistence interface for the card set

PURPOSE:
  Defines the interface between the domain logic and the durable card
  set. Different implementations can use an XML document file, SQLite,
  or in-memory storage; domain logic never touches the backing directly.

OWNERSHIP:
  A CardStore exclusively owns its durable representation. Cards it
  returns are independent copies: mutating a returned Card persists
  nothing until Save is called explicitly. There is no write-through.

FAILURE SEMANTICS:
  - Load with no backing file present yields an empty set, not an error
  - Malformed individual records are logged and dropped; a load never
    aborts for one bad record
  - Write failures surface as *StorageError; no partial-write recovery

IMPLEMENTATIONS:
  - store/xmlfile: XML document, full rewrite on every save
  - store/sqlite:  SQLite backing with the same contract
  - loyalty/store: In-memory implementation for tests

SEE ALSO:
  - registry.go: The only production caller of this interface
*/
package loyalty

import "context"

// CardStore is the durable mapping of card number to Card.
type CardStore interface {
	// Load reads the full card set. An absent backing file yields an
	// empty set. Malformed records are skipped with a warning.
	Load(ctx context.Context) ([]*Card, error)

	// Save upserts one card by number and persists the entire backing
	// store immediately. No write batching.
	Save(ctx context.Context, card *Card) error

	// SaveAll replaces every card record wholesale.
	SaveAll(ctx context.Context, cards []*Card) error

	// FindByNumber returns the persisted record for a number, or
	// ErrCardNotFound.
	FindByNumber(ctx context.Context, number string) (*Card, error)

	// ActiveCardNumbers returns the numbers of active cards only.
	ActiveCardNumbers(ctx context.Context) ([]string, error)

	// Close releases the backing resources.
	Close() error
}
