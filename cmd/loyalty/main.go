/*
main.go - Interactive console front end for the loyalty program

PURPOSE:
  Text-menu loop over the loyalty core: register cards, accrue bonuses
  on purchases, deduct bonuses, view balances, and write per-card
  statements to text files. All domain decisions live in the core; this
  layer only prompts, validates input, and prints.

USAGE:
  loyalty [-f bonus_cards.xml]

SEE ALSO:
  - cmd/server: HTTP front end over the same core
*/
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/loyalty-engine/loyalty"
	"github.com/warp/loyalty-engine/store/xmlfile"
)

func main() {
	cardsFile := flag.String("f", "bonus_cards.xml", "path to the XML card file")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cardStore, err := xmlfile.New(*cardsFile, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open card file: %v\n", err)
		os.Exit(1)
	}
	defer cardStore.Close()

	registry := loyalty.NewRegistry(cardStore, loyalty.NewOperationHistory(), logger)
	registry.OnOperation(func(kind loyalty.OperationKind, cardNumber string, amount decimal.Decimal) {
		fmt.Printf("[log] %s of %s bonuses on card %s\n", kind, amount.StringFixed(2), cardNumber)
	})
	registry.OnCardRegistered(func(card *loyalty.Card) {
		fmt.Printf("[welcome] Welcome to the loyalty program, %s!\n", card.ClientName)
		fmt.Printf("Your card #%s is registered.\n", card.Number)
	})

	app := &app{registry: registry, in: bufio.NewScanner(os.Stdin)}
	app.run()
}

type app struct {
	registry *loyalty.Registry
	in       *bufio.Scanner
}

func (a *app) run() {
	ctx := context.Background()
	for {
		fmt.Println("\n=== Loyalty program ===")
		fmt.Println("1. Register a new card")
		fmt.Println("2. Process a purchase")
		fmt.Println("3. Deduct bonuses")
		fmt.Println("4. View card balance")
		fmt.Println("5. Write a card statement")
		fmt.Println("6. List all cards")
		fmt.Println("0. Exit")

		switch a.prompt("Choose an option: ") {
		case "1":
			a.registerCard(ctx)
		case "2":
			a.processPurchase(ctx)
		case "3":
			a.deductBonuses(ctx)
		case "4":
			a.viewBalance(ctx)
		case "5":
			a.writeStatement(ctx)
		case "6":
			a.listCards(ctx)
		case "0":
			fmt.Println("Bye.")
			return
		default:
			fmt.Println("Unknown option.")
		}
	}
}

func (a *app) registerCard(ctx context.Context) {
	fmt.Println("\n=== Register a new card ===")

	number := loyalty.GenerateCardNumber()
	fmt.Printf("Generated card number: %s\n", number)

	name := a.prompt("Client name: ")
	if !loyalty.ValidClientName(name) {
		fmt.Println("Error: name must be at least two letters (letters, spaces, hyphens, apostrophes).")
		return
	}

	phone := loyalty.FormatPhone(a.prompt("Phone (+ and 12 digits): "))
	if !loyalty.ValidPhone(phone) {
		fmt.Println("Error: invalid phone number.")
		return
	}

	if _, err := a.registry.RegisterCard(ctx, number, name, phone); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

func (a *app) processPurchase(ctx context.Context) {
	fmt.Println("\n=== Process a purchase ===")

	number := a.promptCardNumber()
	if number == "" {
		return
	}
	amount, ok := a.promptAmount("Purchase amount: ")
	if !ok {
		return
	}

	op, err := a.registry.ProcessPurchase(ctx, number, amount, "purchase")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if op.IsZero() {
		fmt.Println("Card is inactive: no bonuses accrued.")
		return
	}
	fmt.Printf("Accrued %s bonuses. Balance: %s\n",
		op.Amount.StringFixed(2), op.BalanceAfter.StringFixed(2))
}

func (a *app) deductBonuses(ctx context.Context) {
	fmt.Println("\n=== Deduct bonuses ===")

	number := a.promptCardNumber()
	if number == "" {
		return
	}
	amount, ok := a.promptAmount("Bonuses to deduct: ")
	if !ok {
		return
	}

	op, err := a.registry.DeductBonuses(ctx, number, amount, "deduction")
	if errors.Is(err, loyalty.ErrDeductionRefused) {
		fmt.Println("Deduction refused: insufficient balance, balance below the minimum, or inactive card.")
		return
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Deducted %s bonuses. Balance: %s\n",
		op.Amount.StringFixed(2), op.BalanceAfter.StringFixed(2))
}

func (a *app) viewBalance(ctx context.Context) {
	fmt.Println("\n=== Card balance ===")

	number := a.promptCardNumber()
	if number == "" {
		return
	}
	card, err := a.registry.Card(ctx, number)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("\n" + card.Describe())
}

func (a *app) writeStatement(ctx context.Context) {
	fmt.Println("\n=== Card statement ===")

	number := a.promptCardNumber()
	if number == "" {
		return
	}

	from, ok := a.promptDate("Start date (YYYY-MM-DD): ")
	if !ok {
		return
	}
	to, ok := a.promptDate("End date (YYYY-MM-DD): ")
	if !ok {
		return
	}
	// Inclusive end of day.
	to = to.Add(24*time.Hour - time.Nanosecond)

	text, _, err := a.registry.Statement(ctx, number, from, to)
	if errors.Is(err, loyalty.ErrNoOperations) {
		fmt.Println("No operations in the requested period.")
		return
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fileName := a.prompt("File name for the statement (empty for default): ")
	if fileName == "" {
		fileName = fmt.Sprintf("report_%s_%s.txt", number, time.Now().Format("20060102"))
	}
	if !strings.HasSuffix(fileName, ".txt") {
		fileName += ".txt"
	}

	if err := os.WriteFile(fileName, []byte(text), 0o644); err != nil {
		fmt.Printf("Error writing statement: %v\n", err)
		return
	}
	fmt.Printf("Statement written to %s\n", fileName)
}

func (a *app) listCards(ctx context.Context) {
	fmt.Println("\n=== All cards ===")

	cards, err := a.registry.Cards(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(cards) == 0 {
		fmt.Println("No cards registered yet.")
		return
	}
	for _, c := range cards {
		fmt.Println("\n" + c.Describe())
	}
}

// =============================================================================
// PROMPT HELPERS
// =============================================================================

func (a *app) prompt(label string) string {
	fmt.Print(label)
	if !a.in.Scan() {
		return ""
	}
	return strings.TrimSpace(a.in.Text())
}

func (a *app) promptCardNumber() string {
	number := a.prompt("Card number: ")
	if !loyalty.ValidCardNumber(number) {
		fmt.Println("Error: card number must be 16 digits.")
		return ""
	}
	return number
}

func (a *app) promptAmount(label string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(a.prompt(label))
	if err != nil || !amount.IsPositive() {
		fmt.Println("Error: amount must be a positive number.")
		return decimal.Zero, false
	}
	return amount, true
}

func (a *app) promptDate(label string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", a.prompt(label))
	if err != nil {
		fmt.Println("Error: invalid date.")
		return time.Time{}, false
	}
	return t, true
}
