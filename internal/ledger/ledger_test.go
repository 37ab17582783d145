package ledger

import (
	"testing"
	"time"

	"github.com/forensic-graph/warehouse/internal/exchange"
)

func parseDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parsing test date %q: %v", s, err)
	}
	return d
}

func TestReplayTransactionsThreeWay(t *testing.T) {
	orders := []exchange.Order{
		// user 1 creates an offer to buy, user 2 accepts: user 1 receives
		// coins, user 2 gives them up.
		{
			User:      1,
			OrderType: exchange.OrderTypeBuy,
			Amount:    10.0,
			Price:     2.0,
			CreatedAt: parseDate(t, "2024-03-01"),
			FilledAt:  parseDate(t, "2024-03-02"),
			Accepter:  2,
		},
		// user 2 creates an offer to sell, user 3 accepts: user 3 receives
		// coins, user 2 gives them up.
		{
			User:      2,
			OrderType: exchange.OrderTypeSell,
			Amount:    5.0,
			Price:     3.0,
			CreatedAt: parseDate(t, "2024-03-05"),
			FilledAt:  parseDate(t, "2024-03-06"),
			Accepter:  3,
		},
		// user 3 creates an offer to buy, user 1 accepts: user 3 receives
		// coins, user 1 gives them up.
		{
			User:      3,
			OrderType: exchange.OrderTypeBuy,
			Amount:    15.0,
			Price:     1.5,
			CreatedAt: parseDate(t, "2024-03-10"),
			FilledAt:  parseDate(t, "2024-03-11"),
			Accepter:  1,
		},
	}

	tracker := NewBalanceTracker()
	tracker.ReplayTransactions(orders)

	user1, ok := tracker.Ledger(1)
	if !ok {
		t.Fatal("expected a ledger for user 1")
	}

	acc, ok := user1.At(parseDate(t, "2024-03-02"))
	if !ok {
		t.Fatal("expected an entry for user 1 on 2024-03-02")
	}
	if acc.CurrentBalance != 10.0 || acc.TotalFunded != 0.0 || acc.TotalOutflows != 0.0 ||
		acc.TotalInflows != 10.0 || acc.DailyFunding != 0.0 || acc.DailyInflows != 10.0 || acc.DailyOutflows != 0.0 {
		t.Errorf("unexpected account state on 2024-03-02: %+v", acc)
	}

	acc, ok = user1.At(parseDate(t, "2024-03-11"))
	if !ok {
		t.Fatal("expected an entry for user 1 on 2024-03-11")
	}
	// balance got drawn negative on the 15-coin sale, clamped to zero with
	// the shortfall recorded as funding.
	if acc.CurrentBalance != 0.0 {
		t.Errorf("expected current balance 0, got %v", acc.CurrentBalance)
	}
	if acc.TotalFunded != 5.0 {
		t.Errorf("expected total funded 5, got %v", acc.TotalFunded)
	}
	if acc.TotalOutflows != 15.0 {
		t.Errorf("expected total outflows 15, got %v", acc.TotalOutflows)
	}
	// all-time inflows unchanged from the prior period
	if acc.TotalInflows != 10.0 {
		t.Errorf("expected total inflows unchanged at 10, got %v", acc.TotalInflows)
	}
	if acc.DailyFunding != 5.0 || acc.DailyInflows != 0.0 || acc.DailyOutflows != 15.0 {
		t.Errorf("unexpected daily figures on 2024-03-11: %+v", acc)
	}

	user3, ok := tracker.Ledger(3)
	if !ok {
		t.Fatal("expected a ledger for user 3")
	}

	acc, ok = user3.At(parseDate(t, "2024-03-06"))
	if !ok {
		t.Fatal("expected an entry for user 3 on 2024-03-06")
	}
	if acc.CurrentBalance != 5.0 || acc.TotalFunded != 0.0 || acc.TotalOutflows != 0.0 ||
		acc.TotalInflows != 5.0 || acc.DailyFunding != 0.0 || acc.DailyInflows != 5.0 || acc.DailyOutflows != 0.0 {
		t.Errorf("unexpected account state on 2024-03-06: %+v", acc)
	}

	acc, ok = user3.At(parseDate(t, "2024-03-11"))
	if !ok {
		t.Fatal("expected an entry for user 3 on 2024-03-11")
	}
	if acc.CurrentBalance != 20.0 {
		t.Errorf("expected current balance 20, got %v", acc.CurrentBalance)
	}
	if acc.TotalFunded != 0.0 || acc.TotalOutflows != 0.0 {
		t.Errorf("expected no funding or outflows for user 3, got %+v", acc)
	}
	if acc.TotalInflows != 20.0 || acc.DailyInflows != 15.0 || acc.DailyOutflows != 0.0 {
		t.Errorf("unexpected daily figures for user 3 on 2024-03-11: %+v", acc)
	}
}

func TestLedgerUnknownUser(t *testing.T) {
	tracker := NewBalanceTracker()
	if _, ok := tracker.Ledger(42); ok {
		t.Error("expected no ledger for a user that never appeared")
	}
}
