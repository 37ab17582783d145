package rms

import (
	"testing"
	"time"

	"github.com/forensic-graph/warehouse/internal/exchange"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parsing test timestamp %q: %v", s, err)
	}
	return ts
}

func TestIncludeRMSStatsPipeline(t *testing.T) {
	swaps := []exchange.Order{
		// first trade, 2024-05-05 8pm
		{
			User: 1, Accepter: 2,
			FilledAt:  mustParse(t, "2024-05-05T20:02:00Z"),
			CreatedAt: mustParse(t, "2024-05-01T05:46:13.508Z"),
			Amount:    40000.0, Price: 100.0, OrderType: exchange.OrderTypeBuy,
		},
		// less than 24h later, next day 8am
		{
			User: 1, Accepter: 2,
			FilledAt:  mustParse(t, "2024-05-06T08:01:00Z"),
			CreatedAt: mustParse(t, "2024-05-01T05:46:13.508Z"),
			Amount:    40000.0, Price: 4.0, OrderType: exchange.OrderTypeBuy,
		},
		// less than an hour after that
		{
			User: 1, Accepter: 2,
			FilledAt:  mustParse(t, "2024-05-06T09:00:00Z"),
			CreatedAt: mustParse(t, "2024-05-01T05:46:13.508Z"),
			Amount:    40000.0, Price: 4.0, OrderType: exchange.OrderTypeBuy,
		},
		// same instant, different traders
		{
			User: 300, Accepter: 400,
			FilledAt:  mustParse(t, "2024-05-06T09:00:00Z"),
			CreatedAt: mustParse(t, "2024-05-01T03:46:13.508Z"),
			Amount:    25000.0, Price: 32.0, OrderType: exchange.OrderTypeSell,
		},
	}

	IncludeRMSStats(swaps)

	if swaps[0].RMSHour != 0.0 || swaps[0].RMS24Hour != 0.0 {
		t.Errorf("first trade should have no prior window: %+v", swaps[0])
	}
	if swaps[1].RMSHour != 0.0 || swaps[1].RMS24Hour != 0.0 {
		t.Errorf("second trade shares both participants with the first: %+v", swaps[1])
	}
	if swaps[2].RMSHour != 0.0 || swaps[2].RMS24Hour != 0.0 {
		t.Errorf("third trade shares both participants with the first two: %+v", swaps[2])
	}
	if swaps[3].RMSHour != 4.0 {
		t.Errorf("expected rms_hour 4.0 for the fourth trade, got %v", swaps[3].RMSHour)
	}
	if !(swaps[3].RMS24Hour > 57.0 && swaps[3].RMS24Hour < 58.0) {
		t.Errorf("expected rms_24hour in (57, 58), got %v", swaps[3].RMS24Hour)
	}

	ProcessShill(swaps)
}

func TestGetCompetingOffersWithinAmountLowerPrice(t *testing.T) {
	current := exchange.Order{
		User: 1, Accepter: 2, OrderType: exchange.OrderTypeSell,
		Amount: 100, Price: 10,
		CreatedAt: mustParse(t, "2024-01-01T00:00:00Z"),
		FilledAt:  mustParse(t, "2024-01-02T00:00:00Z"),
	}
	all := []exchange.Order{
		current,
		{
			User: 3, Accepter: 4, OrderType: exchange.OrderTypeSell,
			Amount: 50, Price: 5,
			CreatedAt: mustParse(t, "2024-01-01T12:00:00Z"),
			FilledAt:  mustParse(t, "2024-01-03T00:00:00Z"),
		},
	}

	comp := GetCompetingOffers(current, all)
	if comp.OpenSameType != 1 || comp.WithinAmount != 1 || comp.WithinAmountLowerPrice != 1 {
		t.Errorf("unexpected competing offer counts: %+v", comp)
	}
}

func TestProcessShillFlagsAccepterOnSellUndercut(t *testing.T) {
	orders := []exchange.Order{
		// a cheaper sell offer was open and still unfilled when this one
		// filled, so the accepter paid more than they had to.
		{
			User: 9, Accepter: 10, OrderType: exchange.OrderTypeSell,
			Amount: 100, Price: 10,
			CreatedAt: mustParse(t, "2024-02-01T00:00:00Z"),
			FilledAt:  mustParse(t, "2024-02-02T00:00:00Z"),
		},
		{
			User: 11, Accepter: 12, OrderType: exchange.OrderTypeSell,
			Amount: 50, Price: 5,
			CreatedAt: mustParse(t, "2024-02-01T12:00:00Z"),
			FilledAt:  mustParse(t, "2024-02-03T00:00:00Z"),
		},
	}

	ProcessShill(orders)

	if !orders[0].AccepterShillUp {
		t.Errorf("expected the first order's accepter to be flagged as shilling up, got %+v", orders[0])
	}
	if orders[1].AccepterShillUp || orders[1].AccepterShillDown {
		t.Errorf("second order filled after the first, should have no competing offers yet: %+v", orders[1])
	}
}
