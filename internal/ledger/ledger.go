// Package ledger replays filled exchange orders chronologically into a
// per-user running balance, tracking cumulative inflows, outflows, and any
// funding shortfall a user needed to cover a sale beyond their balance.
package ledger

import (
	"sort"
	"time"

	"github.com/forensic-graph/warehouse/internal/exchange"
)

// AccountData is one day's (or one event's) rolled-up balance and flow
// figures for a single user.
type AccountData struct {
	CurrentBalance float64
	TotalFunded    float64
	TotalOutflows  float64
	TotalInflows   float64
	DailyFunding   float64
	DailyInflows   float64
	DailyOutflows  float64
}

// UserLedger is one user's balance history, indexed by event timestamp and
// kept in chronological order.
type UserLedger struct {
	order []time.Time
	byDate map[time.Time]AccountData
}

func newUserLedger() *UserLedger {
	return &UserLedger{byDate: make(map[time.Time]AccountData)}
}

// At returns the account data recorded at exactly t, if any.
func (u *UserLedger) At(t time.Time) (AccountData, bool) {
	d, ok := u.byDate[t]
	return d, ok
}

// Dates returns every recorded timestamp in chronological order.
func (u *UserLedger) Dates() []time.Time {
	return u.order
}

func (u *UserLedger) mostRecentBefore(date time.Time) (time.Time, bool) {
	var best time.Time
	found := false
	for _, d := range u.order {
		if d.After(date) {
			break
		}
		best = d
		found = true
	}
	return best, found
}

func (u *UserLedger) set(date time.Time, data AccountData) {
	if _, exists := u.byDate[date]; !exists {
		u.order = append(u.order, date)
		sort.SliceStable(u.order, func(i, j int) bool { return u.order[i].Before(u.order[j]) })
	}
	u.byDate[date] = data
}

// BalanceTracker replays a set of orders into one UserLedger per user ID.
type BalanceTracker struct {
	users map[uint32]*UserLedger
}

// NewBalanceTracker returns an empty tracker.
func NewBalanceTracker() *BalanceTracker {
	return &BalanceTracker{users: make(map[uint32]*UserLedger)}
}

// Ledger returns the ledger for a user, or nil if the user never appeared.
func (b *BalanceTracker) Ledger(userID uint32) (*UserLedger, bool) {
	u, ok := b.users[userID]
	return u, ok
}

func (b *BalanceTracker) ledger(userID uint32) *UserLedger {
	u, ok := b.users[userID]
	if !ok {
		u = newUserLedger()
		b.users[userID] = u
	}
	return u
}

// UserIDs returns every user ID the tracker has a ledger for.
func (b *BalanceTracker) UserIDs() []uint32 {
	ids := make([]uint32, 0, len(b.users))
	for id := range b.users {
		ids = append(ids, id)
	}
	sort.SliceStable(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ReplayTransactions sorts orders by FilledAt and folds each into the
// tracker in order. The input slice is sorted in place.
func (b *BalanceTracker) ReplayTransactions(orders []exchange.Order) {
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].FilledAt.Before(orders[j].FilledAt) })
	for _, o := range orders {
		b.processTransaction(o)
	}
}

func (b *BalanceTracker) processTransaction(o exchange.Order) {
	date := o.FilledAt
	switch o.OrderType {
	case exchange.OrderTypeBuy:
		// the order's User buys coins (pays, here modeled as a credit of
		// the traded amount) and the Accepter sells (a debit).
		b.updateBalanceAndFlows(o.User, date, o.Amount, true)
		b.updateBalanceAndFlows(o.Accepter, date, o.Amount, false)
	case exchange.OrderTypeSell:
		// the order's User sells (debit) and the Accepter buys (credit).
		b.updateBalanceAndFlows(o.Accepter, date, o.Amount, true)
		b.updateBalanceAndFlows(o.User, date, o.Amount, false)
	}
}

func (b *BalanceTracker) updateBalanceAndFlows(userID uint32, date time.Time, amount float64, credit bool) {
	u := b.ledger(userID)
	hasHistory := len(u.order) > 0

	mostRecent, found := u.mostRecentBefore(date)
	if found && mostRecent.After(date) {
		// should be unreachable given mostRecentBefore's contract; kept as
		// a defensive no-op matching the upstream loader's own guard.
		return
	}

	var previous AccountData
	if found {
		previous = u.byDate[mostRecent]
	}

	sameDayAsPrevious := found && mostRecent.Equal(date)

	// Only the running totals roll forward onto a new date; the daily
	// figures start from zero unless this event shares the previous date.
	today := AccountData{
		CurrentBalance: previous.CurrentBalance,
		TotalFunded:    previous.TotalFunded,
		TotalOutflows:  previous.TotalOutflows,
		TotalInflows:   previous.TotalInflows,
	}
	if sameDayAsPrevious {
		today = previous
	}
	if !hasHistory {
		today = AccountData{}
	}

	if credit {
		today.CurrentBalance += amount
		today.TotalInflows += amount
		if sameDayAsPrevious {
			today.DailyInflows = previous.DailyInflows + amount
		} else {
			today.DailyInflows = amount
		}
	} else {
		today.CurrentBalance -= amount
		today.TotalOutflows += amount
		if sameDayAsPrevious {
			today.DailyOutflows = previous.DailyOutflows + amount
		} else {
			today.DailyOutflows = amount
		}
	}

	if today.CurrentBalance < 0 {
		shortfall := -today.CurrentBalance
		today.TotalFunded += shortfall
		if sameDayAsPrevious {
			today.DailyFunding = previous.DailyFunding + shortfall
		} else {
			today.DailyFunding = shortfall
		}
		today.CurrentBalance = 0
	}

	u.set(date, today)
}
