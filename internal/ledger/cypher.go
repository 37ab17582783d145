package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/forensic-graph/warehouse/internal/graphstore"
	"github.com/forensic-graph/warehouse/pkg/logging"
)

func toCypherMap(userID uint32, u *UserLedger) string {
	var parts []string
	for _, date := range u.Dates() {
		acc := u.byDate[date]
		parts = append(parts, fmt.Sprintf(
			`{ swap_id: %d, date: "%s", current_balance: %v, total_funded: %v, total_inflows: %v, total_outflows: %v, daily_funding: %v, daily_inflows: %v, daily_outflows: %v }`,
			userID, date.Format("2006-01-02T15:04:05.000Z07:00"),
			acc.CurrentBalance, acc.TotalFunded, acc.TotalInflows, acc.TotalOutflows,
			acc.DailyFunding, acc.DailyInflows, acc.DailyOutflows,
		))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func generateCypherQuery(listStr string) string {
	return fmt.Sprintf(`
UNWIND %s AS account
MERGE (sa:SwapAccount {swap_id: account.swap_id})
MERGE (ul:UserLedger {swap_id: account.swap_id, date: datetime(account.date)})
SET ul.current_balance = account.current_balance,
    ul.total_funded = account.total_funded,
    ul.total_inflows = account.total_inflows,
    ul.total_outflows = account.total_outflows,
    ul.daily_funding = account.daily_funding,
    ul.daily_inflows = account.daily_inflows,
    ul.daily_outflows = account.daily_outflows
MERGE (sa)-[r:DailyLedger]->(ul)
SET r.date = datetime(account.date)
RETURN COUNT(r) AS merged_relations
`, listStr)
}

// SubmitLedger persists every user's ledger to the graph, logging and
// skipping (rather than aborting) any single user whose submission fails.
func (b *BalanceTracker) SubmitLedger(ctx context.Context, store *graphstore.Store) (uint64, error) {
	var merged uint64
	for _, id := range b.UserIDs() {
		m, err := b.submitOneID(ctx, store, id)
		if err != nil {
			logging.GetDefault().Error("could not submit user ledger", "user", id, "err", err)
			continue
		}
		merged += m
	}
	return merged, nil
}

func (b *BalanceTracker) submitOneID(ctx context.Context, store *graphstore.Store, id uint32) (uint64, error) {
	u := b.ledger(id)
	listStr := toCypherMap(id, u)
	row, err := store.RunOne(ctx, generateCypherQuery(listStr))
	if err != nil {
		return 0, err
	}
	switch v := row["merged_relations"].(type) {
	case int64:
		return uint64(v), nil
	default:
		return 0, nil
	}
}
