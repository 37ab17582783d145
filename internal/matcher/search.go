package matcher

import (
	"context"
	"fmt"
	"time"

	"github.com/forensic-graph/warehouse/internal/graphstore"
	"github.com/forensic-graph/warehouse/pkg/logging"
)

// exchangeDepositAddress is the exchange's known on-chain deposit address,
// the anchor every candidate deposit is matched against.
const exchangeDepositAddress = "0xf57d3968d0bfd5b3120fda88f34310c70bd72033f77422f4407fbbef7c24557a"

// GetDateRangeDeposits returns every deposit into the exchange's known
// address within (start, end), summed per depositing account and
// descaled from warehouse integer units back to coin units.
func GetDateRangeDeposits(ctx context.Context, store *graphstore.Store, start, end time.Time) ([]Deposit, error) {
	cypher := fmt.Sprintf(`
WITH "%s" AS olswap_deposit
MATCH (acc:Account)-[tx:Tx]->(onboard:Account {address: olswap_deposit})
WITH DISTINCT(acc) AS all, olswap_deposit
MATCH (all)-[tx2:Tx]->(onboard:Account {address: olswap_deposit})
WHERE
  tx2.block_datetime > datetime("%s")
  AND tx2.block_datetime < datetime("%s")
WITH
  DISTINCT (all.address) AS account,
  COALESCE(SUM(tx2.coins), 0)/1000000 AS deposit_amount
RETURN account, toFloat(deposit_amount) AS deposited
ORDER BY deposit_amount DESC
`, exchangeDepositAddress, start.Format(time.RFC3339), end.Format(time.RFC3339))

	rows, err := store.Run(ctx, cypher)
	if err != nil {
		return nil, fmt.Errorf("querying date-range deposits: %w", err)
	}

	deposits := make([]Deposit, 0, len(rows))
	for _, r := range rows {
		account, _ := r["account"].(string)
		deposited, _ := r["deposited"].(float64)
		deposits = append(deposits, Deposit{Account: account, Deposited: deposited})
	}
	return deposits, nil
}

// GetExchangeUsers returns the top-N exchange users by total funding
// requirement within (start, end).
func GetExchangeUsers(ctx context.Context, store *graphstore.Store, topN uint64, start, end time.Time) ([]MinFunding, error) {
	cypher := fmt.Sprintf(`
MATCH p=(e:SwapAccount)-[d:DailyLedger]-(ul:UserLedger)
WHERE d.date > datetime("%s")
      AND d.date < datetime("%s")
WITH e.swap_id AS user_id, toFloat(max(ul.total_funded)) AS funded
RETURN user_id, funded
ORDER BY funded DESC
LIMIT %d
`, start.Format(time.RFC3339), end.Format(time.RFC3339), topN)

	rows, err := store.Run(ctx, cypher)
	if err != nil {
		return nil, fmt.Errorf("querying exchange users: %w", err)
	}

	out := make([]MinFunding, 0, len(rows))
	for _, r := range rows {
		out = append(out, MinFunding{
			UserID: asUint32(r["user_id"]),
			Funded: asFloat(r["funded"]),
		})
	}
	return out, nil
}

// GetExchangeUsersOnlyOutflows returns users whose entire ledger history is
// outflows exactly matched by funding — the "exact seller" population
// MatchExactSellers is built for.
func GetExchangeUsersOnlyOutflows(ctx context.Context, store *graphstore.Store) ([]MinFunding, error) {
	cypher := `
MATCH (e:SwapAccount)-[]-(u:UserLedger)
WHERE u.total_inflows = 0
AND u.total_outflows = u.total_funded
AND u.current_balance = 0
WITH DISTINCT(e.swap_id) AS user_id, max(u.total_funded) AS funded
RETURN user_id, funded
ORDER BY funded DESC
`
	rows, err := store.Run(ctx, cypher)
	if err != nil {
		return nil, fmt.Errorf("querying exact-seller users: %w", err)
	}
	out := make([]MinFunding, 0, len(rows))
	for _, r := range rows {
		out = append(out, MinFunding{UserID: asUint32(r["user_id"]), Funded: asFloat(r["funded"])})
	}
	return out, nil
}

func asUint32(v any) uint32 {
	switch t := v.(type) {
	case int64:
		return uint32(t)
	case int:
		return uint32(t)
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}

// BreadthSearchByDates replays each day in [start, end], checking the top
// topN funded accounts against deposits observed up to that day only —
// never peeking into the future — and saves the matcher's progress after
// each user if saveDir is non-empty.
func (m *Matching) BreadthSearchByDates(ctx context.Context, store *graphstore.Store, topN uint64, start, end time.Time, saveDir string) error {
	for _, d := range DaysInRange(start, end) {
		logging.GetDefault().Info("matcher breadth search day", "day", d)

		nextList, err := GetExchangeUsers(ctx, store, topN, start, d)
		if err != nil {
			return err
		}
		deposits, err := GetDateRangeDeposits(ctx, store, start, d)
		if err != nil {
			deposits = nil
		}

		for _, u := range nextList {
			m.Search(u, deposits)
			if saveDir != "" {
				_ = m.WriteDefiniteToFile(saveDir)
				_ = m.WriteCacheToFile(saveDir)
			}
		}
	}
	return nil
}

// DepthSearchByTopNAccounts repeatedly widens BreadthSearchByDates's topN
// from topN up to 100, in steps of 5 — shallow searches run first and feed
// their eliminated candidates into the deeper ones.
func (m *Matching) DepthSearchByTopNAccounts(ctx context.Context, store *graphstore.Store, start, end time.Time, topN uint64, saveDir string) error {
	const limit = 101
	for topN < limit {
		_ = m.BreadthSearchByDates(ctx, store, topN, start, end, saveDir)
		topN += 5
	}
	return nil
}
