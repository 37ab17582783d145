package exchange

import (
	"fmt"
	"strings"
)

// toCypherObject renders one order the way the rest of the loader renders
// its literal-embedded query objects: datetime(...) wrapping for the two
// timestamp fields, since Cypher's native datetime type is used for the
// Swap edge rather than a plain string.
func toCypherObject(o Order) string {
	return fmt.Sprintf(
		`{user: %d, accepter: %d, order_type: "%s", amount: %s, price: %s, created_at: datetime("%s"), created_at_ts: %d, filled_at: datetime("%s"), filled_at_ts: %d, accepter_shill_down: %t, accepter_shill_up: %t, rms_hour: %s, rms_24hour: %s, price_vs_rms_hour: %s, price_vs_rms_24hour: %s}`,
		o.User, o.Accepter, o.OrderType,
		formatFloat(o.Amount), formatFloat(o.Price),
		o.CreatedAt.Format(time3339), o.CreatedAt.UnixMicro(),
		o.FilledAt.Format(time3339), o.FilledAt.UnixMicro(),
		o.AccepterShillDown, o.AccepterShillUp,
		formatFloat(o.RMSHour), formatFloat(o.RMS24Hour),
		formatFloat(o.PriceVsRMSHour), formatFloat(o.PriceVsRMS24Hour),
	)
}

const time3339 = "2006-01-02T15:04:05.000Z07:00"

func formatFloat(f float64) string {
	return fmt.Sprintf("%v", f)
}

// ToCypherList renders a batch of orders as a Cypher list literal.
func ToCypherList(orders []Order) string {
	parts := make([]string, len(orders))
	for i, o := range orders {
		parts[i] = toCypherObject(o)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// CypherBatchInsert builds the MERGE query that links maker/taker
// SwapAccount nodes with a Swap edge carrying every order attribute.
func CypherBatchInsert(listStr string) string {
	return fmt.Sprintf(`
WITH %s AS tx_data
UNWIND tx_data AS tx
MERGE (maker:SwapAccount {swap_id: tx.user})
MERGE (taker:SwapAccount {swap_id: tx.accepter})
MERGE (maker)-[rel:Swap {
  order_type: tx.order_type,
  amount: tx.amount,
  price: tx.price,
  created_at: tx.created_at,
  created_at_ts: tx.created_at_ts,
  filled_at: tx.filled_at,
  filled_at_ts: tx.filled_at_ts,
  accepter_shill_up: tx.accepter_shill_up,
  accepter_shill_down: tx.accepter_shill_down,
  rms_hour: tx.rms_hour,
  rms_24hour: tx.rms_24hour,
  price_vs_rms_hour: tx.price_vs_rms_hour,
  price_vs_rms_24hour: tx.price_vs_rms_24hour
}]->(taker)

ON CREATE SET rel.created = true
ON MATCH SET rel.created = false
WITH tx, rel
RETURN
    COUNT(CASE WHEN rel.created = true THEN 1 END) AS merged_tx_count,
    COUNT(CASE WHEN rel.created = false THEN 1 END) AS ignored_tx_count
`, listStr)
}
