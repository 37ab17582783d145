package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/forensic-graph/warehouse/internal/graphstore"
	"github.com/forensic-graph/warehouse/pkg/logging"
)

// ExchangeOnRamp maps an on-chain address to the exchange's internal user
// ID that deposited from it.
type ExchangeOnRamp struct {
	OnrampAddress string `json:"onramp_address"`
	UserID        uint64 `json:"user_id"`
}

// ParseOnRampFile reads an exchange on-ramp JSON file, normalizing every
// address field.
func ParseOnRampFile(path string) ([]ExchangeOnRamp, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading onramp file %s: %w", path, err)
	}
	var out []ExchangeOnRamp
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parsing onramp file %s: %w", path, err)
	}
	for i := range out {
		out[i].OnrampAddress = NormalizeAddress(out[i].OnrampAddress)
	}
	return out, nil
}

func onRampToCypherList(list []ExchangeOnRamp) string {
	var parts []string
	for _, o := range list {
		if o.OnrampAddress == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf(`{user_id: %d, address: %q}`, o.UserID, o.OnrampAddress))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func cypherBatchLinkOnRamp(listStr string) string {
	return fmt.Sprintf(`
WITH %s AS owner_data
UNWIND owner_data AS each_owner

MATCH (id:SwapAccount {swap_id: each_owner.user_id})
MATCH (addr:Account {address: each_owner.address})
MERGE (addr)-[rel:OnRamp]->(id)

WITH rel
RETURN COUNT(rel) AS owners_merged
`, listStr)
}

// LinkOnRamps merges OnRamp edges from each on-chain address to the
// exchange SwapAccount it deposited into.
func LinkOnRamps(ctx context.Context, store *graphstore.Store, batch []ExchangeOnRamp) (uint64, error) {
	listStr := onRampToCypherList(batch)
	if listStr == "[]" {
		return 0, nil
	}
	row, err := store.RunOne(ctx, cypherBatchLinkOnRamp(listStr))
	if err != nil {
		return 0, fmt.Errorf("linking on-ramps: %w", err)
	}
	merged := asUint64(row["owners_merged"])
	logging.GetDefault().Info("on-ramps linked to swap accounts", "count", merged)
	return merged, nil
}
