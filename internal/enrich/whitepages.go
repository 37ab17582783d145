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

// Whitepages is one operator-asserted owner-alias mapping: "this address
// belongs to this named entity."
type Whitepages struct {
	Address     string  `json:"address"`
	Owner       *string `json:"owner"`
	AddressNote *string `json:"address_note"`
}

// ParseWhitepagesFile reads a whitepages JSON file (an array of records),
// normalizing every address field.
func ParseWhitepagesFile(path string) ([]Whitepages, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading whitepages file %s: %w", path, err)
	}
	var out []Whitepages
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parsing whitepages file %s: %w", path, err)
	}
	for i := range out {
		out[i].Address = NormalizeAddress(out[i].Address)
	}
	return out, nil
}

func whitepagesToCypherList(list []Whitepages) string {
	var parts []string
	for _, w := range list {
		if w.Owner == nil || *w.Owner == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf(`{owner: %q, address: %q}`, *w.Owner, w.Address))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func cypherBatchLinkOwner(listStr string) string {
	return fmt.Sprintf(`
WITH %s AS owner_data
UNWIND owner_data AS each_owner

MATCH (addr:Account {address: each_owner.address})

MERGE (own:Owner {alias: each_owner.owner})
MERGE (own)-[rel:Owns]->(addr)

WITH rel
RETURN COUNT(rel) AS owners_merged
`, listStr)
}

// LinkOwners merges Owner nodes and Owns edges for every whitepages record
// whose address already exists as an Account in the graph.
func LinkOwners(ctx context.Context, store *graphstore.Store, batch []Whitepages) (uint64, error) {
	listStr := whitepagesToCypherList(batch)
	if listStr == "[]" {
		return 0, nil
	}
	row, err := store.RunOne(ctx, cypherBatchLinkOwner(listStr))
	if err != nil {
		return 0, fmt.Errorf("linking owners: %w", err)
	}
	merged := asUint64(row["owners_merged"])
	logging.GetDefault().Info("owners linked to addresses", "count", merged)
	return merged, nil
}

func asUint64(v any) uint64 {
	switch t := v.(type) {
	case int64:
		return uint64(t)
	case int:
		return uint64(t)
	case float64:
		return uint64(t)
	default:
		return 0
	}
}
