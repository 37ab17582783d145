// Package ingest drives batched transaction and account-snapshot loading
// into the graph, checking and updating the queue around each batch so a
// restarted run never re-inserts work it already committed.
package ingest

import (
	"fmt"

	"github.com/forensic-graph/warehouse/internal/cypherobj"
	"github.com/forensic-graph/warehouse/internal/warehouse"
)

// txRecord is the flattened, Cypher-ready shape of one WarehouseTxMaster —
// the analogue of the Rust loader's to_cypher_map output.
type txRecord struct {
	Sender           string         `json:"sender"`
	Recipient        string         `json:"recipient"`
	TxHash           string         `json:"tx_hash"`
	BlockDatetime    string         `json:"block_datetime"`
	BlockTimestamp   uint64         `json:"block_timestamp"`
	Relation         string         `json:"relation"`
	Function         string         `json:"function"`
	FrameworkVersion string         `json:"framework_version"`
	Coins            uint64         `json:"coins"`
	Args             map[string]any `json:"args,omitempty"`
}

func toTxRecord(t warehouse.WarehouseTxMaster) txRecord {
	recipient, amount, _ := t.RelationLabel.Recipient()
	var args map[string]any
	if t.EntryFunction != nil {
		args = t.EntryFunction.Args
	}
	return txRecord{
		Sender:           t.Sender,
		Recipient:        recipient,
		TxHash:           t.TxHash,
		BlockDatetime:    t.BlockDatetime.Format("2006-01-02T15:04:05.000000Z"),
		BlockTimestamp:   t.BlockTimestamp,
		Relation:         t.RelationLabel.Kind(),
		Function:         t.Function,
		FrameworkVersion: t.FrameworkVersion.String(),
		Coins:            amount,
		Args:             args,
	}
}

// buildTxCypherList renders a batch of transactions as a Cypher list
// literal of flattened record objects.
func buildTxCypherList(txs []warehouse.WarehouseTxMaster) (string, error) {
	records := make([]txRecord, len(txs))
	for i, t := range txs {
		records[i] = toTxRecord(t)
	}
	return cypherobj.ToObjectList(records)
}

// writeBatchUserCreate is the MERGE-accounts-first query: it must run
// before writeBatchTxString so every sender/recipient node exists before
// the transaction edges are created.
func writeBatchUserCreate(listStr string) string {
	return fmt.Sprintf(`
WITH %s AS tx_data
UNWIND tx_data AS tx
WITH COLLECT(DISTINCT tx.sender) + COLLECT(DISTINCT tx.recipient) AS unique_addresses
UNWIND unique_addresses AS each_addr
WITH COLLECT(DISTINCT each_addr) AS unique_array

UNWIND unique_array AS addr
MERGE (node:Account {address: addr})
ON CREATE SET
    node.cypher_created_at = timestamp(),
    node.cypher_modified_at = null
ON MATCH SET
    node.cypher_modified_at = timestamp()

RETURN
  COUNT(node) AS unique_accounts,
  COUNT(CASE WHEN node.cypher_created_at = timestamp() THEN 1 END) AS created_accounts,
  COUNT(CASE WHEN node.cypher_modified_at = timestamp() AND node.cypher_created_at < timestamp() THEN 1 END) AS modified_accounts,
  COUNT(CASE WHEN node.cypher_modified_at < timestamp() THEN 1 END) AS unchanged_accounts
`, listStr)
}

// writeBatchTxString creates the :Tx edges and rolls up the :Lifetime
// cumulative-transfer edge.
func writeBatchTxString(listStr string) string {
	return fmt.Sprintf(`
WITH %s AS tx_data
UNWIND tx_data AS tx

// accounts are merged by writeBatchUserCreate before this runs
MERGE (from:Account {address: tx.sender})
MERGE (to:Account {address: tx.recipient})
MERGE (from)-[rel:Tx {tx_hash: tx.tx_hash}]->(to)

ON CREATE SET rel.cypher_created_at = timestamp(), rel.cypher_modified_at = null
ON MATCH SET rel.cypher_modified_at = timestamp()
SET
    rel.block_datetime = tx.block_datetime,
    rel.block_timestamp = tx.block_timestamp,
    rel.relation = tx.relation,
    rel.function = tx.function,
    rel.framework_version = tx.framework_version

FOREACH (_ IN CASE WHEN tx.args IS NOT NULL THEN [1] ELSE [] END |
    SET rel += tx.args
)

FOREACH (_ IN CASE WHEN tx.coins > 0 THEN [1] ELSE [] END |
    SET rel.coins = tx.coins
    MERGE (from)-[relTotal:Lifetime]->(to)
    SET relTotal.coins = COALESCE(relTotal.coins, 0) + tx.coins
)

RETURN
  COUNT(CASE WHEN rel.cypher_created_at = timestamp() THEN 1 END) AS created_tx,
  COUNT(CASE WHEN rel.cypher_modified_at = timestamp() AND rel.cypher_created_at < timestamp() THEN 1 END) AS modified_tx
`, listStr)
}

func uniqueAddressCount(txs []warehouse.WarehouseTxMaster) int {
	return len(warehouse.UniqueSenderAndRecipients(txs))
}

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var out [][]T
	for size > 0 && len(items) > 0 {
		end := size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[:end])
		items = items[end:]
	}
	return out
}
