// Package exchangeload wires together the exchange order pipeline: parse
// an exchange's JSON export, enrich it with RMS/shill statistics, replay
// it into per-user balance ledgers, and merge both the orders and the
// ledgers into the graph.
//
// It lives outside internal/exchange because the enrichment passes
// (internal/rms, internal/ledger) themselves import internal/exchange —
// folding the pipeline into that package would create an import cycle.
package exchangeload

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/forensic-graph/warehouse/internal/exchange"
	"github.com/forensic-graph/warehouse/internal/graphstore"
	"github.com/forensic-graph/warehouse/internal/ledger"
	"github.com/forensic-graph/warehouse/internal/queue"
	"github.com/forensic-graph/warehouse/internal/rms"
	"github.com/forensic-graph/warehouse/pkg/logging"
)

// swapOrdersArchiveID is the fixed queue key under which every exchange
// order batch is tracked, mirroring how a chain archive's directory is
// used as its archive ID.
const swapOrdersArchiveID = "swap_orders"

// ReadOrdersFromFile loads and deserializes an exchange's JSON order
// export.
func ReadOrdersFromFile(path string) ([]exchange.Order, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading exchange orders file %s: %w", path, err)
	}
	orders, err := exchange.DeserializeOrders(raw)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ImplBatchTxInsert merges one batch of orders into the graph, returning
// how many Swap edges were newly created versus already present.
func ImplBatchTxInsert(ctx context.Context, store *graphstore.Store, batch []exchange.Order) (merged uint64, ignored uint64, err error) {
	listStr := exchange.ToCypherList(batch)
	row, err := store.RunOne(ctx, exchange.CypherBatchInsert(listStr))
	if err != nil {
		return 0, 0, fmt.Errorf("inserting exchange order batch: %w", err)
	}
	return asUint64(row["merged_tx_count"]), asUint64(row["ignored_tx_count"]), nil
}

// ExchangeTxsBatch chunks orders into batchSize pieces and merges each one
// in turn, consulting the queue so a rerun skips batches already
// committed and keeps going past any single batch's failure.
func ExchangeTxsBatch(ctx context.Context, store *graphstore.Store, orders []exchange.Order, batchSize int) (merged uint64, ignored uint64, err error) {
	logger := logging.GetDefault()
	chunks := chunk(orders, batchSize)
	logger.Info("exchange orders batched", "archive", swapOrdersArchiveID, "batches", len(chunks))

	for i, c := range chunks {
		logger.Info("batch", "index", i)

		complete, ok, err := queue.IsBatchComplete(ctx, store, swapOrdersArchiveID, i)
		if err != nil {
			return merged, ignored, fmt.Errorf("checking queue: %w", err)
		}
		if ok && complete {
			logger.Info("skipping, already loaded", "batch", i)
			continue
		}
		if !ok {
			if _, err := queue.UpdateTask(ctx, store, swapOrdersArchiveID, false, i); err != nil {
				return merged, ignored, fmt.Errorf("registering queue task: %w", err)
			}
		}

		m, ig, err := ImplBatchTxInsert(ctx, store, c)
		if err != nil {
			logger.Error("skipping batch, could not insert", "batch", i, "err", err)
			logger.Warn("waiting before retrying connection", "seconds", 10)
			time.Sleep(10 * time.Second)
			continue
		}
		if _, err := queue.UpdateTask(ctx, store, swapOrdersArchiveID, true, i); err != nil {
			return merged, ignored, fmt.Errorf("marking queue task complete: %w", err)
		}
		merged += m
		ignored += ig
	}
	return merged, ignored, nil
}

// LoadFromJSON reads an exchange order export, enriches it with RMS and
// shill-bid statistics, replays it into per-user balance ledgers, and
// merges orders and ledgers into the graph.
func LoadFromJSON(ctx context.Context, store *graphstore.Store, path string, batchSize int) (merged uint64, ignored uint64, err error) {
	orders, err := ReadOrdersFromFile(path)
	if err != nil {
		return 0, 0, err
	}
	logger := logging.GetDefault()
	logger.Info("completed parsing orders", "count", len(orders))

	rms.IncludeRMSStats(orders)
	logger.Info("completed rms statistics")

	rms.ProcessShill(orders)
	logger.Info("completed shill bid calculation")

	balances := ledger.NewBalanceTracker()
	balances.ReplayTransactions(orders)
	ledgerInserts, err := balances.SubmitLedger(ctx, store)
	if err != nil {
		return 0, 0, fmt.Errorf("submitting user ledgers: %w", err)
	}
	logger.Info("exchange user ledger state inserted", "count", ledgerInserts)

	return ExchangeTxsBatch(ctx, store, orders, batchSize)
}

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	if size == 0 {
		return nil
	}
	var out [][]T
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
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
