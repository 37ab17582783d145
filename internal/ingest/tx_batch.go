package ingest

import (
	"context"
	"time"

	"github.com/forensic-graph/warehouse/internal/graphstore"
	"github.com/forensic-graph/warehouse/internal/queue"
	"github.com/forensic-graph/warehouse/internal/warehouse"
	"github.com/forensic-graph/warehouse/pkg/logging"
)

// RetrySleep is how long a batch failure waits before the loop moves on to
// the next batch, applied uniformly to transaction and snapshot batches
// alike (the upstream source only applied it to snapshot batches; this
// loader applies it to both so a flaky connection gets the same grace
// period regardless of which batch kind hit it).
const RetrySleep = 10 * time.Second

// TxBatch inserts txs into the graph in batchSize chunks, checking and
// updating the queue around each chunk so a restarted run skips batches
// already committed.
func TxBatch(ctx context.Context, store *graphstore.Store, txs []warehouse.WarehouseTxMaster, batchSize int, archiveID string) (warehouse.BatchTxReturn, error) {
	logger := logging.GetDefault().With("archive", archiveID)
	logger.Info("starting tx batch load")

	var all warehouse.BatchTxReturn
	if len(txs) == 0 {
		if _, err := queue.UpdateTask(ctx, store, archiveID, true, 0); err != nil {
			return all, err
		}
		return all, nil
	}

	chunks := chunk(txs, batchSize)
	for i, c := range chunks {
		logger.Info("batch", "index", i)

		completed, found, err := queue.IsBatchComplete(ctx, store, archiveID, i)
		switch {
		case err != nil:
			return all, err
		case found && completed:
			logger.Info("skipping, batch already loaded", "index", i)
			continue
		case !found:
			logger.Info("batch not found in queue, adding", "index", i)
			if _, err := queue.UpdateTask(ctx, store, archiveID, false, i); err != nil {
				return all, err
			}
		}

		batch, err := implBatchTxInsert(ctx, store, c)
		if err != nil {
			logger.Error("could not insert batch", "index", i, "err", err)
			select {
			case <-ctx.Done():
				return all, ctx.Err()
			case <-time.After(RetrySleep):
			}
			continue
		}
		all.Increment(batch)
		if _, err := queue.UpdateTask(ctx, store, archiveID, true, i); err != nil {
			return all, err
		}
		logger.Info("batch succeeded", "index", i)
	}

	return all, nil
}

func implBatchTxInsert(ctx context.Context, store *graphstore.Store, batch []warehouse.WarehouseTxMaster) (warehouse.BatchTxReturn, error) {
	uniqueAddrs := uniqueAddressCount(batch)

	listStr, err := buildTxCypherList(batch)
	if err != nil {
		return warehouse.BatchTxReturn{}, err
	}

	userRow, err := store.RunOne(ctx, writeBatchUserCreate(listStr))
	if err != nil {
		return warehouse.BatchTxReturn{}, err
	}
	uniqueAccounts := asUint64(userRow["unique_accounts"])
	createdAccounts := asUint64(userRow["created_accounts"])
	modifiedAccounts := asUint64(userRow["modified_accounts"])
	unchangedAccounts := asUint64(userRow["unchanged_accounts"])

	txRow, err := store.RunOne(ctx, writeBatchTxString(listStr))
	if err != nil {
		return warehouse.BatchTxReturn{}, err
	}
	createdTx := asUint64(txRow["created_tx"])

	if int(uniqueAccounts) != uniqueAddrs {
		logging.GetDefault().Error("accounts in batch does not match unique accounts reported by graph",
			"batch_unique_addrs", uniqueAddrs, "graph_unique_accounts", uniqueAccounts)
	}

	return warehouse.BatchTxReturn{
		UniqueAccounts:    uniqueAccounts,
		CreatedAccounts:   createdAccounts,
		ModifiedAccounts:  modifiedAccounts,
		UnchangedAccounts: unchangedAccounts,
		CreatedTx:         createdTx,
	}, nil
}

func asUint64(v any) uint64 {
	switch t := v.(type) {
	case int64:
		return uint64(t)
	case int:
		return uint64(t)
	case uint64:
		return t
	case float64:
		return uint64(t)
	default:
		return 0
	}
}
