package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/forensic-graph/warehouse/internal/cypherobj"
	"github.com/forensic-graph/warehouse/internal/graphstore"
	"github.com/forensic-graph/warehouse/internal/queue"
	"github.com/forensic-graph/warehouse/internal/warehouse"
	"github.com/forensic-graph/warehouse/pkg/logging"
)

type snapshotRecord struct {
	Address          string   `json:"address"`
	Balance          float64  `json:"balance"`
	Version          uint64   `json:"version"`
	Epoch            uint64   `json:"epoch"`
	SequenceNum      uint64   `json:"sequence_num"`
	SlowUnlocked     *float64 `json:"slow_unlocked,omitempty"`
	SlowTransfer     *float64 `json:"slow_transfer,omitempty"`
	FrameworkVersion string   `json:"framework_version"`
	SlowWallet       bool     `json:"slow_wallet"`
	DonorVoice       bool     `json:"donor_voice"`
	MinerHeight      *uint64  `json:"miner_height,omitempty"`
}

// toSnapshotRecord reads version identity straight off the record's own
// WarehouseTime — version/epoch/framework are per-snapshot, set by the
// extractor when it decodes each state-snapshot chunk, not supplied by the
// batch writer.
func toSnapshotRecord(s warehouse.WarehouseAccState) snapshotRecord {
	return snapshotRecord{
		Address:          s.Address,
		Balance:          s.Balance,
		Version:          s.Time.Version,
		Epoch:            s.Time.Epoch,
		SequenceNum:      s.SequenceNum,
		SlowUnlocked:     s.SlowWalletUnlocked,
		SlowTransfer:     s.SlowWalletTransferred,
		FrameworkVersion: s.Time.FrameworkVersion.String(),
		SlowWallet:       s.SlowWalletAcc,
		DonorVoice:       s.DonorVoiceAcc,
		MinerHeight:      s.MinerHeight,
	}
}

func buildSnapshotCypherList(snaps []warehouse.WarehouseAccState) (string, error) {
	records := make([]snapshotRecord, len(snaps))
	for i, s := range snaps {
		records[i] = toSnapshotRecord(s)
	}
	return cypherobj.ToObjectList(records)
}

func cypherBatchInsertSnapshot(listStr string) string {
	return fmt.Sprintf(`
WITH %s AS tx_data
UNWIND tx_data AS tx

MERGE (addr:Account {address: tx.address})
MERGE (snap:Snapshot {
    address: tx.address,
    epoch: tx.epoch,
    version: tx.version
})

SET
  snap.balance = tx.balance,
  snap.framework_version = tx.framework_version,
  snap.sequence_num = tx.sequence_num,
  snap.slow_wallet = tx.slow_wallet,
  snap.donor_voice = tx.donor_voice

FOREACH (_ IN CASE WHEN tx.miner_height IS NOT NULL THEN [1] ELSE [] END |
    SET snap.miner_height = tx.miner_height
)

FOREACH (_ IN CASE WHEN tx.slow_unlocked IS NOT NULL THEN [1] ELSE [] END |
    SET snap.slow_unlocked = tx.slow_unlocked
)

FOREACH (_ IN CASE WHEN tx.slow_transfer IS NOT NULL THEN [1] ELSE [] END |
    SET snap.slow_transfer = tx.slow_transfer
)

MERGE (addr)-[rel:State {version: tx.version}]->(snap)

RETURN COUNT(snap) AS merged_snapshots
`, listStr)
}

// SnapshotBatch inserts account-state snapshots into the graph in
// batchSize chunks, with the same queue-check/retry-sleep shape as TxBatch.
func SnapshotBatch(ctx context.Context, store *graphstore.Store, snaps []warehouse.WarehouseAccState, batchSize int, archiveID string) (warehouse.BatchTxReturn, error) {
	logger := logging.GetDefault().With("archive", archiveID)
	logger.Info("starting snapshot batch load")

	var all warehouse.BatchTxReturn
	chunks := chunk(snaps, batchSize)

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

		batch, err := implBatchSnapshotInsert(ctx, store, c)
		if err != nil {
			logger.Error("could not insert batch, skipping", "index", i, "err", err)
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

func implBatchSnapshotInsert(ctx context.Context, store *graphstore.Store, batch []warehouse.WarehouseAccState) (warehouse.BatchTxReturn, error) {
	listStr, err := buildSnapshotCypherList(batch)
	if err != nil {
		return warehouse.BatchTxReturn{}, err
	}

	row, err := store.RunOne(ctx, cypherBatchInsertSnapshot(listStr))
	if err != nil {
		return warehouse.BatchTxReturn{}, err
	}
	merged := asUint64(row["merged_snapshots"])
	logging.GetDefault().Info("merged snapshots", "count", merged)

	return warehouse.BatchTxReturn{CreatedTx: merged}, nil
}
