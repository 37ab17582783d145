package ingest

import (
	"context"
	"fmt"

	"github.com/forensic-graph/warehouse/internal/graphstore"
	"github.com/forensic-graph/warehouse/internal/queue"
	"github.com/forensic-graph/warehouse/internal/scan"
	"github.com/forensic-graph/warehouse/internal/unzip"
	"github.com/forensic-graph/warehouse/internal/warehouse"
	"github.com/forensic-graph/warehouse/pkg/logging"
)

// Extractor turns a scanned manifest's archive directory into decoded
// warehouse records. Implementations are framework-version-specific and
// live behind this interface so the load controller never depends on the
// bytecode decoding internals directly; tests substitute a deterministic
// fake.
type Extractor interface {
	ExtractTransactions(ctx context.Context, archiveDir string, version warehouse.FrameworkVersion) ([]warehouse.WarehouseTxMaster, error)
	ExtractSnapshot(ctx context.Context, archiveDir string, version warehouse.FrameworkVersion) ([]warehouse.WarehouseAccState, error)
}

// Controller drives the end-to-end ingest of a scanned archive map.
type Controller struct {
	Store     *graphstore.Store
	Extractor Extractor
	BatchSize int
}

// IngestAll loads every manifest in archiveMap sequentially, optionally
// resetting the queue first. It skips any archive the queue already
// reports fully complete, so re-running this on the same archive map is
// safe and cheap.
func (c *Controller) IngestAll(ctx context.Context, archiveMap scan.ArchiveMap, forceQueue bool) error {
	if forceQueue {
		logging.GetDefault().Warn("clearing load queue and re-enqueueing all archives", "count", len(archiveMap.Manifests))
		if err := queue.ClearQueue(ctx, c.Store); err != nil {
			return fmt.Errorf("clearing queue: %w", err)
		}
		if err := queue.PushFromArchiveMap(ctx, c.Store, archiveMap); err != nil {
			return fmt.Errorf("pushing archive map to queue: %w", err)
		}
	}

	pending, err := queue.GetQueued(ctx, c.Store)
	if err != nil {
		return fmt.Errorf("listing pending archives: %w", err)
	}
	logging.GetDefault().Info("pending archives", "count", len(pending))

	for _, m := range archiveMap.Manifests {
		logging.GetDefault().Info("processing manifest", "content", m.Content.String(), "archive_dir", m.ArchiveDir)

		complete, err := queue.AreAllCompleted(ctx, c.Store, m.ArchiveDir)
		if err != nil {
			return fmt.Errorf("checking completion for %s: %w", m.ArchiveDir, err)
		}
		if complete {
			logging.GetDefault().Info("archive already complete, skipping", "archive_dir", m.ArchiveDir)
			continue
		}

		archiveDir, scoped, err := unzip.MaybeHandleGz(m.ArchiveDir)
		if err != nil {
			return fmt.Errorf("decompressing %s: %w", m.ArchiveDir, err)
		}
		if scoped != nil {
			defer scoped.Close()
		}

		result, err := c.tryLoadOneArchive(ctx, m, archiveDir)
		if err != nil {
			return fmt.Errorf("loading archive %s: %w", m.ArchiveDir, err)
		}
		logging.GetDefault().Info("archive load succeeded",
			"archive_dir", m.ArchiveDir,
			"created_tx", result.CreatedTx,
			"created_accounts", result.CreatedAccounts,
		)
	}

	return nil
}

func (c *Controller) tryLoadOneArchive(ctx context.Context, man scan.ManifestInfo, archiveDir string) (warehouse.BatchTxReturn, error) {
	var all warehouse.BatchTxReturn

	version, err := scanVersionToWarehouse(man.Version)
	if err != nil {
		return all, err
	}

	switch man.Content {
	case scan.BundleStateSnapshot:
		snaps, err := c.Extractor.ExtractSnapshot(ctx, archiveDir, version)
		if err != nil {
			return all, fmt.Errorf("extracting snapshot: %w", err)
		}
		// version/epoch/framework are per-record, set on each snapshot's own
		// WarehouseTime by the extractor as it decodes the chunk's version
		// header — the batch writer only chunks and submits what it's given.
		batchRes, err := SnapshotBatch(ctx, c.Store, snaps, c.BatchSize, man.ArchiveDir)
		if err != nil {
			return all, fmt.Errorf("snapshot batch: %w", err)
		}
		all.Increment(batchRes)

	case scan.BundleTransaction:
		txs, err := c.Extractor.ExtractTransactions(ctx, archiveDir, version)
		if err != nil {
			return all, fmt.Errorf("extracting transactions: %w", err)
		}
		batchRes, err := TxBatch(ctx, c.Store, txs, c.BatchSize, man.ArchiveDir)
		if err != nil {
			return all, fmt.Errorf("tx batch: %w", err)
		}
		all.Increment(batchRes)

	case scan.BundleEpochEnding:
		logging.GetDefault().Warn("epoch-ending bundles carry no loadable records, skipping", "archive_dir", man.ArchiveDir)

	default:
		return all, fmt.Errorf("unknown bundle content for manifest %s", man.ManifestPath)
	}

	return all, nil
}

func scanVersionToWarehouse(v scan.FrameworkVersionName) (warehouse.FrameworkVersion, error) {
	switch v {
	case scan.VersionV5:
		return warehouse.FrameworkV5, nil
	case scan.VersionV6:
		return warehouse.FrameworkV6, nil
	case scan.VersionV7:
		return warehouse.FrameworkV7, nil
	default:
		return warehouse.FrameworkUnknown, fmt.Errorf("no framework version detected for manifest version %q", v)
	}
}
