package rescue

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/forensic-graph/warehouse/internal/concurrency"
	"github.com/forensic-graph/warehouse/internal/graphstore"
	"github.com/forensic-graph/warehouse/internal/ingest"
	"github.com/forensic-graph/warehouse/internal/queue"
	"github.com/forensic-graph/warehouse/internal/scan"
	"github.com/forensic-graph/warehouse/internal/unzip"
	"github.com/forensic-graph/warehouse/internal/warehouse"
	"github.com/forensic-graph/warehouse/pkg/logging"
)

// queryBatchSize is the chunk size used when inserting recovered V5
// transactions, matching the V6/V7 ingest path's default.
const queryBatchSize = 250

// DecompressAndExtract decompresses one .tgz rescue archive, decodes every
// JSON file it contains through decoder, and inserts the resulting
// transactions into the graph, skipping any JSON file the queue already
// reports complete. It returns the count of transactions actually created.
func DecompressAndExtract(ctx context.Context, store *graphstore.Store, tgzFile string, decoder warehouse.EntryFunctionDecoder) (uint64, error) {
	logger := logging.GetDefault().With("archive", tgzFile)

	scratch, err := unzip.NewScopedDir("v5-rescue-")
	if err != nil {
		return 0, fmt.Errorf("allocating scratch dir: %w", err)
	}
	defer scratch.Close()

	if err := unzip.DecompressTarArchive(tgzFile, scratch.Path); err != nil {
		return 0, fmt.Errorf("decompressing %s: %w", tgzFile, err)
	}

	jsonFiles, err := ListV5JSONFiles(scratch.Path)
	if err != nil {
		return 0, err
	}

	var foundCount, createdCount uint64
	var unique []string

	for _, j := range jsonFiles {
		rel, err := filepath.Rel(scratch.Path, j)
		if err != nil {
			return createdCount, err
		}
		archiveID := filepath.Join(tgzFile, rel)
		complete, err := queue.AreAllCompleted(ctx, store, archiveID)
		if err != nil {
			return createdCount, err
		}
		if complete {
			logger.Debug("skip parsing, already loaded", "file", archiveID)
			continue
		}

		records, fns, err := ExtractV5JSONRescue(j, decoder)
		if err != nil {
			return createdCount, err
		}
		for _, f := range fns {
			if !contains(unique, f) {
				unique = append(unique, f)
			}
		}

		res, err := ingest.TxBatch(ctx, store, records, queryBatchSize, archiveID)
		if err != nil {
			return createdCount, err
		}
		createdCount += res.CreatedTx
		foundCount += uint64(len(records))

		if _, err := queue.UpdateTask(ctx, store, tgzFile, true, 0); err != nil {
			return createdCount, err
		}
	}

	switch {
	case foundCount > 0 && createdCount > 0:
		logger.Info("v5 transactions recovered", "found", foundCount, "created", createdCount)
		if foundCount != createdCount {
			logger.Warn("recovered count does not match created count, archive may have been partially loaded before")
		}
	default:
		logger.Info("no transactions submitted, archive likely already loaded")
	}

	return createdCount, nil
}

// RipConcurrentLimited processes every .tgz archive under startDir with at
// most threads running concurrently, returning the total transactions
// created across ALL archives.
//
// The upstream loader this is ported from returned as soon as the first
// task in its result list succeeded, discarding every other archive's
// count; that bug is fixed here by summing every result, successful or
// not, and only logging (never discarding) failures.
func RipConcurrentLimited(ctx context.Context, store *graphstore.Store, startDir string, decoder warehouse.EntryFunctionDecoder, threads int) (uint64, error) {
	logger := logging.GetDefault()

	tgzList, err := scan.ScanDirV5Rescue(startDir)
	if err != nil {
		return 0, err
	}
	logger.Info("tgz archives found", "count", len(tgzList))

	var jobs []concurrency.Job[uint64]
	for _, tgzPath := range tgzList {
		tgzPath := tgzPath
		complete, err := queue.AreAllCompleted(ctx, store, tgzPath)
		if err != nil {
			return 0, err
		}
		if complete {
			logger.Info("skipping, archive already loaded", "archive", tgzPath)
			continue
		}
		jobs = append(jobs, func(ctx context.Context) (uint64, error) {
			return DecompressAndExtract(ctx, store, tgzPath, decoder)
		})
	}

	results := concurrency.RunLimited(ctx, threads, jobs)

	var total uint64
	for i, r := range results {
		total += r.Value
		if r.Err != nil {
			logger.Error("rescue task failed", "index", i, "err", r.Err)
		}
	}
	return total, nil
}
