package ingest

import (
	"context"

	"github.com/forensic-graph/warehouse/internal/warehouse"
)

// FakeExtractor is a deterministic, in-memory Extractor for tests: it
// returns whatever records were stashed under an archive directory's key,
// rather than decoding real V6/V7 binary chunks. A production deployment
// wires an Extractor backed by its own chunk-file decoder at main instead.
type FakeExtractor struct {
	Transactions map[string][]warehouse.WarehouseTxMaster
	Snapshots    map[string][]warehouse.WarehouseAccState
}

func NewFakeExtractor() *FakeExtractor {
	return &FakeExtractor{
		Transactions: make(map[string][]warehouse.WarehouseTxMaster),
		Snapshots:    make(map[string][]warehouse.WarehouseAccState),
	}
}

func (f *FakeExtractor) ExtractTransactions(_ context.Context, archiveDir string, _ warehouse.FrameworkVersion) ([]warehouse.WarehouseTxMaster, error) {
	return f.Transactions[archiveDir], nil
}

func (f *FakeExtractor) ExtractSnapshot(_ context.Context, archiveDir string, _ warehouse.FrameworkVersion) ([]warehouse.WarehouseAccState, error) {
	return f.Snapshots[archiveDir], nil
}
