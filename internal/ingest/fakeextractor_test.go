package ingest

import (
	"context"
	"testing"

	"github.com/forensic-graph/warehouse/internal/warehouse"
)

func TestFakeExtractorReturnsStashedRecords(t *testing.T) {
	f := NewFakeExtractor()
	f.Transactions["archive-a"] = []warehouse.WarehouseTxMaster{{TxHash: "0x1"}}
	f.Snapshots["archive-a"] = []warehouse.WarehouseAccState{{Address: "0xabc"}}

	txs, err := f.ExtractTransactions(context.Background(), "archive-a", warehouse.FrameworkV7)
	if err != nil {
		t.Fatalf("ExtractTransactions: %v", err)
	}
	if len(txs) != 1 || txs[0].TxHash != "0x1" {
		t.Errorf("unexpected transactions: %+v", txs)
	}

	snaps, err := f.ExtractSnapshot(context.Background(), "archive-a", warehouse.FrameworkV7)
	if err != nil {
		t.Fatalf("ExtractSnapshot: %v", err)
	}
	if len(snaps) != 1 || snaps[0].Address != "0xabc" {
		t.Errorf("unexpected snapshots: %+v", snaps)
	}
}

func TestFakeExtractorUnknownArchiveReturnsEmpty(t *testing.T) {
	f := NewFakeExtractor()

	txs, err := f.ExtractTransactions(context.Background(), "missing", warehouse.FrameworkV6)
	if err != nil {
		t.Fatalf("ExtractTransactions: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected no transactions for an unstashed archive, got %+v", txs)
	}
}
