package warehouse

import "time"

// EntryFunctionArgs carries the version-tagged, opaquely-decoded arguments
// of a transaction's entry function call. The loader never interprets the
// payload itself; it is stored only for forensic replay and rendered into
// Cypher as a flattened object by the cypherobj package.
type EntryFunctionArgs struct {
	// Version names which decoder produced Args (e.g. "v5", "v5.2.0", "v6",
	// "v7"). Empty means no entry function payload was captured.
	Version string
	Args    map[string]any
}

// WarehouseTxMaster is one decoded on-chain transaction, the root node of
// the ingest pipeline's output.
type WarehouseTxMaster struct {
	TxHash           string
	Sender           string
	Function         string
	FrameworkVersion FrameworkVersion
	RelationLabel    RelationLabel
	EntryFunction    *EntryFunctionArgs
	BlockTimestamp   uint64
	BlockDatetime    time.Time
	Epoch            uint64
}

// BatchTxReturn accumulates the outcome counters of one batch insert,
// mirroring the four account counters (unique, created, modified,
// unchanged) and the created-transaction count the graph store reports back.
type BatchTxReturn struct {
	UniqueAccounts    uint64
	CreatedAccounts   uint64
	ModifiedAccounts  uint64
	UnchangedAccounts uint64
	CreatedTx         uint64
}

// Increment folds another batch's counters into this accumulator.
func (b *BatchTxReturn) Increment(other BatchTxReturn) {
	b.UniqueAccounts += other.UniqueAccounts
	b.CreatedAccounts += other.CreatedAccounts
	b.ModifiedAccounts += other.ModifiedAccounts
	b.UnchangedAccounts += other.UnchangedAccounts
	b.CreatedTx += other.CreatedTx
}

// UniqueSenderAndRecipients returns the distinct addresses a batch of
// transactions touches, in first-seen order — used to cross-check the
// graph's own reported unique_accounts count.
func UniqueSenderAndRecipients(txs []WarehouseTxMaster) []string {
	seen := make(map[string]bool)
	var addrs []string
	add := func(a string) {
		if a == "" || seen[a] {
			return
		}
		seen[a] = true
		addrs = append(addrs, a)
	}
	for _, t := range txs {
		add(t.Sender)
		if r, _, ok := t.RelationLabel.Recipient(); ok {
			add(r)
		}
	}
	return addrs
}
