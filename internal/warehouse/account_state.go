package warehouse

import "time"

// WarehouseTime carries the full version/time identity of one account-state
// snapshot: the framework generation that produced it, the block version
// and epoch it was taken at, and both the raw microsecond timestamp and its
// decoded wall-clock form. Version+epoch (not the timestamp) are the
// snapshot's actual graph identity — see Snapshot's uniqueness in
// cypherBatchInsertSnapshot.
type WarehouseTime struct {
	FrameworkVersion FrameworkVersion
	Timestamp        uint64
	Datetime         time.Time
	Version          uint64
	Epoch            uint64
}

// SetTime fills in the version-identifying fields of a snapshot record,
// mirroring the constructor step the extractor runs once it has decoded a
// state-snapshot chunk's own version/epoch header.
func (t *WarehouseTime) SetTime(timestamp, version, epoch uint64) {
	t.Timestamp = timestamp
	t.Version = version
	t.Epoch = epoch
}

// WarehouseAccState is one account's balance snapshot at a given block
// version, as recovered from a state-snapshot bundle.
type WarehouseAccState struct {
	Address               string
	Time                  WarehouseTime
	SequenceNum           uint64
	Balance               float64
	SlowWalletUnlocked    *float64
	SlowWalletTransferred *float64
	SlowWalletAcc         bool
	DonorVoiceAcc         bool
	MinerHeight           *uint64
}
