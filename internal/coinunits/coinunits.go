// Package coinunits converts legacy on-chain amounts into the warehouse's
// canonical integer unit.
package coinunits

// CoinDecimalPrecision is the number of integer units representing one coin
// in the post-rebase ledger.
const CoinDecimalPrecision uint64 = 1_000_000

// LegacyRebaseMultiplier corrects V5-era unscaled balances for the chain's
// later decimal rebase.
const LegacyRebaseMultiplier uint64 = 35

// ScaleLegacy converts a V5 unscaled amount into canonical warehouse units.
func ScaleLegacy(unscaled uint64) uint64 {
	return unscaled * CoinDecimalPrecision * LegacyRebaseMultiplier
}
