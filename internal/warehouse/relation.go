// Package warehouse defines the core record types for the forensic graph:
// accounts, the transaction ledger, relation labels, and account snapshots.
package warehouse

import "fmt"

// RelationLabel is a closed sum type describing why a transaction edge
// exists between two accounts. It mirrors a Rust enum: an unexported marker
// method keeps the set of implementations fixed to this package.
type RelationLabel interface {
	isRelationLabel()
	// Recipient returns the counterparty address and amount moved, when the
	// label carries one. ok is false for labels with no recipient.
	Recipient() (addr string, amount uint64, ok bool)
	// Kind names the label for Cypher rendering and logging.
	Kind() string
}

// Unknown marks a transaction whose entry function could not be decoded
// into any of the categories below.
type Unknown struct{}

func (Unknown) isRelationLabel()                         {}
func (Unknown) Recipient() (string, uint64, bool)         { return "", 0, false }
func (Unknown) Kind() string                              { return "Unknown" }

// Transfer is a direct balance transfer to Recipient of Amount units.
type Transfer struct {
	RecipientAddr string
	Amount        uint64
}

func (Transfer) isRelationLabel() {}
func (t Transfer) Recipient() (string, uint64, bool) {
	return t.RecipientAddr, t.Amount, true
}
func (Transfer) Kind() string { return "Transfer" }

// Onboarding marks an account-creation transaction, optionally seeded with
// an initial balance moved to Recipient.
type Onboarding struct {
	RecipientAddr string
	Amount        uint64
}

func (Onboarding) isRelationLabel() {}
func (o Onboarding) Recipient() (string, uint64, bool) {
	return o.RecipientAddr, o.Amount, true
}
func (Onboarding) Kind() string { return "Onboarding" }

// Vouch marks a validator-vouching transaction; it carries a recipient but
// never a balance.
type Vouch struct {
	RecipientAddr string
}

func (Vouch) isRelationLabel() {}
func (v Vouch) Recipient() (string, uint64, bool) {
	return v.RecipientAddr, 0, true
}
func (Vouch) Kind() string { return "Vouch" }

// Configuration marks a system/autopay configuration transaction with no
// counterparty.
type Configuration struct{}

func (Configuration) isRelationLabel()                 {}
func (Configuration) Recipient() (string, uint64, bool) { return "", 0, false }
func (Configuration) Kind() string                      { return "Configuration" }

// Miner marks a mining/validator-state commit transaction with no
// counterparty.
type Miner struct{}

func (Miner) isRelationLabel()                 {}
func (Miner) Recipient() (string, uint64, bool) { return "", 0, false }
func (Miner) Kind() string                      { return "Miner" }

// FrameworkVersion identifies which Move/VM bytecode generation produced an
// archive's records. Decoding logic is selected by this tag.
type FrameworkVersion int

const (
	FrameworkUnknown FrameworkVersion = iota
	FrameworkV5
	FrameworkV6
	FrameworkV7
)

func (f FrameworkVersion) String() string {
	switch f {
	case FrameworkV5:
		return "v5"
	case FrameworkV6:
		return "v6"
	case FrameworkV7:
		return "v7"
	default:
		return "unknown"
	}
}

// ParseFrameworkVersion recovers a FrameworkVersion from its String() form.
func ParseFrameworkVersion(s string) (FrameworkVersion, error) {
	switch s {
	case "v5":
		return FrameworkV5, nil
	case "v6":
		return FrameworkV6, nil
	case "v7":
		return FrameworkV7, nil
	default:
		return FrameworkUnknown, fmt.Errorf("unrecognized framework version: %q", s)
	}
}
