// Package matcher offline-matches exchange user IDs to on-chain addresses
// by cross-referencing each user's inferred funding requirement against
// deposits seen flowing into the exchange's known deposit address,
// progressively narrowing candidates as more of the funding history is
// replayed.
package matcher

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Deposit is one on-chain deposit into the exchange's known address.
type Deposit struct {
	Account   string  `json:"account"`
	Deposited float64 `json:"deposited"`
}

// MinFunding is the funding requirement inferred from an exchange user's
// replayed ledger.
type MinFunding struct {
	UserID uint32  `json:"user_id"`
	Funded float64 `json:"funded"`
}

// Candidates tracks, for one exchange user, the addresses still consistent
// with their funding history and the ones already ruled out.
type Candidates struct {
	Maybe      []string `json:"maybe"`
	Impossible []string `json:"impossible"`
}

// Matching is the accumulated state of the address-matching search: users
// resolved to a single definite address, and users still narrowed to a
// pending candidate set.
type Matching struct {
	Definite map[uint32]string     `json:"definite"`
	Pending  map[uint32]*Candidates `json:"pending"`
}

// New returns an empty matching state.
func New() *Matching {
	return &Matching{
		Definite: make(map[uint32]string),
		Pending:  make(map[uint32]*Candidates),
	}
}

func (m *Matching) pendingFor(userID uint32) *Candidates {
	c, ok := m.Pending[userID]
	if !ok {
		c = &Candidates{}
		m.Pending[userID] = c
	}
	return c
}

func containsStr(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func (m *Matching) isDiscovered(addr string) bool {
	for _, v := range m.Definite {
		if v == addr {
			return true
		}
	}
	return false
}

// EliminateCandidates narrows user's pending candidate set against
// deposits: any deposit at least as large as the user's funding requirement
// stays a "maybe" (intersected with any prior maybe set, since a true match
// must appear consistently across every elimination round); anything
// smaller is marked impossible. A candidate set that narrows to exactly one
// address is promoted to definite.
func (m *Matching) EliminateCandidates(user MinFunding, deposits []Deposit) {
	pending := m.pendingFor(user.UserID)

	var eval []string
	for _, d := range deposits {
		if d.Deposited >= user.Funded && !containsStr(pending.Impossible, d.Account) && !m.isDiscovered(d.Account) {
			if !containsStr(eval, d.Account) {
				eval = append(eval, d.Account)
			}
		} else if !containsStr(pending.Impossible, d.Account) {
			pending.Impossible = append(pending.Impossible, d.Account)
		}
	}

	if len(pending.Maybe) == 0 {
		pending.Maybe = append(pending.Maybe, eval...)
	} else {
		var kept []string
		for _, x := range eval {
			if containsStr(pending.Maybe, x) {
				kept = append(kept, x)
			}
		}
		if len(kept) > 0 {
			pending.Maybe = kept
		}
	}

	if len(pending.Maybe) == 1 {
		m.Definite[user.UserID] = pending.Maybe[0]
	}
}

// MatchExactSellers handles the special case of users whose entire ledger
// history is outflows funded exactly by deposits: a deposit strictly
// greater than (but within tolerance of) the user's funding requirement is
// a maybe; a unique maybe across all sellers becomes definite.
func (m *Matching) MatchExactSellers(userList []MinFunding, deposits []Deposit, tolerance float64) {
	for _, user := range userList {
		pending := m.pendingFor(user.UserID)
		var candidates []string
		for _, d := range deposits {
			if d.Deposited > user.Funded &&
				d.Deposited <= user.Funded*tolerance &&
				!containsStr(pending.Impossible, d.Account) &&
				!m.isDiscovered(d.Account) {
				candidates = append(candidates, d.Account)
			}
		}
		pending.Maybe = candidates
	}

	for _, user := range userList {
		pending := m.pendingFor(user.UserID)
		if len(pending.Maybe) == 1 {
			m.Definite[user.UserID] = pending.Maybe[0]
		}
	}
}

// Search returns the definite address for user if one is already known,
// otherwise it runs one elimination round and returns the result, reporting
// ok=false if the user still has no unique candidate.
func (m *Matching) Search(user MinFunding, deposits []Deposit) (string, bool) {
	if a, ok := m.Definite[user.UserID]; ok {
		return a, true
	}
	m.EliminateCandidates(user, deposits)
	a, ok := m.Definite[user.UserID]
	return a, ok
}

// SortFunded sorts in descending order of funding requirement.
func SortFunded(funded []MinFunding) {
	sort.Slice(funded, func(i, j int) bool { return funded[i].Funded > funded[j].Funded })
}

// DaysInRange enumerates every day from start to end inclusive.
func DaysInRange(start, end time.Time) []time.Time {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// WriteCacheToFile persists the full matching state (definite + pending)
// to cache.json under dir.
func (m *Matching) WriteCacheToFile(dir string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("serializing matcher cache: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "cache.json"), data, 0o644)
}

// ReadCacheFromFile restores matching state previously written by
// WriteCacheToFile.
func ReadCacheFromFile(dir string) (*Matching, error) {
	data, err := os.ReadFile(filepath.Join(dir, "cache.json"))
	if err != nil {
		return nil, fmt.Errorf("reading matcher cache: %w", err)
	}
	var m Matching
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing matcher cache: %w", err)
	}
	return &m, nil
}

// ClearCache removes a previously written cache.json.
func ClearCache(dir string) error {
	return os.Remove(filepath.Join(dir, "cache.json"))
}

// WriteDefiniteToFile persists only the resolved definite matches, as the
// operator-facing export of the matcher's confirmed results.
func (m *Matching) WriteDefiniteToFile(dir string) error {
	data, err := json.MarshalIndent(m.Definite, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing definite matches: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "definite.json"), data, 0o644)
}
