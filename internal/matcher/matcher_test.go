package matcher

import "testing"

func TestEliminateCandidatesPromotesUniqueMatch(t *testing.T) {
	m := New()
	deposits := []Deposit{
		{Account: "0xaaa", Deposited: 100},
		{Account: "0xbbb", Deposited: 40},
		{Account: "0xccc", Deposited: 100},
	}

	// round one: funding of 100 only fits 0xaaa and 0xccc, 0xbbb is ruled out.
	m.EliminateCandidates(MinFunding{UserID: 1, Funded: 100}, deposits)
	pending := m.pendingFor(1)
	if len(pending.Maybe) != 2 {
		t.Fatalf("expected 2 surviving candidates, got %v", pending.Maybe)
	}
	if !containsStr(pending.Impossible, "0xbbb") {
		t.Errorf("expected 0xbbb to be ruled out, got %v", pending.Impossible)
	}
	if _, ok := m.Definite[1]; ok {
		t.Fatal("should not yet be definite with two candidates remaining")
	}

	// round two: a narrower deposit set that only 0xaaa still satisfies.
	narrower := []Deposit{
		{Account: "0xaaa", Deposited: 150},
	}
	m.EliminateCandidates(MinFunding{UserID: 1, Funded: 100}, narrower)

	addr, ok := m.Definite[1]
	if !ok || addr != "0xaaa" {
		t.Fatalf("expected user 1 to resolve to 0xaaa, got %q ok=%v", addr, ok)
	}
}

func TestEliminateCandidatesExcludesAlreadyDiscoveredAddress(t *testing.T) {
	m := New()
	m.Definite[99] = "0xaaa"

	deposits := []Deposit{
		{Account: "0xaaa", Deposited: 100},
		{Account: "0xbbb", Deposited: 100},
	}
	m.EliminateCandidates(MinFunding{UserID: 1, Funded: 100}, deposits)

	addr, ok := m.Definite[1]
	if !ok || addr != "0xbbb" {
		t.Fatalf("expected user 1 to resolve to 0xbbb (0xaaa already claimed), got %q ok=%v", addr, ok)
	}
}

func TestSearchReturnsExistingDefiniteWithoutRerunning(t *testing.T) {
	m := New()
	m.Definite[7] = "0xknown"

	addr, ok := m.Search(MinFunding{UserID: 7, Funded: 500}, nil)
	if !ok || addr != "0xknown" {
		t.Fatalf("expected cached definite match, got %q ok=%v", addr, ok)
	}
}

func TestWriteAndReadCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()

	m := New()
	m.Definite[1] = "0xaaa"
	m.Pending[2] = &Candidates{Maybe: []string{"0xbbb", "0xccc"}, Impossible: []string{"0xddd"}}

	if err := m.WriteCacheToFile(dir); err != nil {
		t.Fatalf("WriteCacheToFile: %v", err)
	}

	restored, err := ReadCacheFromFile(dir)
	if err != nil {
		t.Fatalf("ReadCacheFromFile: %v", err)
	}
	if restored.Definite[1] != "0xaaa" {
		t.Errorf("expected restored definite match for user 1, got %+v", restored.Definite)
	}
	if restored.Pending[2] == nil || len(restored.Pending[2].Maybe) != 2 {
		t.Errorf("expected restored pending candidates for user 2, got %+v", restored.Pending[2])
	}

	if err := ClearCache(dir); err != nil {
		t.Fatalf("ClearCache: %v", err)
	}
	if _, err := ReadCacheFromFile(dir); err == nil {
		t.Fatal("expected an error reading a cleared cache")
	}
}

func TestSortFundedDescending(t *testing.T) {
	funded := []MinFunding{
		{UserID: 1, Funded: 10},
		{UserID: 2, Funded: 500},
		{UserID: 3, Funded: 100},
	}
	SortFunded(funded)

	if funded[0].UserID != 2 || funded[1].UserID != 3 || funded[2].UserID != 1 {
		t.Errorf("expected descending funded order, got %+v", funded)
	}
}
