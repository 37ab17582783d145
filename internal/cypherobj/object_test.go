package cypherobj

import "testing"

type flatRecord struct {
	Name   string `json:"name"`
	Amount int    `json:"amount"`
}

type nestedRecord struct {
	ID     int      `json:"id"`
	Inner  inner    `json:"inner"`
	Labels []string `json:"labels"`
}

type inner struct {
	City string `json:"city"`
	Deep deep   `json:"deep"`
}

type deep struct {
	Value string `json:"value"`
}

func TestToObjectFlatRecord(t *testing.T) {
	got, err := ToObject(flatRecord{Name: "alice", Amount: 10})
	if err != nil {
		t.Fatalf("ToObject: %v", err)
	}
	want := `{amount: 10, name: "alice"}`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestToObjectFlattensOneLevel(t *testing.T) {
	got, err := ToObject(nestedRecord{
		ID:     1,
		Inner:  inner{City: "gotham"},
		Labels: []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("ToObject: %v", err)
	}
	want := `{id: 1, inner_city: "gotham", inner_deep: "unsupported_nested_value", labels: ["a", "b"]}`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestToObjectListJoinsEachRecord(t *testing.T) {
	got, err := ToObjectList([]flatRecord{
		{Name: "a", Amount: 1},
		{Name: "b", Amount: 2},
	})
	if err != nil {
		t.Fatalf("ToObjectList: %v", err)
	}
	want := `[{amount: 1, name: "a"}, {amount: 2, name: "b"}]`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestQuoteCypherStringEscapesQuotesAndBackslashes(t *testing.T) {
	got := quoteCypherString(`a "quoted" \path\`)
	want := `"a \"quoted\" \\path\\"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
