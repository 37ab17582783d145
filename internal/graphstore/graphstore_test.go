package graphstore

import "testing"

func TestCredentialsFromEnvRequiresURI(t *testing.T) {
	t.Setenv("FORENSIC_GRAPH_DB_URI", "")
	t.Setenv("FORENSIC_GRAPH_DB_USER", "neo4j")
	t.Setenv("FORENSIC_GRAPH_DB_PASS", "secret")

	if _, err := CredentialsFromEnv(); err == nil {
		t.Fatal("expected an error when FORENSIC_GRAPH_DB_URI is unset")
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("FORENSIC_GRAPH_DB_URI", "neo4j://localhost:7687")
	t.Setenv("FORENSIC_GRAPH_DB_USER", "neo4j")
	t.Setenv("FORENSIC_GRAPH_DB_PASS", "secret")

	creds, err := CredentialsFromEnv()
	if err != nil {
		t.Fatalf("CredentialsFromEnv: %v", err)
	}
	if creds.URI != "neo4j://localhost:7687" || creds.Username != "neo4j" || creds.Password != "secret" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
}
