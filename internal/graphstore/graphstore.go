// Package graphstore wraps the Neo4j driver connection the rest of the
// loader runs literal-embedded Cypher queries against. Queries are never
// parameterized here: every caller builds a complete query string (often
// via internal/cypherobj) and this package just runs it and folds the
// result rows into plain maps, mirroring the teacher's *sql.DB pool.
package graphstore

import (
	"context"
	"fmt"
	"os"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/forensic-graph/warehouse/pkg/logging"
)

// Credentials holds the connection parameters read from the environment.
type Credentials struct {
	URI      string
	Username string
	Password string
}

// CredentialsFromEnv reads FORENSIC_GRAPH_DB_URI/_USER/_PASS, the renamed
// form of this loader's graph-database connection variables.
func CredentialsFromEnv() (Credentials, error) {
	uri := os.Getenv("FORENSIC_GRAPH_DB_URI")
	if uri == "" {
		return Credentials{}, fmt.Errorf("FORENSIC_GRAPH_DB_URI is not set")
	}
	return Credentials{
		URI:      uri,
		Username: os.Getenv("FORENSIC_GRAPH_DB_USER"),
		Password: os.Getenv("FORENSIC_GRAPH_DB_PASS"),
	}, nil
}

// Store wraps a single Neo4j driver instance, shared by every caller the
// way the teacher shares one *sql.DB across its storage accessors.
type Store struct {
	driver neo4j.DriverWithContext
}

// Open dials the graph database and verifies connectivity.
func Open(ctx context.Context, creds Credentials) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(creds.URI, neo4j.BasicAuth(creds.Username, creds.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("constructing neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verifying graph database connectivity: %w", err)
	}
	logging.GetDefault().Info("connected to graph database", "uri", creds.URI)
	return &Store{driver: driver}, nil
}

// Close releases the underlying driver.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Row is one result record, keyed by its returned column alias.
type Row map[string]any

// Run executes cypher (a complete, literal-embedded query string with no
// driver parameters) and returns all result rows.
func (s *Store) Run(ctx context.Context, cypher string) ([]Row, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, nil)
	if err != nil {
		return nil, fmt.Errorf("running query: %w", err)
	}

	var rows []Row
	for result.Next(ctx) {
		rec := result.Record()
		row := make(Row, len(rec.Keys))
		for _, k := range rec.Keys {
			v, _ := rec.Get(k)
			row[k] = v
		}
		rows = append(rows, row)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("query string: %s: %w", cypher, err)
	}
	return rows, nil
}

// RunOne is Run, but requires and returns exactly the first row.
func (s *Store) RunOne(ctx context.Context, cypher string) (Row, error) {
	rows, err := s.Run(ctx, cypher)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no row returned for query: %s", cypher)
	}
	return rows[0], nil
}

// schemaStatements are the constraint/index DDL statements run once at
// startup. The uniqueness constraint targets the :Tx edge label
// consistently with every other reference to the transaction edge in this
// package; the original loader's init script named the constraint after a
// :Transfer label that does not match any query it actually ran, which was
// a naming slip corrected here rather than carried forward.
var schemaStatements = []string{
	"CREATE CONSTRAINT account_address_unique IF NOT EXISTS FOR (a:Account) REQUIRE a.address IS UNIQUE",
	"CREATE CONSTRAINT tx_hash_unique IF NOT EXISTS FOR ()-[t:Tx]-() REQUIRE t.tx_hash IS UNIQUE",
	"CREATE CONSTRAINT queue_archive_batch_unique IF NOT EXISTS FOR (q:Queue) REQUIRE (q.archive_id, q.batch) IS UNIQUE",
	"CREATE INDEX snapshot_address_epoch_version IF NOT EXISTS FOR (s:Snapshot) ON (s.address, s.epoch, s.version)",
	"CREATE INDEX tx_block_datetime IF NOT EXISTS FOR ()-[t:Tx]-() ON (t.block_datetime)",
	"CREATE INDEX tx_coins IF NOT EXISTS FOR ()-[t:Tx]-() ON (t.coins)",
	"CREATE INDEX tx_framework_version IF NOT EXISTS FOR ()-[t:Tx]-() ON (t.framework_version)",
	"CREATE INDEX tx_relation IF NOT EXISTS FOR ()-[t:Tx]-() ON (t.relation)",
	"CREATE INDEX swap_account_swap_id IF NOT EXISTS FOR (s:SwapAccount) ON (s.swap_id)",
	"CREATE INDEX swap_filled_at IF NOT EXISTS FOR ()-[s:Swap]-() ON (s.filled_at)",
	"CREATE INDEX user_ledger_date IF NOT EXISTS FOR (u:UserLedger) ON (u.date)",
}

// EnsureSchema creates every constraint/index this loader depends on,
// idempotently (IF NOT EXISTS on every statement).
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.Run(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema statement %q: %w", stmt, err)
		}
	}
	logging.GetDefault().Info("graph schema constraints and indexes ensured")
	return nil
}
