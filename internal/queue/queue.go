// Package queue tracks per-archive, per-batch ingest progress directly in
// the graph, so a crashed or restarted load run can resume without
// re-inserting batches it already committed.
package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/forensic-graph/warehouse/internal/graphstore"
	"github.com/forensic-graph/warehouse/internal/scan"
)

// UpdateTask marks (archiveID, batch) complete or pending.
func UpdateTask(ctx context.Context, store *graphstore.Store, archiveID string, completed bool, batch int) (string, error) {
	cypher := fmt.Sprintf(
		`MERGE (a:Queue { archive_id: "%s", batch: %d })
		SET a.completed = %t
		RETURN a.archive_id AS archive_id`,
		escape(archiveID), batch, completed,
	)
	row, err := store.RunOne(ctx, cypher)
	if err != nil {
		return "", fmt.Errorf("updating queue task: %w", err)
	}
	id, _ := row["archive_id"].(string)
	return id, nil
}

// GetQueued returns every archive ID with at least one incomplete batch.
func GetQueued(ctx context.Context, store *graphstore.Store) ([]string, error) {
	cypher := `
		MATCH (a:Queue)
		WHERE a.completed = false
		RETURN DISTINCT a.archive_id AS archive_id
	`
	rows, err := store.Run(ctx, cypher)
	if err != nil {
		return nil, fmt.Errorf("listing queued archives: %w", err)
	}
	var ids []string
	for _, r := range rows {
		if id, ok := r["archive_id"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// IsBatchComplete reports the completed flag for (archiveID, batch). ok is
// false when no task for that (archive, batch) pair has been queued yet.
func IsBatchComplete(ctx context.Context, store *graphstore.Store, archiveID string, batch int) (completed bool, ok bool, err error) {
	cypher := fmt.Sprintf(
		`MATCH (a:Queue { archive_id: "%s", batch: %d })
		RETURN DISTINCT a.completed AS completed`,
		escape(archiveID), batch,
	)
	rows, err := store.Run(ctx, cypher)
	if err != nil {
		return false, false, fmt.Errorf("checking batch completion: %w", err)
	}
	if len(rows) == 0 {
		return false, false, nil
	}
	c, _ := rows[0]["completed"].(bool)
	return c, true, nil
}

// AreAllCompleted reports whether every batch queued for archiveID is
// complete. An archive with no queued batches at all is reported as not
// complete, matching the original loader's "no tasks means not yet started"
// convention.
func AreAllCompleted(ctx context.Context, store *graphstore.Store, archiveID string) (bool, error) {
	cypher := fmt.Sprintf(
		`MATCH (a:Queue { archive_id: "%s" })
		WITH COLLECT(a.completed) AS completedStatuses, COUNT(a) AS totalTasks
		RETURN CASE
			WHEN totalTasks = 0 THEN false
			ELSE ALL(status IN completedStatuses WHERE status = true)
		END AS allCompleted`,
		escape(archiveID),
	)
	row, err := store.RunOne(ctx, cypher)
	if err != nil {
		return false, fmt.Errorf("checking all-completed for %s: %w", archiveID, err)
	}
	done, _ := row["allCompleted"].(bool)
	return done, nil
}

// ClearQueue deletes every Queue node, used by the "reset and re-ingest
// from scratch" operator path.
func ClearQueue(ctx context.Context, store *graphstore.Store) error {
	_, err := store.Run(ctx, "MATCH (a:Queue) DELETE a")
	if err != nil {
		return fmt.Errorf("clearing queue: %w", err)
	}
	return nil
}

// PushFromArchiveMap seeds the queue with a pending batch 0 for every
// archive directory discovered by scan, so a fresh run picks all of them up.
func PushFromArchiveMap(ctx context.Context, store *graphstore.Store, archiveMap scan.ArchiveMap) error {
	seen := make(map[string]bool)
	for _, m := range archiveMap.Manifests {
		if seen[m.ArchiveDir] {
			continue
		}
		seen[m.ArchiveDir] = true
		if _, err := UpdateTask(ctx, store, m.ArchiveDir, false, 0); err != nil {
			return fmt.Errorf("enqueueing archive %s: %w", m.ArchiveDir, err)
		}
	}
	return nil
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
