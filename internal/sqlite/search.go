package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpggio/workefforts/internal/repository"
)

const defaultSearchLimit = 20

// Search performs a full-text search over indexed record titles and bodies
func (r *IndexRepository) Search(ctx context.Context, query string, limit int) ([]repository.SearchHit, error) {
	match := sanitizeFTS(query)
	if strings.TrimSpace(match) == "" {
		return nil, repository.ErrInvalidInput
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			r.id, r.title, r.status, r.priority, r.assignee, r.tags, r.path, r.mod_time, r.body,
			bm25(records_fts) AS rank,
			snippet(records_fts, 1, '[', ']', '...', 12) AS snippet
		FROM records_fts
		JOIN records r ON r.rowid = records_fts.rowid
		WHERE records_fts MATCH ?
		ORDER BY rank, r.id
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}
	defer rows.Close()

	var hits []repository.SearchHit
	for rows.Next() {
		var hit repository.SearchHit
		rec, err := scanIndexed(rows.Scan, &hit.Rank, &hit.Snippet)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		hit.Record = *rec
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	return hits, nil
}
