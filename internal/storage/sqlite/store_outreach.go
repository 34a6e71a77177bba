package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hirewire/hirewire/internal/storage"
)

// CountOutreachForJob counts threads attributed to the job. Attribution is
// write-once per thread, so the count equals distinct candidate conversations
// that started around this posting.
func (s *Store) CountOutreachForJob(ctx context.Context, jobID string) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if strings.TrimSpace(jobID) == "" {
		return 0, fmt.Errorf("job id is required")
	}

	var count int
	row := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM threads WHERE attributed_job_id = ?`, jobID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count outreach for job: %w", err)
	}
	return count, nil
}

// SummarizeOutreachForCompany aggregates thread attribution across the
// company's postings. Deleted postings keep their historical counts.
func (s *Store) SummarizeOutreachForCompany(ctx context.Context, companyID string) (storage.OutreachSummary, error) {
	if err := s.ready(ctx); err != nil {
		return storage.OutreachSummary{}, err
	}
	if strings.TrimSpace(companyID) == "" {
		return storage.OutreachSummary{}, fmt.Errorf("company id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT j.id, j.title, COUNT(t.id) AS thread_count
FROM jobs j
LEFT JOIN threads t ON t.attributed_job_id = j.id
WHERE j.company_id = ?
GROUP BY j.id, j.title
ORDER BY thread_count DESC, j.created_at ASC
`, companyID)
	if err != nil {
		return storage.OutreachSummary{}, fmt.Errorf("summarize outreach: %w", err)
	}
	defer rows.Close()

	summary := storage.OutreachSummary{CompanyID: companyID}
	for rows.Next() {
		var jc storage.JobOutreachCount
		if err := rows.Scan(&jc.JobID, &jc.Title, &jc.Threads); err != nil {
			return storage.OutreachSummary{}, fmt.Errorf("scan outreach count: %w", err)
		}
		summary.Jobs = append(summary.Jobs, jc)
		summary.AttributedThreads += jc.Threads
	}
	if err := rows.Err(); err != nil {
		return storage.OutreachSummary{}, fmt.Errorf("iterate outreach counts: %w", err)
	}

	candidates, err := s.distinctCandidates(ctx, companyID)
	if err != nil {
		return storage.OutreachSummary{}, err
	}
	summary.DistinctCandidates = candidates
	return summary, nil
}

// distinctCandidates counts unique non-company participants across attributed
// threads. The company side of each thread is whichever participant sent the
// attributing first message, so the candidate is the other one; attribution
// stores only the job, so we resolve the company side through company
// ownership and membership.
func (s *Store) distinctCandidates(ctx context.Context, companyID string) (int, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT t.participant_a, t.participant_b
FROM threads t
JOIN jobs j ON j.id = t.attributed_job_id
WHERE j.company_id = ?
`, companyID)
	if err != nil {
		return 0, fmt.Errorf("list attributed threads: %w", err)
	}
	defer rows.Close()

	type pair struct{ a, b string }
	var pairs []pair
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.a, &p.b); err != nil {
			return 0, fmt.Errorf("scan thread participants: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate thread participants: %w", err)
	}
	if len(pairs) == 0 {
		return 0, nil
	}

	companySide, err := s.companyPrincipals(ctx, companyID)
	if err != nil {
		return 0, err
	}

	candidates := make(map[string]struct{})
	for _, p := range pairs {
		if _, ok := companySide[p.a]; ok {
			candidates[p.b] = struct{}{}
			continue
		}
		candidates[p.a] = struct{}{}
	}
	return len(candidates), nil
}

// RecountOutreachAttribution re-derives attribution from the message log.
// The derived value matches what AppendMessage settles on: the job carried by
// the lowest-sequence job-bearing message, or empty when none exists.
func (s *Store) RecountOutreachAttribution(ctx context.Context) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE threads SET attributed_job_id = COALESCE(
	(SELECT m.job_id FROM messages m
	 WHERE m.thread_id = threads.id AND m.job_id <> ''
	 ORDER BY m.seq ASC LIMIT 1), '')
WHERE attributed_job_id <> COALESCE(
	(SELECT m.job_id FROM messages m
	 WHERE m.thread_id = threads.id AND m.job_id <> ''
	 ORDER BY m.seq ASC LIMIT 1), '')
`)
	if err != nil {
		return 0, fmt.Errorf("recount outreach attribution: %w", err)
	}
	changed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("recount outreach attribution rows: %w", err)
	}
	return int(changed), nil
}

// companyPrincipals returns the set of principals acting for the company:
// the owner plus every member.
func (s *Store) companyPrincipals(ctx context.Context, companyID string) (map[string]struct{}, error) {
	principals := make(map[string]struct{})

	var ownerID string
	row := s.sqlDB.QueryRowContext(ctx, `SELECT owner_id FROM companies WHERE id = ?`, companyID)
	if err := row.Scan(&ownerID); err == nil {
		principals[ownerID] = struct{}{}
	}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT principal_id FROM memberships WHERE company_id = ?`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list company members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var principalID string
		if err := rows.Scan(&principalID); err != nil {
			return nil, fmt.Errorf("scan company member: %w", err)
		}
		principals[principalID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate company members: %w", err)
	}
	return principals, nil
}
