package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/tokenrisk/scanner/internal/domain/scan"
)

// ScanRepository is the pgxpool-backed scan.Repository implementation.
type ScanRepository struct {
	pool *pgxpool.Pool
}

func NewScanRepository(pool *pgxpool.Pool) *ScanRepository {
	return &ScanRepository{pool: pool}
}

// Create inserts a new scan row, queued by the caller before this call.
func (r *ScanRepository) Create(ctx context.Context, s *scan.Scan) error {
	const q = `
INSERT INTO scans (id, network, token_address, status, created_at, scanner_version, score_version)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	_, err := r.pool.Exec(ctx, q, s.ID, s.Network, s.TokenAddress, string(s.Status), s.CreatedAt, s.ScannerVersion, s.ScoreVersion)
	if err != nil {
		return eris.Wrap(err, "postgres: create scan")
	}
	return nil
}

// Get returns the scan by id, or scan.ErrNotFound.
func (r *ScanRepository) Get(ctx context.Context, id scan.ID) (*scan.Scan, error) {
	const q = `
SELECT id, network, token_address, status, created_at, duration_ms, scanner_version, score_version,
       evidence, assessment, narrative, model_id, error
FROM scans WHERE id = $1;`

	row := r.pool.QueryRow(ctx, q, id)
	return scanFromRow(row)
}

// LatestComplete returns the most recently created complete scan for
// (network, tokenAddress), or scan.ErrNotFound if none exists.
func (r *ScanRepository) LatestComplete(ctx context.Context, network, tokenAddress string) (*scan.Scan, error) {
	const q = `
SELECT id, network, token_address, status, created_at, duration_ms, scanner_version, score_version,
       evidence, assessment, narrative, model_id, error
FROM scans
WHERE network = $1 AND token_address = $2 AND status = $3
ORDER BY created_at DESC
LIMIT 1;`

	row := r.pool.QueryRow(ctx, q, network, tokenAddress, string(scan.StatusComplete))
	return scanFromRow(row)
}

// ClaimForRun atomically transitions queued -> running and returns the
// updated row; scan.ErrNotFound if the scan wasn't in queued.
func (r *ScanRepository) ClaimForRun(ctx context.Context, id scan.ID) (*scan.Scan, error) {
	const q = `
UPDATE scans SET status = $1
WHERE id = $2 AND status = $3
RETURNING id, network, token_address, status, created_at, duration_ms, scanner_version, score_version,
          evidence, assessment, narrative, model_id, error;`

	row := r.pool.QueryRow(ctx, q, string(scan.StatusRunning), id, string(scan.StatusQueued))
	return scanFromRow(row)
}

// Complete persists a successful run's final state.
func (r *ScanRepository) Complete(ctx context.Context, id scan.ID, evidence, assessment map[string]any, narrative, modelID string, durationMS int64) error {
	evidenceJSON, err := json.Marshal(evidence)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal evidence")
	}
	assessmentJSON, err := json.Marshal(assessment)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal assessment")
	}

	const q = `
UPDATE scans
SET status = $1, evidence = $2, assessment = $3, narrative = $4, model_id = $5, duration_ms = $6
WHERE id = $7;`

	_, err = r.pool.Exec(ctx, q, string(scan.StatusComplete), evidenceJSON, assessmentJSON, narrative, modelID, durationMS, id)
	if err != nil {
		return eris.Wrap(err, "postgres: complete scan")
	}
	return nil
}

// Fail persists a failed run's partial state.
func (r *ScanRepository) Fail(ctx context.Context, id scan.ID, evidence map[string]any, errMsg string, durationMS int64) error {
	evidenceJSON, err := json.Marshal(evidence)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal evidence")
	}

	const q = `
UPDATE scans
SET status = $1, evidence = $2, error = $3, duration_ms = $4
WHERE id = $5;`

	_, err = r.pool.Exec(ctx, q, string(scan.StatusFailed), evidenceJSON, errMsg, durationMS, id)
	if err != nil {
		return eris.Wrap(err, "postgres: fail scan")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFromRow(row rowScanner) (*scan.Scan, error) {
	var (
		s              scan.Scan
		status         string
		evidenceJSON   []byte
		assessmentJSON []byte
	)

	err := row.Scan(
		&s.ID, &s.Network, &s.TokenAddress, &status, &s.CreatedAt, &s.DurationMS, &s.ScannerVersion, &s.ScoreVersion,
		&evidenceJSON, &assessmentJSON, &s.Narrative, &s.ModelID, &s.Error,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, scan.ErrNotFound
		}
		return nil, eris.Wrap(err, "postgres: scan row")
	}
	s.Status = scan.Status(status)

	if len(evidenceJSON) > 0 {
		if err := json.Unmarshal(evidenceJSON, &s.Evidence); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal evidence")
		}
	}
	if len(assessmentJSON) > 0 {
		if err := json.Unmarshal(assessmentJSON, &s.Assessment); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal assessment")
		}
	}
	return &s, nil
}
