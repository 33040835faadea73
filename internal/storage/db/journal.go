package db

import (
	"fmt"
	"time"

	"vsmm/internal/domain"
)

// Run statuses
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// StartRun records the beginning of a deploy or undeploy run
func (d *DB) StartRun(id, profile, kind string) error {
	_, err := d.Exec(`
		INSERT INTO deploy_runs (id, profile_name, kind, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, profile, kind, RunRunning, now())
	if err != nil {
		return fmt.Errorf("starting run: %w", err)
	}
	return nil
}

// FinishRun stores the outcome of a run
func (d *DB) FinishRun(id, status, message string) error {
	res, err := d.Exec(`
		UPDATE deploy_runs SET status = ?, message = ?, ended_at = ?
		WHERE id = ?
	`, status, message, now(), id)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finishing run: no run %s", id)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (d *DB) ListRuns(limit int) ([]domain.DeployRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.Query(`
		SELECT id, profile_name, kind, status, message, started_at, ended_at
		FROM deploy_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.DeployRun
	for rows.Next() {
		var r domain.DeployRun
		if err := rows.Scan(&r.ID, &r.Profile, &r.Kind, &r.Status, &r.Message, &r.Started, &r.Ended); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RecordDeployed records that an archive file was placed in the game folder.
// Archive names are unique within the folder, so a later deploy takes ownership.
func (d *DB) RecordDeployed(a domain.DeployedArchive) error {
	_, err := d.Exec(`
		INSERT INTO deployed_archives (archive_name, profile_name, mod_id, version, run_id, deployed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(archive_name) DO UPDATE SET
			profile_name = excluded.profile_name,
			mod_id = excluded.mod_id,
			version = excluded.version,
			run_id = excluded.run_id,
			deployed_at = excluded.deployed_at
	`, a.ArchiveName, a.Profile, a.ModID, a.Version, a.RunID, now())
	if err != nil {
		return fmt.Errorf("recording deployed archive: %w", err)
	}
	return nil
}

// RemoveDeployed forgets a deployed archive. Unknown names are ignored.
func (d *DB) RemoveDeployed(archiveName string) error {
	if _, err := d.Exec(`DELETE FROM deployed_archives WHERE archive_name = ?`, archiveName); err != nil {
		return fmt.Errorf("removing deployed archive: %w", err)
	}
	return nil
}

// ListDeployed returns every journaled archive ordered by profile and name
func (d *DB) ListDeployed() ([]domain.DeployedArchive, error) {
	rows, err := d.Query(`
		SELECT archive_name, profile_name, mod_id, version, run_id
		FROM deployed_archives
		ORDER BY profile_name, archive_name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying deployed archives: %w", err)
	}
	defer rows.Close()

	var archives []domain.DeployedArchive
	for rows.Next() {
		var a domain.DeployedArchive
		if err := rows.Scan(&a.ArchiveName, &a.Profile, &a.ModID, &a.Version, &a.RunID); err != nil {
			return nil, fmt.Errorf("scanning deployed archive: %w", err)
		}
		archives = append(archives, a)
	}
	return archives, rows.Err()
}
