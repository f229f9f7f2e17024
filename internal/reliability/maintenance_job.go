// Package reliability keeps the ledger database healthy over long
// unattended runs.
package reliability

import (
	"database/sql"
	"fmt"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// MaintenanceJob performs nightly ledger database maintenance:
// integrity check, WAL checkpoint and a disk space check.
type MaintenanceJob struct {
	db      *sql.DB
	dataDir string
	log     zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job. dataDir is the
// directory holding the database file.
func NewMaintenanceJob(db *sql.DB, dataDir string, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:      db,
		dataDir: dataDir,
		log:     log.With().Str("job", "db_maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "db_maintenance"
}

// Run executes the maintenance job. A failed integrity check is fatal
// for the job; a failed checkpoint is only logged.
func (j *MaintenanceJob) Run() error {
	startTime := time.Now()

	if err := j.checkIntegrity(); err != nil {
		return err
	}

	// Truncate the WAL so it does not grow unbounded
	if _, err := j.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Database maintenance completed")

	return nil
}

func (j *MaintenanceJob) checkIntegrity() error {
	var result string
	if err := j.db.QueryRow("PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed to run: %w", err)
	}
	if result != "ok" {
		j.log.Error().
			Str("result", result).
			Bool("critical", true).
			Msg("Ledger database failed integrity check")
		return fmt.Errorf("ledger database corrupt: %s", result)
	}
	return nil
}

func (j *MaintenanceJob) checkDiskSpace() error {
	stat := syscall.Statfs_t{}
	if err := j.dataDirStat(&stat); err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(stat.Bavail*uint64(stat.Bsize)) / 1e9
	j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")

	if availableGB < 0.5 {
		return fmt.Errorf("only %.2f GB free on %s", availableGB, j.dataDir)
	}
	return nil
}

func (j *MaintenanceJob) dataDirStat(stat *syscall.Statfs_t) error {
	return syscall.Statfs(j.dataDir, stat)
}
