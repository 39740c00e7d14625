package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/neoyipeng2018/central-bank-tracker/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// BackupJob creates a backup and rotates old ones
type BackupJob struct {
	service       *BackupService
	retentionDays int
	log           zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(service *BackupService, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:       service,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "backup_databases").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *BackupJob) Name() string {
	return "backup_databases"
}

// Run executes the backup job. A failed rotation is logged, not returned.
func (j *BackupJob) Run() error {
	ctx := context.Background()
	if _, err := j.service.CreateAndUploadBackup(ctx); err != nil {
		return err
	}
	if _, err := j.service.RotateOldBackups(ctx, j.retentionDays); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return nil
}

// Free space thresholds for the data directory
const (
	criticalFreeBytes = 500 << 20
	warnFreeBytes     = 5 << 30
)

// MaintenanceJob checks integrity, checkpoints and vacuums every database,
// then checks free disk space
type MaintenanceJob struct {
	databases []*database.DB
	dataDir   string
	// diskUsage is swapped in tests
	diskUsage func(path string) (*disk.UsageStat, error)
	log       zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(dataDir string, log zerolog.Logger, databases ...*database.DB) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		dataDir:   dataDir,
		diskUsage: disk.Usage,
		log:       log.With().Str("job", "database_maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "database_maintenance"
}

// Run executes the maintenance job. A corrupt database or a nearly full disk
// fails the job; VACUUM and checkpoint errors are only logged.
func (j *MaintenanceJob) Run() error {
	j.log.Info().Msg("Starting database maintenance")
	startTime := time.Now()

	for _, db := range j.databases {
		if err := integrityCheck(db); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("CRITICAL: integrity check failed")
			return err
		}
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
		}
		if err := j.vacuumDatabase(db); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("VACUUM failed")
		}
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().Dur("duration_ms", time.Since(startTime)).Msg("Database maintenance completed")
	return nil
}

func integrityCheck(db *database.DB) error {
	var result string
	if err := db.Conn().QueryRow("PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check on %s: %w", db.Name(), err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check on %s: %s", db.Name(), result)
	}
	return nil
}

// vacuumDatabase performs VACUUM on a database
func (j *MaintenanceJob) vacuumDatabase(db *database.DB) error {
	before, err := db.GetStats()
	if err != nil {
		return err
	}

	if _, err := db.Conn().Exec("VACUUM"); err != nil {
		return fmt.Errorf("VACUUM failed: %w", err)
	}

	after, err := db.GetStats()
	if err != nil {
		return err
	}

	j.log.Info().
		Str("database", db.Name()).
		Int64("pages_before", before.PageCount).
		Int64("pages_after", after.PageCount).
		Int64("reclaimed_bytes", (before.PageCount-after.PageCount)*after.PageSize).
		Msg("VACUUM completed")
	return nil
}

// checkDiskSpace verifies sufficient disk space is available
func (j *MaintenanceJob) checkDiskSpace() error {
	usage, err := j.diskUsage(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	available := usage.Free
	j.log.Debug().Uint64("available_bytes", available).Msg("Disk space check")

	if available < criticalFreeBytes {
		j.log.Error().Uint64("available_bytes", available).Msg("CRITICAL: insufficient disk space")
		return fmt.Errorf("only %d MB free in %s", available>>20, j.dataDir)
	}
	if available < warnFreeBytes {
		j.log.Warn().Uint64("available_bytes", available).Msg("Disk space running low")
	}
	return nil
}
