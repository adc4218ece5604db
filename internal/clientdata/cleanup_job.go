package clientdata

import (
	"github.com/rs/zerolog"
)

// Checkpointer truncates the write-ahead log after a cleanup.
type Checkpointer interface {
	WALCheckpoint(mode string) error
}

// CleanupJob removes expired entries from all cache tables.
// It should be scheduled to run daily.
type CleanupJob struct {
	repo *Repository
	wal  Checkpointer
	log  zerolog.Logger
}

// NewCleanupJob creates a new cache cleanup job. wal is optional.
func NewCleanupJob(repo *Repository, wal Checkpointer, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo: repo,
		wal:  wal,
		log:  log.With().Str("job", "client_data_cleanup").Logger(),
	}
}

// Run executes the cleanup job, removing all expired entries from all tables.
func (j *CleanupJob) Run() error {
	results, err := j.repo.DeleteAllExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired client data")
		return err
	}

	var totalDeleted int64
	for table, count := range results {
		if count > 0 {
			j.log.Info().
				Str("table", table).
				Int64("deleted", count).
				Msg("Cleaned up expired cache entries")
			totalDeleted += count
		}
	}

	if totalDeleted > 0 {
		j.log.Info().
			Int64("total_deleted", totalDeleted).
			Msg("Client data cleanup completed")

		if j.wal != nil {
			if err := j.wal.WALCheckpoint("TRUNCATE"); err != nil {
				j.log.Warn().Err(err).Msg("WAL checkpoint after cleanup failed")
			}
		}
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "client_data_cleanup"
}
