// Package diskmgr enforces disk capacity on the recordings volume and
// age-based retention of event recordings.
package diskmgr

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"nvr-orchestrator-go/internal/config"
	"nvr-orchestrator-go/internal/logging"
	"nvr-orchestrator-go/internal/models"
	"nvr-orchestrator-go/internal/services/messaging"
)

// SegmentFile is one continuous-recording segment considered for eviction.
type SegmentFile struct {
	Path    string
	Size    int64
	ModTime time.Time
	// Active segments are still being written and are never evicted.
	Active bool
}

// EventStore is the slice of the database the retention sweep needs.
type EventStore interface {
	EventsOlderThan(cutoff time.Time) ([]models.RecordingEvent, error)
	DeleteEvent(id int64) error
}

// Publisher is the slice of the messaging service the disk manager needs.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// SessionReaper clears recording sessions whose subprocess died without a
// stop signal.
type SessionReaper interface {
	ReapDead() int
}

// EvictionNotice is published after an eviction pass deletes segments.
type EvictionNotice struct {
	FreeBytes    uint64    `json:"free_bytes"`
	FreedBytes   uint64    `json:"freed_bytes"`
	DeletedFiles int       `json:"deleted_files"`
	Time         time.Time `json:"time"`
}

// Service runs the periodic disk check and retention sweep.
type Service struct {
	cfg    *config.Config
	store  EventStore
	bus    Publisher
	reaper SessionReaper
	logger zerolog.Logger

	// injectable for tests
	freeBytes func(path string) (uint64, error)
	now       func() time.Time
}

func NewService(cfg *config.Config, st EventStore, bus Publisher, reaper SessionReaper) *Service {
	return &Service{
		cfg:       cfg,
		store:     st,
		bus:       bus,
		reaper:    reaper,
		logger:    logging.NewServiceLogger(cfg, "diskmgr"),
		freeBytes: FreeBytes,
		now:       time.Now,
	}
}

// FreeBytes reports the available bytes on the filesystem holding path.
func FreeBytes(path string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// PlanEviction selects segments to delete, oldest first, until projected free
// space reaches high or candidates run out. It returns nil when free is
// already at or above low. Active segments are skipped.
func PlanEviction(files []SegmentFile, free, low, high uint64) []SegmentFile {
	if free >= low {
		return nil
	}

	sorted := make([]SegmentFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ModTime.Before(sorted[j].ModTime) })

	var plan []SegmentFile
	projected := free
	for _, f := range sorted {
		if projected >= high {
			break
		}
		if f.Active {
			continue
		}
		plan = append(plan, f)
		projected += uint64(f.Size)
	}
	return plan
}

// collectSegments enumerates every continuous segment under root. The newest
// segment per camera directory and any segment modified within the recency
// window are marked active, since the recorder may still be writing them.
func collectSegments(root string, now time.Time, recencyWindow time.Duration) ([]SegmentFile, error) {
	continuousRoot := filepath.Join(root, "continuous")

	byDir := make(map[string][]int)
	var files []SegmentFile
	err := filepath.Walk(continuousRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || !strings.HasSuffix(path, ".mp4") {
			return nil
		}
		files = append(files, SegmentFile{
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Active:  now.Sub(info.ModTime()) < recencyWindow,
		})
		dir := filepath.Dir(path)
		byDir[dir] = append(byDir[dir], len(files)-1)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, idxs := range byDir {
		newest := idxs[0]
		for _, i := range idxs[1:] {
			if files[i].ModTime.After(files[newest].ModTime) {
				newest = i
			}
		}
		files[newest].Active = true
	}
	return files, nil
}

// CheckDisk measures free space and evicts old continuous segments when below
// the low watermark. Per-file deletion failures are logged and skipped.
func (s *Service) CheckDisk() {
	free, err := s.freeBytes(s.cfg.RecordingsRoot)
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.cfg.RecordingsRoot).Msg("Failed to stat recordings volume")
		return
	}
	if free >= s.cfg.LowWatermarkBytes {
		return
	}

	s.logger.Warn().Uint64("free_bytes", free).Uint64("low_watermark", s.cfg.LowWatermarkBytes).
		Msg("Low disk space, evicting oldest continuous segments")

	files, err := collectSegments(s.cfg.RecordingsRoot, s.now(), s.cfg.EvictionRecencyWindow)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to enumerate continuous segments")
		return
	}

	var freed uint64
	var deleted int
	for _, f := range PlanEviction(files, free, s.cfg.LowWatermarkBytes, s.cfg.HighWatermarkBytes) {
		if err := os.Remove(f.Path); err != nil {
			s.logger.Warn().Err(err).Str("path", f.Path).Msg("Failed to evict segment, skipping")
			continue
		}
		freed += uint64(f.Size)
		deleted++
	}

	if deleted > 0 {
		s.logger.Info().Int("deleted", deleted).Uint64("freed_bytes", freed).Msg("Eviction pass complete")
		if err := s.bus.Publish(messaging.SubjectEvictions, EvictionNotice{
			FreeBytes: free, FreedBytes: freed, DeletedFiles: deleted, Time: s.now(),
		}); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to publish eviction notice")
		}
	}
}

// EnforceRetention deletes event recordings older than the retention horizon.
// File deletions are best-effort; the event row is removed regardless.
func (s *Service) EnforceRetention() {
	cutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	events, err := s.store.EventsOlderThan(cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to query events for retention")
		return
	}

	for _, e := range events {
		for _, path := range []string{e.VideoPath, e.ThumbnailPath} {
			if path == "" {
				continue
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				s.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove expired recording file")
			}
		}
		if err := s.store.DeleteEvent(e.ID); err != nil {
			s.logger.Warn().Err(err).Int64("event_id", e.ID).Msg("Failed to delete expired event row")
		}
	}

	if len(events) > 0 {
		s.logger.Info().Int("events", len(events)).Int("retention_days", s.cfg.RetentionDays).
			Msg("Retention sweep complete")
	}
}

// Run loops the disk check, retention sweep and dead-session reap on the
// configured interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.cfg.DiskCheckInterval).
		Uint64("low_watermark", s.cfg.LowWatermarkBytes).
		Uint64("high_watermark", s.cfg.HighWatermarkBytes).
		Msg("Disk capacity loop started")

	ticker := time.NewTicker(s.cfg.DiskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Disk capacity loop stopped")
			return
		case <-ticker.C:
			s.CheckDisk()
			s.EnforceRetention()
			if s.reaper != nil {
				if n := s.reaper.ReapDead(); n > 0 {
					s.logger.Warn().Int("sessions", n).Msg("Reaped dead recording sessions")
				}
			}
		}
	}
}
