package diskmgr

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nvr-orchestrator-go/internal/config"
	"nvr-orchestrator-go/internal/models"
)

const gib = uint64(1024 * 1024 * 1024)

func seg(path string, size int64, mod time.Time, active bool) SegmentFile {
	return SegmentFile{Path: path, Size: size, ModTime: mod, Active: active}
}

func TestPlanEvictionNoopAboveLowWatermark(t *testing.T) {
	files := []SegmentFile{seg("a.mp4", 1<<30, time.Now(), false)}
	assert.Nil(t, PlanEviction(files, 12*gib, 10*gib, 15*gib))
}

func TestPlanEvictionOldestFirstUntilHighWatermark(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	files := []SegmentFile{
		seg("new.mp4", int64(3*gib), base.Add(2*time.Hour), false),
		seg("old.mp4", int64(3*gib), base, false),
		seg("mid.mp4", int64(3*gib), base.Add(time.Hour), false),
	}

	// 8 GiB free, need 7 GiB more to reach 15 GiB: evict oldest three
	plan := PlanEviction(files, 8*gib, 10*gib, 15*gib)
	require.Len(t, plan, 3)
	assert.Equal(t, "old.mp4", plan[0].Path)
	assert.Equal(t, "mid.mp4", plan[1].Path)
	assert.Equal(t, "new.mp4", plan[2].Path)

	// 8 GiB free with bigger files stops once projected free crosses high
	big := []SegmentFile{
		seg("old.mp4", int64(4*gib), base, false),
		seg("mid.mp4", int64(4*gib), base.Add(time.Hour), false),
		seg("new.mp4", int64(4*gib), base.Add(2*time.Hour), false),
	}
	plan = PlanEviction(big, 8*gib, 10*gib, 15*gib)
	require.Len(t, plan, 2)
	assert.Equal(t, "old.mp4", plan[0].Path)
	assert.Equal(t, "mid.mp4", plan[1].Path)
}

func TestPlanEvictionSkipsActiveSegments(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	files := []SegmentFile{
		seg("active.mp4", int64(4*gib), base, true),
		seg("idle.mp4", int64(4*gib), base.Add(time.Hour), false),
	}

	plan := PlanEviction(files, 8*gib, 10*gib, 15*gib)
	require.Len(t, plan, 1)
	assert.Equal(t, "idle.mp4", plan[0].Path)
}

func TestPlanEvictionRunsOutOfCandidates(t *testing.T) {
	files := []SegmentFile{seg("only.mp4", int64(gib), time.Now(), false)}
	plan := PlanEviction(files, 8*gib, 10*gib, 15*gib)
	assert.Len(t, plan, 1)
}

func writeSegment(t *testing.T, root string, camera, name string, mod time.Time) string {
	t.Helper()
	dir := filepath.Join(root, "continuous", camera)
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("segment"), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
	return path
}

func TestCollectSegmentsMarksActive(t *testing.T) {
	root := t.TempDir()
	now := time.Now()

	old1 := writeSegment(t, root, "1", "a.mp4", now.Add(-3*time.Hour))
	newest1 := writeSegment(t, root, "1", "b.mp4", now.Add(-1*time.Hour))
	recent2 := writeSegment(t, root, "2", "c.mp4", now.Add(-30*time.Second))
	// Non-segment files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(root, "continuous", "1", "x.log"), nil, 0644))

	files, err := collectSegments(root, now, 2*time.Minute)
	require.NoError(t, err)
	require.Len(t, files, 3)

	byPath := make(map[string]SegmentFile)
	for _, f := range files {
		byPath[f.Path] = f
	}
	assert.False(t, byPath[old1].Active)
	assert.True(t, byPath[newest1].Active, "newest segment per camera is active")
	assert.True(t, byPath[recent2].Active, "recently modified segment is active")
}

type fakeEventStore struct {
	mu      sync.Mutex
	stale   []models.RecordingEvent
	deleted []int64
}

func (f *fakeEventStore) EventsOlderThan(cutoff time.Time) ([]models.RecordingEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stale, nil
}

func (f *fakeEventStore) DeleteEvent(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeBus struct {
	mu      sync.Mutex
	notices []EvictionNotice
}

func (b *fakeBus) Publish(subject string, data interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n, ok := data.(EvictionNotice); ok {
		b.notices = append(b.notices, n)
	}
	return nil
}

func testService(t *testing.T, st EventStore) (*Service, *fakeBus) {
	t.Helper()
	cfg := &config.Config{
		RecordingsRoot:        t.TempDir(),
		LowWatermarkBytes:     10 * gib,
		HighWatermarkBytes:    15 * gib,
		EvictionRecencyWindow: 2 * time.Minute,
		RetentionDays:         30,
		DiskCheckInterval:     time.Minute,
	}
	bus := &fakeBus{}
	return NewService(cfg, st, bus, nil), bus
}

func TestCheckDiskEvictsWhenBelowLowWatermark(t *testing.T) {
	svc, bus := testService(t, &fakeEventStore{})
	now := time.Now()

	old := writeSegment(t, svc.cfg.RecordingsRoot, "1", "old.mp4", now.Add(-4*time.Hour))
	newest := writeSegment(t, svc.cfg.RecordingsRoot, "1", "new.mp4", now.Add(-1*time.Hour))

	svc.freeBytes = func(string) (uint64, error) { return 8 * gib, nil }
	svc.CheckDisk()

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err), "oldest segment should be evicted")
	_, err = os.Stat(newest)
	assert.NoError(t, err, "active segment must survive")

	require.Len(t, bus.notices, 1)
	assert.Equal(t, 1, bus.notices[0].DeletedFiles)
}

func TestCheckDiskNoopWhenSpaceIsFine(t *testing.T) {
	svc, bus := testService(t, &fakeEventStore{})
	path := writeSegment(t, svc.cfg.RecordingsRoot, "1", "a.mp4", time.Now().Add(-4*time.Hour))

	svc.freeBytes = func(string) (uint64, error) { return 20 * gib, nil }
	svc.CheckDisk()

	_, err := os.Stat(path)
	assert.NoError(t, err)
	assert.Empty(t, bus.notices)
}

func TestEnforceRetentionDeletesFilesAndRows(t *testing.T) {
	root := t.TempDir()
	video := filepath.Join(root, "event_1_20260601-000000.mp4")
	thumb := filepath.Join(root, "event_1_20260601-000000.jpg")
	require.NoError(t, os.WriteFile(video, []byte("v"), 0644))
	require.NoError(t, os.WriteFile(thumb, []byte("t"), 0644))

	st := &fakeEventStore{stale: []models.RecordingEvent{
		{ID: 11, CameraID: 1, VideoPath: video, ThumbnailPath: thumb},
		{ID: 12, CameraID: 2, VideoPath: filepath.Join(root, "gone.mp4")},
	}}
	svc, _ := testService(t, st)
	svc.cfg.RecordingsRoot = root

	svc.EnforceRetention()

	_, err := os.Stat(video)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(thumb)
	assert.True(t, os.IsNotExist(err))
	// Row removed even though its file was already missing
	assert.Equal(t, []int64{11, 12}, st.deleted)
}
