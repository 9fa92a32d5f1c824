package recorder

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nvr-orchestrator-go/internal/config"
	"nvr-orchestrator-go/internal/models"
	"nvr-orchestrator-go/internal/procs/procstest"
	"nvr-orchestrator-go/internal/store"
)

type fakeStore struct {
	mu      sync.Mutex
	cameras map[int64]models.Camera
	events  map[int64]*models.RecordingEvent
	nextID  int64

	createErr error
}

func newFakeStore(cams ...models.Camera) *fakeStore {
	fs := &fakeStore{
		cameras: make(map[int64]models.Camera),
		events:  make(map[int64]*models.RecordingEvent),
	}
	for _, c := range cams {
		fs.cameras[c.ID] = c
	}
	return fs
}

func (f *fakeStore) Camera(id int64) (models.Camera, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cameras[id]
	if !ok {
		return models.Camera{}, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) CreateEvent(e models.RecordingEvent) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	e.ID = f.nextID
	f.events[e.ID] = &e
	return e.ID, nil
}

func (f *fakeStore) CloseEvent(id int64, endTime time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return store.ErrNotFound
	}
	e.EndTime = &endTime
	return nil
}

func (f *fakeStore) SetEventThumbnail(id int64, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return store.ErrNotFound
	}
	e.ThumbnailPath = path
	return nil
}

func (f *fakeStore) DeleteEvent(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, id)
	return nil
}

func (f *fakeStore) event(id int64) (models.RecordingEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return models.RecordingEvent{}, false
	}
	return *e, true
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeBus struct {
	mu       sync.Mutex
	messages []SessionNotice
	subjects []string
}

func (b *fakeBus) Publish(subject string, data interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subjects = append(b.subjects, subject)
	if n, ok := data.(SessionNotice); ok {
		b.messages = append(b.messages, n)
	}
	return nil
}

func (b *fakeBus) actions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.messages))
	for i, m := range b.messages {
		out[i] = m.Action
	}
	return out
}

func testService(t *testing.T, st EventStore, runner *procstest.FakeRunner) (*Service, *fakeBus) {
	t.Helper()
	cfg := &config.Config{
		RecordingsRoot: t.TempDir(),
		FFmpegBinary:   "ffmpeg",
		RTSPTransport:  "tcp",
		ClipStopGrace:  time.Second,
	}
	bus := &fakeBus{}
	return NewService(cfg, st, runner, bus), bus
}

func TestBeginCreatesSessionAndEvent(t *testing.T) {
	st := newFakeStore(models.Camera{ID: 4, RTSPURL: "rtsp://10.0.0.4/main", OwnerID: 2})
	runner := procstest.NewFakeRunner()
	svc, bus := testService(t, st, runner)

	eventID, err := svc.Begin(4)
	require.NoError(t, err)
	require.NotZero(t, eventID)
	assert.True(t, svc.Active(4))

	started := runner.Started()
	require.Len(t, started, 1)
	assert.Contains(t, started[0].Spec.Args, "rtsp://10.0.0.4/main")
	assert.Contains(t, started[0].Spec.Args, "frag_keyframe+empty_moov")

	e, ok := st.event(eventID)
	require.True(t, ok)
	assert.Equal(t, int64(2), e.OwnerID)
	assert.Equal(t, "motion", e.Reason)
	assert.Nil(t, e.EndTime)

	assert.Equal(t, []string{"started"}, bus.actions())
}

func TestBeginDuplicateIsIdempotent(t *testing.T) {
	st := newFakeStore(models.Camera{ID: 4, RTSPURL: "rtsp://10.0.0.4/main"})
	runner := procstest.NewFakeRunner()
	svc, _ := testService(t, st, runner)

	first, err := svc.Begin(4)
	require.NoError(t, err)

	second, err := svc.Begin(4)
	assert.ErrorIs(t, err, ErrAlreadyRecording)
	assert.Equal(t, first, second)
	assert.Len(t, runner.Started(), 1)
	assert.Equal(t, 1, st.count())
}

func TestBeginConcurrentStartsYieldOneSession(t *testing.T) {
	st := newFakeStore(models.Camera{ID: 4, RTSPURL: "rtsp://10.0.0.4/main"})
	runner := procstest.NewFakeRunner()
	svc, _ := testService(t, st, runner)

	const n = 20
	var wg sync.WaitGroup
	var successes int32
	var mu sync.Mutex
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Begin(4); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, successes)
	assert.Len(t, runner.Started(), 1)
	assert.Equal(t, 1, st.count())
}

func TestBeginUnknownCamera(t *testing.T) {
	svc, _ := testService(t, newFakeStore(), procstest.NewFakeRunner())

	_, err := svc.Begin(99)
	assert.ErrorIs(t, err, ErrCameraNotFound)
}

func TestBeginRollsBackOnLaunchFailure(t *testing.T) {
	st := newFakeStore(models.Camera{ID: 4, RTSPURL: "rtsp://10.0.0.4/main"})
	runner := procstest.NewFakeRunner()
	runner.StartErr = errors.New("ffmpeg not found")
	svc, _ := testService(t, st, runner)

	_, err := svc.Begin(4)
	require.Error(t, err)
	assert.False(t, svc.Active(4))
	assert.Zero(t, st.count(), "orphaned event row must be rolled back")
}

func TestEndClosesEventAndGeneratesThumbnail(t *testing.T) {
	st := newFakeStore(models.Camera{ID: 4, RTSPURL: "rtsp://10.0.0.4/main"})
	runner := procstest.NewFakeRunner()
	svc, bus := testService(t, st, runner)

	eventID, err := svc.Begin(4)
	require.NoError(t, err)

	require.NoError(t, svc.End(4))
	assert.False(t, svc.Active(4))
	assert.True(t, runner.Started()[0].Stopped())

	e, ok := st.event(eventID)
	require.True(t, ok)
	require.NotNil(t, e.EndTime)

	// Thumbnail extraction is async
	require.Eventually(t, func() bool {
		e, _ := st.event(eventID)
		return e.ThumbnailPath != ""
	}, 3*time.Second, 50*time.Millisecond)

	e, _ = st.event(eventID)
	assert.Equal(t, e.VideoPath[:len(e.VideoPath)-4]+".jpg", e.ThumbnailPath)
	assert.Equal(t, []string{"started", "stopped"}, bus.actions())
}

func TestEndWithoutSession(t *testing.T) {
	svc, _ := testService(t, newFakeStore(), procstest.NewFakeRunner())
	assert.ErrorIs(t, svc.End(4), ErrNothingToStop)
}

func TestThumbnailFailureLeavesPathUnset(t *testing.T) {
	st := newFakeStore(models.Camera{ID: 4, RTSPURL: "rtsp://10.0.0.4/main"})
	runner := procstest.NewFakeRunner()
	runner.RunErr = errors.New("no video stream")
	svc, _ := testService(t, st, runner)

	eventID, err := svc.Begin(4)
	require.NoError(t, err)
	require.NoError(t, svc.End(4))

	// End must still close the event even though the thumbnail fails
	e, ok := st.event(eventID)
	require.True(t, ok)
	require.NotNil(t, e.EndTime)

	time.Sleep(700 * time.Millisecond)
	e, _ = st.event(eventID)
	assert.Empty(t, e.ThumbnailPath)
}

func TestStopAll(t *testing.T) {
	st := newFakeStore(
		models.Camera{ID: 1, RTSPURL: "rtsp://10.0.0.1/main"},
		models.Camera{ID: 2, RTSPURL: "rtsp://10.0.0.2/main"},
	)
	runner := procstest.NewFakeRunner()
	svc, _ := testService(t, st, runner)

	_, err := svc.Begin(1)
	require.NoError(t, err)
	_, err = svc.Begin(2)
	require.NoError(t, err)
	require.Equal(t, 2, svc.ActiveCount())

	svc.StopAll()
	assert.Zero(t, svc.ActiveCount())
	for _, p := range runner.Started() {
		assert.True(t, p.Stopped())
	}
}
