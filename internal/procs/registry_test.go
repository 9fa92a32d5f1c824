package procs

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProcess struct{ alive bool }

func (p *stubProcess) Alive() bool              { return p.alive }
func (p *stubProcess) Stop(time.Duration) error { p.alive = false; return nil }

func TestRegistryPutGetRemove(t *testing.T) {
	r := NewRegistry()

	h := &Handle{CameraID: 7, Kind: KindDetection, Proc: &stubProcess{alive: true}, Fingerprint: "a"}
	r.Put(h)

	got, ok := r.Get(7, KindDetection)
	require.True(t, ok)
	assert.Equal(t, "a", got.Fingerprint)

	// Same camera, other kind is a distinct slot
	_, ok = r.Get(7, KindContinuous)
	assert.False(t, ok)

	removed, ok := r.Remove(7, KindDetection)
	require.True(t, ok)
	assert.Same(t, h, removed)

	_, ok = r.Get(7, KindDetection)
	assert.False(t, ok)

	_, ok = r.Remove(7, KindDetection)
	assert.False(t, ok)
}

func TestRegistrySnapshotFiltersByKind(t *testing.T) {
	r := NewRegistry()
	r.Put(&Handle{CameraID: 1, Kind: KindDetection, Proc: &stubProcess{alive: true}})
	r.Put(&Handle{CameraID: 2, Kind: KindDetection, Proc: &stubProcess{alive: true}})
	r.Put(&Handle{CameraID: 2, Kind: KindContinuous, Proc: &stubProcess{alive: true}})

	det := r.Snapshot(KindDetection)
	assert.Len(t, det, 2)
	assert.Contains(t, det, int64(1))
	assert.Contains(t, det, int64(2))

	cont := r.Snapshot(KindContinuous)
	assert.Len(t, cont, 1)

	assert.Equal(t, 3, r.Len())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			r.Put(&Handle{CameraID: id, Kind: KindContinuous, Proc: &stubProcess{alive: true}})
			r.Get(id, KindContinuous)
			r.Snapshot(KindContinuous)
		}(int64(i))
	}
	wg.Wait()
	assert.Equal(t, 50, r.Len())
}
