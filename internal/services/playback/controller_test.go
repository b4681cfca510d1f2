package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/interfaces"
	"github.com/ternarybob/audile/internal/models"
)

// fakeSynth implements the AI boundary with canned PCM.
type fakeSynth struct {
	mu    sync.Mutex
	pcm   []byte
	err   error
	calls int
}

func (f *fakeSynth) Explain(ctx context.Context, payload interfaces.ContentPayload, language string) (*models.AnalysisResult, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeSynth) Assess(ctx context.Context, images []interfaces.ImagePayload, referenceText string, language string) (*models.AssessmentResult, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeSynth) ValidateVocal(ctx context.Context, audio []byte, reference interfaces.ContentPayload, language string) (*models.VocalResult, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeSynth) SynthesizeSpeech(ctx context.Context, text string, voice models.VoiceID) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.pcm, f.err
}

// fakeSink records play and stop calls.
type fakeSink struct {
	mu    sync.Mutex
	plays int
	stops int
	err   error
}

func (f *fakeSink) Play(wav []byte) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.plays++
	return func() {
		f.mu.Lock()
		f.stops++
		f.mu.Unlock()
	}, nil
}

func (f *fakeSink) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays, f.stops
}

// longPCM yields a multi-second duration so streams stay active for the
// whole test.
func longPCM() []byte { return make([]byte, 48000*20) }

func waitForState(t *testing.T, c *Controller, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Status().State == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %q, got %q", want, c.Status().State)
}

func TestTriggerStartsPlayback(t *testing.T) {
	synth := &fakeSynth{pcm: longPCM()}
	sink := &fakeSink{}
	c := NewController(synth, nil, sink, 24000, arbor.NewLogger())

	c.Trigger(context.Background(), "p1", "hello", models.VoiceKore)
	waitForState(t, c, StatePlaying)

	status := c.Status()
	assert.Equal(t, "p1", status.ID)

	plays, stops := sink.counts()
	assert.Equal(t, 1, plays)
	assert.Equal(t, 0, stops)
}

func TestTriggerSameIDStops(t *testing.T) {
	synth := &fakeSynth{pcm: longPCM()}
	sink := &fakeSink{}
	c := NewController(synth, nil, sink, 24000, arbor.NewLogger())

	c.Trigger(context.Background(), "p1", "hello", models.VoiceKore)
	waitForState(t, c, StatePlaying)

	// Triggering the active id is a toggle.
	c.Trigger(context.Background(), "p1", "hello", models.VoiceKore)

	status := c.Status()
	assert.Equal(t, StateIdle, status.State)
	assert.Empty(t, status.ID)

	_, stops := sink.counts()
	assert.Equal(t, 1, stops)
	synth.mu.Lock()
	assert.Equal(t, 1, synth.calls, "toggle must not re-synthesize")
	synth.mu.Unlock()
}

func TestTriggerDifferentIDInterrupts(t *testing.T) {
	synth := &fakeSynth{pcm: longPCM()}
	sink := &fakeSink{}
	c := NewController(synth, nil, sink, 24000, arbor.NewLogger())

	c.Trigger(context.Background(), "p1", "first", models.VoiceKore)
	waitForState(t, c, StatePlaying)

	c.Trigger(context.Background(), "p2", "second", models.VoiceKore)
	waitForState(t, c, StatePlaying)

	require.Equal(t, "p2", c.Status().ID)

	plays, stops := sink.counts()
	assert.Equal(t, 2, plays)
	assert.Equal(t, 1, stops, "the first stream must be stopped")
}

func TestSynthesisFailureReturnsToIdle(t *testing.T) {
	synth := &fakeSynth{err: errors.New("quota exceeded")}
	sink := &fakeSink{}
	c := NewController(synth, nil, sink, 24000, arbor.NewLogger())

	c.Trigger(context.Background(), "p1", "hello", models.VoiceKore)
	waitForState(t, c, StateIdle)

	plays, _ := sink.counts()
	assert.Equal(t, 0, plays)
}

func TestPlaybackFailureReturnsToIdle(t *testing.T) {
	synth := &fakeSynth{pcm: longPCM()}
	sink := &fakeSink{err: errors.New("no audio device")}
	c := NewController(synth, nil, sink, 24000, arbor.NewLogger())

	c.Trigger(context.Background(), "p1", "hello", models.VoiceKore)

	// The failure path must release the slot, never wedge it.
	waitForState(t, c, StateIdle)
}

func TestStaleCompletionTimerIsIgnored(t *testing.T) {
	// Tiny clip: the completion timer fires ~200ms after start.
	synth := &fakeSynth{pcm: make([]byte, 48)}
	sink := &fakeSink{}
	c := NewController(synth, nil, sink, 24000, arbor.NewLogger())

	c.Trigger(context.Background(), "p1", "short", models.VoiceKore)
	waitForState(t, c, StatePlaying)

	// Interrupt with a long stream before the first stream's timer fires.
	synth.mu.Lock()
	synth.pcm = longPCM()
	synth.mu.Unlock()
	c.Trigger(context.Background(), "p2", "long", models.VoiceKore)
	waitForState(t, c, StatePlaying)

	// Let the stale timer fire; it must not stop the new stream.
	time.Sleep(400 * time.Millisecond)

	status := c.Status()
	assert.Equal(t, StatePlaying, status.State)
	assert.Equal(t, "p2", status.ID)
}

func TestStopIsIdempotent(t *testing.T) {
	synth := &fakeSynth{pcm: longPCM()}
	sink := &fakeSink{}
	c := NewController(synth, nil, sink, 24000, arbor.NewLogger())

	c.Stop(context.Background())
	assert.Equal(t, StateIdle, c.Status().State)

	c.Trigger(context.Background(), "p1", "hello", models.VoiceKore)
	waitForState(t, c, StatePlaying)

	c.Stop(context.Background())
	c.Stop(context.Background())

	_, stops := sink.counts()
	assert.Equal(t, 1, stops)
}
