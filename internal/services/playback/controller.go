// -----------------------------------------------------------------------
// Playback Controller - at most one narration stream at a time
// -----------------------------------------------------------------------

package playback

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/interfaces"
	"github.com/ternarybob/audile/internal/models"
)

// State of the single playback slot.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
)

// Status is the externally visible playback state.
type Status struct {
	State State  `json:"state"`
	ID    string `json:"id,omitempty"`
}

// Controller owns the one playback slot. Triggering the active id stops it;
// triggering a different id interrupts whatever is active. Synthesis and
// playback failures are logged and reported as a return to idle, never
// escalated to the caller's analysis flow.
type Controller struct {
	ai         interfaces.AIService
	events     interfaces.EventService
	sink       AudioSink
	logger     arbor.ILogger
	sampleRate int

	mu         sync.Mutex
	state      State
	activeID   string
	stop       func()
	generation uint64
}

// NewController creates a playback controller over the given sink.
func NewController(ai interfaces.AIService, events interfaces.EventService, sink AudioSink, sampleRate int, logger arbor.ILogger) *Controller {
	return &Controller{
		ai:         ai,
		events:     events,
		sink:       sink,
		logger:     logger,
		sampleRate: sampleRate,
		state:      StateIdle,
	}
}

// Status returns the current playback state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{State: c.state, ID: c.activeID}
}

// Stop halts any active or loading stream.
func (c *Controller) Stop(ctx context.Context) {
	c.mu.Lock()
	c.stopLocked()
	c.mu.Unlock()
	c.publish(ctx, interfaces.EventPlaybackStopped, nil)
}

// Trigger requests narration of text under the given stream id.
// Re-triggering the active id is a stop. Triggering while another id is
// active or loading interrupts it unconditionally.
func (c *Controller) Trigger(ctx context.Context, id, text string, voice models.VoiceID) {
	c.mu.Lock()

	if c.state != StateIdle && c.activeID == id {
		c.stopLocked()
		c.mu.Unlock()
		c.publish(ctx, interfaces.EventPlaybackStopped, map[string]string{"id": id})
		return
	}

	if c.state != StateIdle {
		c.stopLocked()
	}

	c.generation++
	generation := c.generation
	c.state = StateLoading
	c.activeID = id
	c.mu.Unlock()

	c.publish(ctx, interfaces.EventPlaybackLoading, map[string]string{"id": id})

	// The request context ends with the HTTP call; synthesis outlives it.
	go c.run(context.Background(), generation, id, text, voice)
}

// run synthesizes and starts one stream. Runs outside the lock; the
// generation check discards work superseded by a newer trigger.
func (c *Controller) run(ctx context.Context, generation uint64, id, text string, voice models.VoiceID) {
	pcm, err := c.ai.SynthesizeSpeech(ctx, text, voice)
	if err != nil {
		c.logger.Error().Err(err).Str("id", id).Msg("Speech synthesis failed")
		c.abandon(ctx, generation)
		return
	}

	wav := FrameWAV(pcm, c.sampleRate)
	duration := PCMDuration(pcm, c.sampleRate)

	c.mu.Lock()
	if c.generation != generation {
		c.mu.Unlock()
		return
	}

	stop, err := c.sink.Play(wav)
	if err != nil {
		c.mu.Unlock()
		c.logger.Error().Err(err).Str("id", id).Msg("Audio playback failed")
		c.abandon(ctx, generation)
		return
	}

	c.state = StatePlaying
	c.stop = stop
	c.mu.Unlock()

	c.publish(ctx, interfaces.EventPlaybackStarted, map[string]interface{}{
		"id":       id,
		"duration": duration.Seconds(),
	})

	c.logger.Info().
		Str("id", id).
		Str("voice", string(voice)).
		Dur("duration", duration).
		Msg("Playback started")

	// The detached player gives no completion signal; a timer returns the
	// slot to idle. The generation guard makes a stale timer a no-op.
	time.AfterFunc(duration+200*time.Millisecond, func() {
		c.mu.Lock()
		if c.generation != generation {
			c.mu.Unlock()
			return
		}
		c.stopLocked()
		c.mu.Unlock()
		c.publish(context.Background(), interfaces.EventPlaybackStopped, map[string]string{"id": id})
	})
}

// abandon returns the slot to idle if generation is still current.
func (c *Controller) abandon(ctx context.Context, generation uint64) {
	c.mu.Lock()
	if c.generation != generation {
		c.mu.Unlock()
		return
	}
	c.stopLocked()
	c.mu.Unlock()
	c.publish(ctx, interfaces.EventPlaybackStopped, nil)
}

// stopLocked clears the slot. The stop function is cleared before being
// invoked so a re-entrant trigger never sees a half-stopped slot.
func (c *Controller) stopLocked() {
	stop := c.stop
	c.stop = nil
	c.state = StateIdle
	c.activeID = ""
	c.generation++
	if stop != nil {
		stop()
	}
}

func (c *Controller) publish(ctx context.Context, eventType interfaces.EventType, payload interface{}) {
	if c.events == nil {
		return
	}
	c.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload})
}
