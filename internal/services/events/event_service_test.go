package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/interfaces"
)

func TestSubscribeRejectsNilHandler(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	err := svc.Subscribe(interfaces.EventAnalysisStarted, nil)
	assert.Error(t, err)
}

func TestPublishSyncDeliversToAllSubscribers(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	var delivered int32
	handler := func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&delivered, 1)
		return nil
	}

	require.NoError(t, svc.Subscribe(interfaces.EventAnalysisCompleted, handler))
	require.NoError(t, svc.Subscribe(interfaces.EventAnalysisCompleted, handler))

	err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventAnalysisCompleted})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&delivered))
}

func TestPublishSyncReportsHandlerFailure(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	require.NoError(t, svc.Subscribe(interfaces.EventAnalysisFailed, func(ctx context.Context, event interfaces.Event) error {
		return errors.New("handler broke")
	}))

	err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventAnalysisFailed})
	assert.Error(t, err)
}

func TestPublishIsAsynchronous(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	done := make(chan struct{})
	require.NoError(t, svc.Subscribe(interfaces.EventPlaybackStarted, func(ctx context.Context, event interfaces.Event) error {
		close(done)
		return nil
	}))

	require.NoError(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventPlaybackStarted}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handler never ran")
	}
}

func TestPublishWithoutSubscribersIsNoOp(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	assert.NoError(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventPlaybackStopped}))
	assert.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventPlaybackStopped}))
}

func TestCloseDropsSubscribers(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	var delivered int32
	require.NoError(t, svc.Subscribe(interfaces.EventAnalysisStarted, func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&delivered, 1)
		return nil
	}))

	require.NoError(t, svc.Close())
	require.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventAnalysisStarted}))
	assert.Equal(t, int32(0), atomic.LoadInt32(&delivered))
}
