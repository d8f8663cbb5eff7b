package server

import (
	"context"
	"sync"

	"github.com/MarcoPoloResearchLab/ost/internal/command"
)

const (
	realtimeEventChange    = "change"
	realtimeEventHeartbeat = "heartbeat"
	realtimeSourceServer   = "ost-server"
	realtimeBufferSize     = 16
)

// ChangeFeed fans committed changes out to stream subscribers. Slow
// subscribers lose messages instead of stalling the dispatcher.
type ChangeFeed struct {
	mu          sync.RWMutex
	subscribers map[int64]chan command.Change
	nextID      int64
	bufferSize  int
	closed      bool
}

// NewChangeFeed returns an empty feed.
func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{
		subscribers: make(map[int64]chan command.Change),
		bufferSize:  realtimeBufferSize,
	}
}

// Subscribe registers a stream that lives until ctx is done or the returned
// cleanup runs. The stream is closed when the feed closes.
func (f *ChangeFeed) Subscribe(ctx context.Context) (<-chan command.Change, func()) {
	stream := make(chan command.Change, f.bufferSize)
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		close(stream)
		return stream, func() {}
	}
	f.nextID++
	id := f.nextID
	f.subscribers[id] = stream
	f.mu.Unlock()

	var once sync.Once
	cleanup := func() {
		once.Do(func() { f.unsubscribe(id) })
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return stream, cleanup
}

// Publish implements command.Notifier.
func (f *ChangeFeed) Publish(change command.Change) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, stream := range f.subscribers {
		select {
		case stream <- change:
		default:
		}
	}
}

// Subscribers reports the number of open streams.
func (f *ChangeFeed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}

// Close ends every open stream and rejects new subscribers.
func (f *ChangeFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, stream := range f.subscribers {
		close(stream)
		delete(f.subscribers, id)
	}
}

func (f *ChangeFeed) unsubscribe(id int64) {
	f.mu.Lock()
	delete(f.subscribers, id)
	f.mu.Unlock()
}
