// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transfer

import (
	"sync"
	"sync/atomic"
	"time"
)

// EventType tells subscribers which part of an Event is meaningful
type EventType string

const (
	EventStatus   EventType = "status"   // batch status changed
	EventUnit     EventType = "unit"     // a unit changed state or became ready
	EventProgress EventType = "progress" // bytes moved
)

// 📣 Event is a notification published to batch subscribers
type Event struct {
	Type             EventType
	BatchID          string
	Status           Status
	Unit             *Unit
	Progress         float64
	TransferredBytes int64
	TotalBytes       int64
}

// notifier fans events out to subscribers without ever blocking the publisher.
// A subscriber that falls behind loses events; its channel is closed when the batch ends.
type notifier struct {
	mu           sync.Mutex
	subs         map[int]chan Event
	next         int
	closed       bool
	lastProgress float64
}

func newNotifier() *notifier {
	return &notifier{subs: map[int]chan Event{}}
}

func (n *notifier) subscribe(buffer int) (<-chan Event, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan Event, buffer)
	if n.closed {
		close(ch)
		return ch, func() {}
	}

	id := n.next
	n.next++
	n.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if sub, ok := n.subs[id]; ok {
				delete(n.subs, id)
				close(sub)
			}
		})
	}
}

// publish delivers build() to every subscriber. build runs under the lock so
// progress values leave in the order they were read.
func (n *notifier) publish(build func() Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed || len(n.subs) == 0 {
		return
	}

	ev := build()
	if ev.Type == EventProgress {
		if ev.Progress < n.lastProgress {
			ev.Progress = n.lastProgress
		}
		n.lastProgress = ev.Progress
	}

	for _, ch := range n.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (n *notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for id, ch := range n.subs {
		close(ch)
		delete(n.subs, id)
	}
}

// throttle lets one caller through per interval
type throttle struct {
	interval time.Duration
	last     atomic.Int64
}

func (t *throttle) allow() bool {
	if t.interval <= 0 {
		return true
	}
	now := time.Now().UnixNano()
	prev := t.last.Load()
	if now-prev < int64(t.interval) {
		return false
	}
	return t.last.CompareAndSwap(prev, now)
}
