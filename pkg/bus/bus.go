/*
 * Copyright (C) 2024 IBM, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package bus

import (
	"sync"

	"github.com/guardio/guardio/pkg/model"
)

// Publisher is the write side of the bus, shared by every agent
type Publisher interface {
	PublishAnomaly(ev model.AnomalyEvent)
	PublishStats(s model.StatSnapshot)
}

// queue is an unbounded FIFO. Push never blocks.
type queue[T any] struct {
	mu    sync.Mutex
	items []T
}

func (q *queue[T]) push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
}

// drain hands over every queued item, oldest first, and leaves the queue empty
func (q *queue[T]) drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *queue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Bus carries anomalies and stats snapshots from many agents to a single consumer.
// Buffering is unbounded: queued records are small and short-lived, and a record once published
// stays queued until the consumer drains it.
type Bus struct {
	anomalies queue[model.AnomalyEvent]
	stats     queue[model.StatSnapshot]
}

func New() *Bus {
	return &Bus{}
}

func (b *Bus) PublishAnomaly(ev model.AnomalyEvent) {
	b.anomalies.push(ev)
	pendingGauge.WithLabelValues("anomalies").Inc()
}

func (b *Bus) PublishStats(s model.StatSnapshot) {
	b.stats.push(s)
	pendingGauge.WithLabelValues("stats").Inc()
}

// DrainAnomalies returns all the queued anomalies in publication order.
// It must only be called from the consumer.
func (b *Bus) DrainAnomalies() []model.AnomalyEvent {
	out := b.anomalies.drain()
	pendingGauge.WithLabelValues("anomalies").Sub(float64(len(out)))
	return out
}

// DrainStats returns all the queued snapshots in publication order.
// It must only be called from the consumer.
func (b *Bus) DrainStats() []model.StatSnapshot {
	out := b.stats.drain()
	pendingGauge.WithLabelValues("stats").Sub(float64(len(out)))
	return out
}

// Pending returns the number of queued anomalies and snapshots
func (b *Bus) Pending() (anomalies, stats int) {
	return b.anomalies.len(), b.stats.len()
}
