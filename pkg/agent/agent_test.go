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

package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/guardio/guardio/pkg/bus"
	"github.com/guardio/guardio/pkg/model"
	"github.com/stretchr/testify/require"
)

var defaultSettings = Settings{Sigma: 3, Cooldown: 3 * time.Second}

// collector accumulates everything drained from a bus
type collector struct {
	mu        sync.Mutex
	bus       *bus.Bus
	anomalies []model.AnomalyEvent
	stats     []model.StatSnapshot
}

func newCollector() *collector {
	return &collector{bus: bus.New()}
}

func (c *collector) drain() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anomalies = append(c.anomalies, c.bus.DrainAnomalies()...)
	c.stats = append(c.stats, c.bus.DrainStats()...)
}

func (c *collector) Anomalies() []model.AnomalyEvent {
	c.drain()
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.AnomalyEvent{}, c.anomalies...)
}

func (c *collector) Stats() []model.StatSnapshot {
	c.drain()
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.StatSnapshot{}, c.stats...)
}

func (c *collector) hasNote(note model.Note) bool {
	for _, s := range c.Stats() {
		if s.Note == note {
			return true
		}
	}
	return false
}

func requireCooldownSpacing(t *testing.T, events []model.AnomalyEvent, cooldown time.Duration) {
	for i := 1; i < len(events); i++ {
		require.GreaterOrEqual(t, events[i].Timestamp.Sub(events[i-1].Timestamp), cooldown,
			"anomalies %d and %d are too close", i-1, i)
	}
}

func runAgent(t *testing.T, a Agent) (context.CancelFunc, <-chan error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func waitDone(t *testing.T, done <-chan error) {
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		require.Fail(t, "agent did not stop")
	}
}
