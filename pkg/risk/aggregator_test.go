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

package risk

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/guardio/guardio/pkg/api"
	"github.com/guardio/guardio/pkg/bus"
	"github.com/guardio/guardio/pkg/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	scores   []int
	breaches []model.Breach
	stats    []model.StatSnapshot
}

func (r *recorder) Anomaly(_ model.AnomalyEvent, score int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores = append(r.scores, score)
}

func (r *recorder) Critical(b model.Breach) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breaches = append(r.breaches, b)
}

func (r *recorder) Stats(s model.StatSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, s)
}

func (r *recorder) Scores() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int{}, r.scores...)
}

func high(src model.Source) model.AnomalyEvent {
	return model.AnomalyEvent{Source: src, Severity: model.SeverityHigh, Cause: model.CauseSpeedOutlier}
}

func TestScoreSequence(t *testing.T) {
	b := bus.New()
	rec := &recorder{}
	agg := NewAggregator(api.Risk{}, b, rec, clock.NewMock())
	agg.SetSession("s1", b)

	for i := 0; i < 5; i++ {
		b.PublishAnomaly(high(model.SourceMovement))
	}
	agg.Tick()
	assert.Equal(t, []int{3, 6, 9, 12, 15}, rec.Scores())
	assert.Empty(t, rec.breaches, "15 is not above the threshold")
	assert.Equal(t, 15, agg.Score())

	b.PublishAnomaly(high(model.SourceTyping))
	agg.Tick()
	assert.Equal(t, []int{3, 6, 9, 12, 15, 18}, rec.Scores())
	require.Len(t, rec.breaches, 1)
	assert.Equal(t, 18, rec.breaches[0].Score)
	assert.Equal(t, 15, rec.breaches[0].Threshold)
	assert.Equal(t, "s1", rec.breaches[0].Session)
	assert.Equal(t, 0, agg.Score())
}

func TestBurstTriggersMultipleResets(t *testing.T) {
	b := bus.New()
	rec := &recorder{}
	agg := NewAggregator(api.Risk{}, b, rec, clock.NewMock())
	before := testutil.ToFloat64(breachesTotal)

	for i := 0; i < 12; i++ {
		b.PublishAnomaly(high(model.SourceAppUsage))
	}
	b.PublishAnomaly(model.AnomalyEvent{Source: model.SourceAppUsage, Severity: model.SeverityMedium})
	b.PublishAnomaly(model.AnomalyEvent{Source: model.SourceAppUsage, Severity: model.SeverityLow})
	agg.Tick()

	assert.Len(t, rec.breaches, 2)
	assert.Equal(t, before+2, testutil.ToFloat64(breachesTotal))
	assert.Equal(t, 3, agg.Score())
	anomalies, stats := b.Pending()
	assert.Zero(t, anomalies)
	assert.Zero(t, stats)
}

func TestConfiguredThreshold(t *testing.T) {
	b := bus.New()
	rec := &recorder{}
	agg := NewAggregator(api.Risk{CriticalThreshold: 5}, b, rec, clock.NewMock())
	b.PublishAnomaly(high(model.SourceMovement))
	b.PublishAnomaly(high(model.SourceMovement))
	agg.Tick()
	require.Len(t, rec.breaches, 1)
	assert.Equal(t, 6, rec.breaches[0].Score)
}

func TestStatsLastWriteWins(t *testing.T) {
	b := bus.New()
	rec := &recorder{}
	agg := NewAggregator(api.Risk{}, b, rec, clock.NewMock())

	for i := 1; i <= 3; i++ {
		b.PublishStats(model.StatSnapshot{Source: model.SourceMovement, Count: i})
	}
	b.PublishStats(model.StatSnapshot{Source: model.SourceTyping, Count: 7})
	agg.Tick()

	require.Len(t, rec.stats, 2)
	assert.Equal(t, model.SourceMovement, rec.stats[0].Source)
	assert.Equal(t, 3, rec.stats[0].Count)
	assert.Equal(t, 7, rec.stats[1].Count)

	latest, ok := agg.Latest(model.SourceMovement)
	require.True(t, ok)
	assert.Equal(t, 3, latest.Count)
	_, ok = agg.Latest(model.SourceAppUsage)
	assert.False(t, ok)

	// nothing new, nothing forwarded
	agg.Tick()
	assert.Len(t, rec.stats, 2)
}

func TestReset(t *testing.T) {
	b := bus.New()
	agg := NewAggregator(api.Risk{}, b, &recorder{}, clock.NewMock())
	b.PublishAnomaly(high(model.SourceMovement))
	b.PublishStats(model.StatSnapshot{Source: model.SourceMovement})
	agg.Tick()
	require.Equal(t, 3, agg.Score())

	agg.Reset()
	assert.Equal(t, 0, agg.Score())
	_, ok := agg.Latest(model.SourceMovement)
	assert.False(t, ok)
	assert.Equal(t, 0.0, testutil.ToFloat64(riskScore))
}

func TestRun(t *testing.T) {
	clk := clock.NewMock()
	b := bus.New()
	rec := &recorder{}
	agg := NewAggregator(api.Risk{}, b, rec, clk)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		agg.Run(ctx)
		close(done)
	}()

	b.PublishAnomaly(high(model.SourceMovement))
	require.Eventually(t, func() bool {
		clk.Add(100 * time.Millisecond)
		return len(rec.Scores()) == 1
	}, 5*time.Second, time.Millisecond)
	assert.False(t, agg.LastTick().IsZero())

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.Fail(t, "consumer loop did not stop")
	}
}

func TestSetSessionSwitchesSource(t *testing.T) {
	old := bus.New()
	rec := &recorder{}
	agg := NewAggregator(api.Risk{}, old, rec, clock.NewMock())

	next := bus.New()
	agg.SetSession("s2", next)
	old.PublishAnomaly(high(model.SourceMovement))
	next.PublishAnomaly(high(model.SourceTyping))
	agg.Tick()
	assert.Equal(t, []int{3}, rec.Scores())
	assert.Equal(t, 3, agg.Score())
}
