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
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/guardio/guardio/pkg/api"
	"github.com/guardio/guardio/pkg/model"
	log "github.com/sirupsen/logrus"
)

var alog = log.WithField("component", "risk.Aggregator")

// Presenter receives everything the aggregator forwards. Calls come from the consumer loop only.
type Presenter interface {
	Anomaly(ev model.AnomalyEvent, score int)
	Critical(b model.Breach)
	Stats(s model.StatSnapshot)
}

// Source is the read side of the event bus
type Source interface {
	DrainAnomalies() []model.AnomalyEvent
	DrainStats() []model.StatSnapshot
}

// Aggregator turns anomalies into a cyclic risk score: each anomaly adds its severity weight,
// and a score strictly above the critical threshold raises a breach and starts over from 0.
type Aggregator struct {
	mu       sync.Mutex
	cfg      api.Risk
	in       Source
	out      Presenter
	clock    clock.Clock
	score    int
	session  string
	latest   map[model.Source]model.StatSnapshot
	lastTick time.Time
}

func NewAggregator(cfg api.Risk, in Source, out Presenter, clk clock.Clock) *Aggregator {
	cfg.SetDefaults()
	if clk == nil {
		clk = clock.New()
	}
	return &Aggregator{
		cfg:    cfg,
		in:     in,
		out:    out,
		clock:  clk,
		latest: map[model.Source]model.StatSnapshot{},
	}
}

// SetSession switches to the event source of a new session and tags the following breaches
// with its identifier
func (a *Aggregator) SetSession(id string, in Source) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = id
	a.in = in
}

// Tick drains both channels until they are empty
func (a *Aggregator) Tick() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastTick = a.clock.Now()

	for _, ev := range a.in.DrainAnomalies() {
		a.score += ev.Severity.Weight()
		anomaliesTotal.WithLabelValues(string(ev.Source), string(ev.Severity)).Inc()
		a.out.Anomaly(ev, a.score)
		if a.score > a.cfg.CriticalThreshold {
			alog.Infof("critical breach: score %d above %d", a.score, a.cfg.CriticalThreshold)
			breachesTotal.Inc()
			a.out.Critical(model.Breach{
				Score:     a.score,
				Threshold: a.cfg.CriticalThreshold,
				Session:   a.session,
				Timestamp: a.clock.Now(),
			})
			a.score = 0
		}
	}
	riskScore.Set(float64(a.score))

	batch := map[model.Source]model.StatSnapshot{}
	for _, s := range a.in.DrainStats() {
		batch[s.Source] = s
	}
	sources := make([]string, 0, len(batch))
	for src := range batch {
		sources = append(sources, string(src))
	}
	sort.Strings(sources)
	for _, src := range sources {
		s := batch[model.Source(src)]
		a.latest[s.Source] = s
		statsForwarded.WithLabelValues(src).Inc()
		a.out.Stats(s)
	}
}

// Run ticks at the configured interval until ctx is done
func (a *Aggregator) Run(ctx context.Context) {
	ticker := a.clock.Ticker(a.cfg.TickInterval.Duration)
	defer ticker.Stop()
	alog.Debugf("consumer loop started, tick interval %v", a.cfg.TickInterval.Duration)
	for {
		select {
		case <-ctx.Done():
			alog.Debug("consumer loop stopped")
			return
		case <-ticker.C:
			a.Tick()
		}
	}
}

func (a *Aggregator) Score() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.score
}

// Latest returns the last snapshot forwarded for a source
func (a *Aggregator) Latest(src model.Source) (model.StatSnapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.latest[src]
	return s, ok
}

// LastTick returns the time of the last drain, zero before the first one
func (a *Aggregator) LastTick() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastTick
}

// Reset sets the score back to 0 and forgets the forwarded snapshots
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.score = 0
	a.latest = map[model.Source]model.StatSnapshot{}
	riskScore.Set(0)
}
