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
	"time"

	"github.com/benbjohnson/clock"
	"github.com/guardio/guardio/pkg/bus"
	"github.com/guardio/guardio/pkg/model"
	"github.com/guardio/guardio/pkg/profile"
	"github.com/sirupsen/logrus"
)

// Agent observes one behavioral modality and publishes anomalies and stats snapshots to the bus
type Agent interface {
	Source() model.Source
	// Run blocks until ctx is done. Sensor failures are reported as Error snapshots, not returned.
	Run(ctx context.Context) error
	// Configure replaces the detection sensitivity and the cooldown of a running agent
	Configure(sigma float64, cooldown time.Duration)
	// Count is the number of samples blended into the agent's profile
	Count() int
}

// Settings are the live settings shared by every agent
type Settings struct {
	Sigma    float64
	Cooldown time.Duration
}

// base is embedded by every agent. mu guards the whole agent state: it is taken by the
// sensor callbacks and by the agent's own loop.
type base struct {
	mu            sync.Mutex
	source        model.Source
	clock         clock.Clock
	out           bus.Publisher
	log           *logrus.Entry
	sigma         float64
	cooldown      time.Duration
	highMargin    float64
	stableAfter   int
	statsInterval time.Duration
	gate          cooldownGate
	lastStats     time.Time
	statsSent     bool
	// decorate, when set, completes every snapshot before it is published
	decorate func(model.StatSnapshot) model.StatSnapshot
}

func (b *base) setup(source model.Source, settings Settings, out bus.Publisher, clk clock.Clock) {
	if clk == nil {
		clk = clock.New()
	}
	b.source = source
	b.clock = clk
	b.out = out
	b.log = logrus.WithField("component", "agent."+string(source))
	b.sigma = settings.Sigma
	b.cooldown = settings.Cooldown
}

func (b *base) Source() model.Source {
	return b.source
}

func (b *base) Configure(sigma float64, cooldown time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sigma = sigma
	b.cooldown = cooldown
	b.log.Debugf("configured sigma=%v cooldown=%v", sigma, cooldown)
}

func (b *base) severity(z float64) model.Severity {
	if z > b.sigma+b.highMargin {
		return model.SeverityHigh
	}
	return model.SeverityMedium
}

// alert publishes ev unless the cooldown gate rejects it. Must be called with mu held.
func (b *base) alert(ev model.AnomalyEvent) bool {
	ev.Source = b.source
	if !b.gate.allow(ev.Timestamp, b.cooldown) {
		alertsSuppressed.WithLabelValues(string(b.source)).Inc()
		b.log.Debugf("suppressed by cooldown: %s", ev.Message)
		return false
	}
	b.log.Debugf("anomaly %s (%s): %s", ev.Cause, ev.Severity, ev.Message)
	b.out.PublishAnomaly(ev)
	return true
}

// stats publishes s at most once per stats interval. Must be called with mu held.
func (b *base) stats(s model.StatSnapshot) {
	if b.statsSent && s.Timestamp.Sub(b.lastStats) < b.statsInterval {
		return
	}
	b.statsSent = true
	b.lastStats = s.Timestamp
	s.Source = b.source
	if b.decorate != nil {
		s = b.decorate(s)
	}
	b.out.PublishStats(s)
}

// discard reports a sample that is not fed to any profile. Must be called with mu held.
func (b *base) discard(p *profile.Profile, at time.Time) {
	samplesDiscarded.WithLabelValues(string(b.source)).Inc()
	b.stats(b.snapshot(p, nil, model.NoteNoSignal, at))
}

func (b *base) snapshot(p *profile.Profile, z *float64, note model.Note, at time.Time) model.StatSnapshot {
	s := model.StatSnapshot{
		Source:    b.source,
		Z:         z,
		Note:      note,
		Count:     p.Count(),
		Timestamp: at,
	}
	if mean, ok := p.Mean(); ok {
		s.Mean = model.Float(mean)
		s.Std = model.Float(p.Std())
	}
	if s.Note == "" {
		if p.Count() < b.stableAfter {
			s.Note = model.NoteAdapting
		} else {
			s.Note = model.NoteStable
		}
	}
	return s
}
