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
	"fmt"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/benbjohnson/clock"
	"github.com/guardio/guardio/pkg/api"
	"github.com/guardio/guardio/pkg/bus"
	"github.com/guardio/guardio/pkg/model"
	"github.com/guardio/guardio/pkg/profile"
	"github.com/guardio/guardio/pkg/sensor"
)

// Typing profiles inter-key delays and watches the typing speed
type Typing struct {
	base
	cfg      api.TypingAgent
	src      sensor.KeySource
	delay    *profile.Profile
	lastKey  time.Time
	hasKey   bool
	meter    *wpmMeter
	smoother smoother
	wpm      float64
	burst    *govaluate.EvaluableExpression
}

func NewTyping(cfg api.TypingAgent, settings Settings, src sensor.KeySource, out bus.Publisher, clk clock.Clock) (*Typing, error) {
	cfg.SetDefaults()
	burst, err := govaluate.NewEvaluableExpression(cfg.BurstRule)
	if err != nil {
		return nil, fmt.Errorf("invalid burst rule %q: %w", cfg.BurstRule, err)
	}
	t := &Typing{
		cfg:   cfg,
		src:   src,
		delay: profile.New(cfg.Alpha, cfg.WarmUp),
		meter: newWPMMeter(cfg.WPMWindow.Duration, cfg.WPMIdleReset.Duration),
		burst: burst,
	}
	t.setup(model.SourceTyping, settings, out, clk)
	t.highMargin = cfg.HighMargin
	t.stableAfter = cfg.StableAfter
	t.statsInterval = cfg.StatsInterval.Duration
	t.decorate = t.withWPM
	return t, nil
}

func (t *Typing) Run(ctx context.Context) error {
	sub, err := t.src.Subscribe(t.OnKey)
	if err != nil {
		sensorErrors.WithLabelValues(string(t.source)).Inc()
		t.log.Errorf("can't subscribe to key presses: %v", err)
		t.mu.Lock()
		t.stats(t.snapshot(t.delay, nil, model.NoteError, t.clock.Now()))
		t.mu.Unlock()
		return nil
	}
	defer sub.Cancel()

	t.mu.Lock()
	t.stats(t.snapshot(t.delay, nil, model.NoteAdapting, t.clock.Now()))
	t.mu.Unlock()

	ticker := t.clock.Ticker(t.statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.log.Debug("stopping")
			return nil
		case <-ticker.C:
			t.refresh(t.clock.Now())
		}
	}
}

// OnKey handles one key press; it may be called from any goroutine
func (t *Typing) OnKey(k sensor.KeyPress) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if k.Char {
		t.meter.Add(k.Timestamp)
		t.wpm = t.smoother.Add(t.meter.Rate(k.Timestamp))
	}
	t.checkBurst(k.Timestamp)

	if !t.hasKey {
		t.hasKey = true
		t.lastKey = k.Timestamp
		t.discard(t.delay, k.Timestamp)
		return
	}
	delay := k.Timestamp.Sub(t.lastKey)
	t.lastKey = k.Timestamp
	if delay <= t.cfg.MinDelay.Duration || delay >= t.cfg.MaxDelay.Duration {
		t.discard(t.delay, k.Timestamp)
		return
	}

	seconds := delay.Seconds()
	var zp *float64
	if z, ok := t.delay.ZScore(seconds); ok {
		zp = model.Float(z)
		if z > t.sigma {
			t.alert(model.AnomalyEvent{
				Cause:     model.CauseDelayOutlier,
				Severity:  t.severity(z),
				Message:   fmt.Sprintf("Delay %.0fms, z=%.2f", seconds*1000, z),
				Value:     seconds,
				Z:         zp,
				Timestamp: k.Timestamp,
			})
		}
	}
	t.delay.Update(seconds)
	t.stats(t.snapshot(t.delay, zp, "", k.Timestamp))
}

// checkBurst evaluates the burst rule against the smoothed typing speed. Must be called with mu held.
func (t *Typing) checkBurst(at time.Time) {
	result, err := t.burst.Evaluate(map[string]interface{}{"wpm": t.wpm})
	if err != nil {
		t.log.Debugf("can't evaluate burst rule %q: %v", t.cfg.BurstRule, err)
		return
	}
	if hit, ok := result.(bool); ok && hit {
		t.alert(model.AnomalyEvent{
			Cause:     model.CauseTypingBurst,
			Severity:  model.SeverityHigh,
			Message:   fmt.Sprintf("Unusual Speed Detected: %.0f WPM", t.wpm),
			Value:     t.wpm,
			Timestamp: at,
		})
	}
}

// refresh lets the smoothed speed decay once typing stopped, and publishes a snapshot
func (t *Typing) refresh(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.meter.Rate(now) == 0 && t.wpm > 0 {
		t.wpm = t.smoother.Add(0)
	}
	t.stats(t.snapshot(t.delay, nil, "", now))
}

// withWPM attaches the smoothed speed to every typing snapshot. Called with mu held.
func (t *Typing) withWPM(s model.StatSnapshot) model.StatSnapshot {
	s.WPM = model.Float(t.wpm)
	return s
}

// WPM returns the smoothed typing speed
func (t *Typing) WPM() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.wpm
}

func (t *Typing) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.delay.Count()
}
