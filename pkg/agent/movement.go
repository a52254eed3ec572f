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
	"math"

	"github.com/benbjohnson/clock"
	"github.com/guardio/guardio/pkg/api"
	"github.com/guardio/guardio/pkg/bus"
	"github.com/guardio/guardio/pkg/model"
	"github.com/guardio/guardio/pkg/profile"
	"github.com/guardio/guardio/pkg/sensor"
)

// Movement profiles the pointer speed and flags speed outliers
type Movement struct {
	base
	cfg   api.MovementAgent
	src   sensor.PointerSource
	speed *profile.Profile
	prev  *sensor.PointerSample
}

func NewMovement(cfg api.MovementAgent, settings Settings, src sensor.PointerSource, out bus.Publisher, clk clock.Clock) *Movement {
	cfg.SetDefaults()
	m := &Movement{
		cfg:   cfg,
		src:   src,
		speed: profile.New(cfg.Alpha, cfg.WarmUp),
	}
	m.setup(model.SourceMovement, settings, out, clk)
	m.highMargin = cfg.HighMargin
	m.stableAfter = cfg.StableAfter
	m.statsInterval = cfg.StatsInterval.Duration
	return m
}

func (m *Movement) Run(ctx context.Context) error {
	sub, err := m.src.Subscribe(m.OnSample)
	if err != nil {
		sensorErrors.WithLabelValues(string(m.source)).Inc()
		m.log.Errorf("can't subscribe to pointer samples: %v", err)
		m.mu.Lock()
		m.stats(m.snapshot(m.speed, nil, model.NoteError, m.clock.Now()))
		m.mu.Unlock()
		return nil
	}
	defer sub.Cancel()

	m.mu.Lock()
	m.stats(m.snapshot(m.speed, nil, model.NoteAdapting, m.clock.Now()))
	m.mu.Unlock()

	<-ctx.Done()
	m.log.Debug("stopping")
	return nil
}

// OnSample handles one pointer sample; it may be called from any goroutine
func (m *Movement) OnSample(s sensor.PointerSample) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.prev
	m.prev = &s
	if prev == nil {
		m.discard(m.speed, s.Timestamp)
		return
	}
	dt := s.Timestamp.Sub(prev.Timestamp).Seconds()
	if dt <= 0 {
		m.discard(m.speed, s.Timestamp)
		return
	}
	speed := math.Hypot(s.X-prev.X, s.Y-prev.Y) / dt
	if speed < m.cfg.NoiseFloor {
		m.discard(m.speed, s.Timestamp)
		return
	}

	var zp *float64
	if z, ok := m.speed.ZScore(speed); ok {
		zp = model.Float(z)
		if z > m.sigma {
			m.alert(model.AnomalyEvent{
				Cause:     model.CauseSpeedOutlier,
				Severity:  m.severity(z),
				Message:   fmt.Sprintf("Speed %.1f, z=%.2f", speed, z),
				Value:     speed,
				Z:         zp,
				Timestamp: s.Timestamp,
			})
		}
	}
	m.speed.Update(speed)
	m.stats(m.snapshot(m.speed, zp, "", s.Timestamp))
}

func (m *Movement) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speed.Count()
}
