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

	"github.com/benbjohnson/clock"
	"github.com/guardio/guardio/pkg/api"
	"github.com/guardio/guardio/pkg/bus"
	"github.com/guardio/guardio/pkg/model"
	"github.com/guardio/guardio/pkg/profile"
	"github.com/guardio/guardio/pkg/sensor"
	"github.com/guardio/guardio/pkg/usage"
)

// AppUsage polls the focused application. It flags rarely used applications and
// unusually fast switching between applications.
type AppUsage struct {
	base
	cfg      api.AppUsageAgent
	focus    sensor.FocusQuery
	usage    *usage.Model
	history  *usage.History
	gaps     *profile.Profile
	lastApp  string
	lastPoll time.Time
}

func NewAppUsage(cfg api.AppUsageAgent, settings Settings, focus sensor.FocusQuery, out bus.Publisher, clk clock.Clock) *AppUsage {
	cfg.SetDefaults()
	a := &AppUsage{
		cfg:     cfg,
		focus:   focus,
		usage:   usage.NewModel(cfg.UsualAfter.Duration, cfg.RarityMinEvents, cfg.RareMaxCount),
		history: usage.NewHistory(cfg.HistorySize, time.Duration(cfg.HistorySize)*cfg.PollInterval.Duration),
		gaps:    profile.New(cfg.Alpha, cfg.WarmUp),
	}
	a.setup(model.SourceAppUsage, settings, out, clk)
	a.stableAfter = cfg.StableAfter
	a.statsInterval = cfg.StatsInterval.Duration
	return a
}

func (a *AppUsage) Run(ctx context.Context) error {
	ticker := a.clock.Ticker(a.cfg.PollInterval.Duration)
	defer ticker.Stop()

	if !a.focus.Available() {
		sensorErrors.WithLabelValues(string(a.source)).Inc()
		a.log.Warn("focus query unavailable; application usage is not monitored")
		for {
			a.reportError()
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	}

	a.mu.Lock()
	a.stats(a.snapshot(a.gaps, nil, model.NoteAdapting, a.clock.Now()))
	a.mu.Unlock()
	for {
		a.poll(ctx)
		select {
		case <-ctx.Done():
			a.log.Debug("stopping")
			return nil
		case <-ticker.C:
		}
	}
}

func (a *AppUsage) reportError() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats(a.snapshot(a.gaps, nil, model.NoteError, a.clock.Now()))
}

func (a *AppUsage) poll(ctx context.Context) {
	app, err := a.focus.ForegroundIdentity(ctx)
	now := a.clock.Now()
	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil || app == "" {
		if err != nil {
			a.log.Debugf("focus query failed: %v", err)
		}
		a.lastApp = ""
		a.lastPoll = now
		a.discard(a.gaps, now)
		return
	}
	a.observe(app, now)
}

// observe runs the usage rules for one successful poll. Must be called with mu held.
func (a *AppUsage) observe(app string, now time.Time) {
	if a.lastApp != "" && a.usage.Accrue(a.lastApp, now.Sub(a.lastPoll)) {
		a.log.Debugf("%q is now a usual application", a.lastApp)
	}
	a.lastApp = app
	a.lastPoll = now

	last, seen := a.history.Last()
	changed := !seen || last.App != app
	if seen && changed && now.Sub(last.At) >= a.cfg.MinDwell.Duration {
		a.usage.CountFocus(app)
	}

	if a.usage.IsRare(app) {
		a.alert(model.AnomalyEvent{
			Cause:     model.CauseRareApp,
			Severity:  model.SeverityHigh,
			Message:   fmt.Sprintf("Rare app focused: '%s'", app),
			Value:     float64(a.usage.FocusCount(app)),
			Timestamp: now,
		})
	}

	var zp *float64
	if seen && changed {
		gap := now.Sub(last.At).Seconds()
		if z, ok := a.gaps.ZScore(gap); ok {
			zp = model.Float(z)
			// slow switching is never penalized
			if mean, _ := a.gaps.Mean(); gap < mean-a.sigma*a.gaps.Std() {
				a.alert(model.AnomalyEvent{
					Cause:     model.CauseRapidSwitch,
					Severity:  model.SeverityMedium,
					Message:   fmt.Sprintf("Rapid switching (gap=%.2fs)", gap),
					Value:     gap,
					Z:         zp,
					Timestamp: now,
				})
			}
		}
		a.gaps.Update(gap)
	}
	if changed {
		a.history.Push(app, now)
	}

	s := a.snapshot(a.gaps, zp, "", now)
	s.Focus = app
	a.stats(s)
}

// Usual tells whether app was promoted to the usual set
func (a *AppUsage) Usual(app string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usage.IsUsual(app)
}

func (a *AppUsage) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gaps.Count()
}
