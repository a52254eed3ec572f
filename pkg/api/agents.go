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

package api

import "time"

const (
	DefaultAlpha          = 0.01
	DefaultHighMargin     = 2.0
	DefaultBurstRule      = "wpm > 80"
	DefaultStatsInterval  = 500 * time.Millisecond
	DefaultPollInterval   = 2 * time.Second
	DefaultUsualAfter     = 300 * time.Second
	DefaultMinDwell       = 5 * time.Second
	DefaultRarityEvents   = 30
	DefaultRareMaxCount   = 2
	DefaultHistorySize    = 100
	DefaultWPMWindow      = 60 * time.Second
	DefaultWPMIdleReset   = 5 * time.Second
	DefaultNoiseFloor     = 0.1
	DefaultMinTypingDelay = 10 * time.Millisecond
	DefaultMaxTypingDelay = 2 * time.Second
)

// Agents groups the per-modality agent settings.
// Detection sensitivity (sigma) and cooldown are live settings and are not part of this structure.
type Agents struct {
	Movement MovementAgent `yaml:"movement,omitempty" json:"movement,omitempty" doc:"pointer speed agent"`
	Typing   TypingAgent   `yaml:"typing,omitempty" json:"typing,omitempty" doc:"keystroke timing agent"`
	AppUsage AppUsageAgent `yaml:"appUsage,omitempty" json:"appUsage,omitempty" doc:"foreground application agent"`
}

type MovementAgent struct {
	Disabled      bool     `yaml:"disabled,omitempty" json:"disabled,omitempty" doc:"do not start the movement agent"`
	Alpha         float64  `yaml:"alpha,omitempty" json:"alpha,omitempty" doc:"smoothing factor of the speed profile (default: 0.01)"`
	WarmUp        int      `yaml:"warmUp,omitempty" json:"warmUp,omitempty" doc:"number of samples before z-scores are used (default: 10, 0 selects the default)"`
	StableAfter   int      `yaml:"stableAfter,omitempty" json:"stableAfter,omitempty" doc:"number of samples after which the profile is reported Stable (default: 30, 0 selects the default)"`
	NoiseFloor    float64  `yaml:"noiseFloor,omitempty" json:"noiseFloor,omitempty" doc:"speeds below this value (units/s) are ignored (default: 0.1)"`
	HighMargin    float64  `yaml:"highMargin,omitempty" json:"highMargin,omitempty" doc:"z above sigma+highMargin is reported High (default: 2)"`
	StatsInterval Duration `yaml:"statsInterval,omitempty" json:"statsInterval,omitempty" doc:"minimum spacing between stats snapshots (default: 500ms)"`
}

type TypingAgent struct {
	Disabled      bool     `yaml:"disabled,omitempty" json:"disabled,omitempty" doc:"do not start the typing agent"`
	Alpha         float64  `yaml:"alpha,omitempty" json:"alpha,omitempty" doc:"smoothing factor of the inter-key delay profile (default: 0.01)"`
	WarmUp        int      `yaml:"warmUp,omitempty" json:"warmUp,omitempty" doc:"number of samples before z-scores are used (default: 10, 0 selects the default)"`
	StableAfter   int      `yaml:"stableAfter,omitempty" json:"stableAfter,omitempty" doc:"number of samples after which the profile is reported Stable (default: 30, 0 selects the default)"`
	MinDelay      Duration `yaml:"minDelay,omitempty" json:"minDelay,omitempty" doc:"shorter delays are not typing (default: 10ms)"`
	MaxDelay      Duration `yaml:"maxDelay,omitempty" json:"maxDelay,omitempty" doc:"longer delays are pauses, not typing (default: 2s)"`
	HighMargin    float64  `yaml:"highMargin,omitempty" json:"highMargin,omitempty" doc:"z above sigma+highMargin is reported High (default: 2)"`
	WPMWindow     Duration `yaml:"wpmWindow,omitempty" json:"wpmWindow,omitempty" doc:"sliding window used to compute words per minute (default: 60s)"`
	WPMIdleReset  Duration `yaml:"wpmIdleReset,omitempty" json:"wpmIdleReset,omitempty" doc:"words per minute drop to 0 after this much inactivity (default: 5s)"`
	BurstRule     string   `yaml:"burstRule,omitempty" json:"burstRule,omitempty" doc:"expression on the smoothed wpm parameter that raises a High alert (default: wpm > 80)"`
	StatsInterval Duration `yaml:"statsInterval,omitempty" json:"statsInterval,omitempty" doc:"minimum spacing between stats snapshots (default: 500ms)"`
}

type AppUsageAgent struct {
	Disabled        bool     `yaml:"disabled,omitempty" json:"disabled,omitempty" doc:"do not start the application usage agent"`
	Alpha           float64  `yaml:"alpha,omitempty" json:"alpha,omitempty" doc:"smoothing factor of the switch gap profile (default: 0.01)"`
	WarmUp          int      `yaml:"warmUp,omitempty" json:"warmUp,omitempty" doc:"number of gaps before the rapid switch rule applies (default: 5, 0 selects the default)"`
	StableAfter     int      `yaml:"stableAfter,omitempty" json:"stableAfter,omitempty" doc:"number of gaps after which the profile is reported Stable (default: 15, 0 selects the default)"`
	PollInterval    Duration `yaml:"pollInterval,omitempty" json:"pollInterval,omitempty" doc:"foreground application polling period (default: 2s)"`
	MinDwell        Duration `yaml:"minDwell,omitempty" json:"minDwell,omitempty" doc:"shorter focus periods are not counted (default: 5s)"`
	UsualAfter      Duration `yaml:"usualAfter,omitempty" json:"usualAfter,omitempty" doc:"cumulative focus after which an application is usual (default: 300s)"`
	RarityMinEvents int      `yaml:"rarityMinEvents,omitempty" json:"rarityMinEvents,omitempty" doc:"focus events required before the rarity rule applies (default: 30, 0 selects the default)"`
	RareMaxCount    int      `yaml:"rareMaxCount,omitempty" json:"rareMaxCount,omitempty" doc:"applications focused at most this many times are rare (default: 2, 0 selects the default)"`
	HistorySize     int      `yaml:"historySize,omitempty" json:"historySize,omitempty" doc:"number of focus changes kept in history (default: 100, 0 selects the default)"`
	StatsInterval   Duration `yaml:"statsInterval,omitempty" json:"statsInterval,omitempty" doc:"minimum spacing between stats snapshots (default: 1s)"`
}

// SetDefaults fills unset fields with the default values
func (a *Agents) SetDefaults() {
	a.Movement.SetDefaults()
	a.Typing.SetDefaults()
	a.AppUsage.SetDefaults()
}

func (m *MovementAgent) SetDefaults() {
	m.Alpha = alphaOrDefault(m.Alpha)
	m.WarmUp = intOrDefault(m.WarmUp, 10)
	m.StableAfter = intOrDefault(m.StableAfter, 30)
	if m.NoiseFloor <= 0 {
		m.NoiseFloor = DefaultNoiseFloor
	}
	if m.HighMargin <= 0 {
		m.HighMargin = DefaultHighMargin
	}
	m.StatsInterval = m.StatsInterval.orDefault(DefaultStatsInterval)
}

func (t *TypingAgent) SetDefaults() {
	t.Alpha = alphaOrDefault(t.Alpha)
	t.WarmUp = intOrDefault(t.WarmUp, 10)
	t.StableAfter = intOrDefault(t.StableAfter, 30)
	t.MinDelay = t.MinDelay.orDefault(DefaultMinTypingDelay)
	t.MaxDelay = t.MaxDelay.orDefault(DefaultMaxTypingDelay)
	if t.HighMargin <= 0 {
		t.HighMargin = DefaultHighMargin
	}
	t.WPMWindow = t.WPMWindow.orDefault(DefaultWPMWindow)
	t.WPMIdleReset = t.WPMIdleReset.orDefault(DefaultWPMIdleReset)
	if t.BurstRule == "" {
		t.BurstRule = DefaultBurstRule
	}
	t.StatsInterval = t.StatsInterval.orDefault(DefaultStatsInterval)
}

func (u *AppUsageAgent) SetDefaults() {
	u.Alpha = alphaOrDefault(u.Alpha)
	u.WarmUp = intOrDefault(u.WarmUp, 5)
	u.StableAfter = intOrDefault(u.StableAfter, 15)
	u.PollInterval = u.PollInterval.orDefault(DefaultPollInterval)
	u.MinDwell = u.MinDwell.orDefault(DefaultMinDwell)
	u.UsualAfter = u.UsualAfter.orDefault(DefaultUsualAfter)
	u.RarityMinEvents = intOrDefault(u.RarityMinEvents, DefaultRarityEvents)
	u.RareMaxCount = intOrDefault(u.RareMaxCount, DefaultRareMaxCount)
	u.HistorySize = intOrDefault(u.HistorySize, DefaultHistorySize)
	u.StatsInterval = u.StatsInterval.orDefault(time.Second)
}

func alphaOrDefault(alpha float64) float64 {
	if alpha <= 0 || alpha >= 1 {
		return DefaultAlpha
	}
	return alpha
}

// intOrDefault treats 0 as unset, like every other numeric setting
func intOrDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
