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

package usage

import (
	"time"
)

// Model tracks, per application identity, how often it was focused and for how long.
// Identities used for long enough are promoted to the usual set and stay there for the session.
// Model is not safe for concurrent use.
type Model struct {
	usualAfter      time.Duration
	rarityMinEvents int
	rareMaxCount    int

	focusCounts map[string]int
	durations   map[string]time.Duration
	usual       map[string]struct{}
	total       int
}

// NewModel creates an empty model.
// An identity becomes usual once its cumulative focus time is strictly above usualAfter.
// The rarity rule applies once strictly more than rarityMinEvents focus events were counted,
// to identities counted at most rareMaxCount times.
func NewModel(usualAfter time.Duration, rarityMinEvents, rareMaxCount int) *Model {
	return &Model{
		usualAfter:      usualAfter,
		rarityMinEvents: rarityMinEvents,
		rareMaxCount:    rareMaxCount,
		focusCounts:     map[string]int{},
		durations:       map[string]time.Duration{},
		usual:           map[string]struct{}{},
	}
}

// Accrue adds focus time to an identity. It returns true when this call promoted
// the identity to the usual set.
func (m *Model) Accrue(app string, d time.Duration) bool {
	if app == "" || d <= 0 {
		return false
	}
	m.durations[app] += d
	if _, ok := m.usual[app]; ok {
		return false
	}
	if m.durations[app] > m.usualAfter {
		m.usual[app] = struct{}{}
		return true
	}
	return false
}

// CountFocus records a focus event
func (m *Model) CountFocus(app string) {
	m.focusCounts[app]++
	m.total++
}

func (m *Model) FocusCount(app string) int {
	return m.focusCounts[app]
}

// Total is the number of focus events counted over all identities
func (m *Model) Total() int {
	return m.total
}

// Duration is the cumulative focus time of an identity
func (m *Model) Duration(app string) time.Duration {
	return m.durations[app]
}

func (m *Model) IsUsual(app string) bool {
	_, ok := m.usual[app]
	return ok
}

func (m *Model) UsualCount() int {
	return len(m.usual)
}

// IsRare tells whether focusing app now is unusual: enough focus history exists, the identity
// was seldom focused and it is not a usual application
func (m *Model) IsRare(app string) bool {
	return m.total > m.rarityMinEvents &&
		m.focusCounts[app] <= m.rareMaxCount &&
		!m.IsUsual(app)
}
