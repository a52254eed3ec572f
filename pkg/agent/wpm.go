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
	"math"
	"time"
)

var wpmWeights = []float64{0.1, 0.15, 0.2, 0.25, 0.3}

// wpmMeter computes words per minute over a sliding window of character timestamps.
// A word is 5 characters.
type wpmMeter struct {
	window time.Duration
	idle   time.Duration
	chars  []time.Time
}

func newWPMMeter(window, idle time.Duration) *wpmMeter {
	return &wpmMeter{window: window, idle: idle}
}

func (m *wpmMeter) Add(at time.Time) {
	m.chars = append(m.chars, at)
}

// Rate is 0 when the window is empty, when the last character is older than the idle
// delay or when all characters share the same timestamp
func (m *wpmMeter) Rate(now time.Time) float64 {
	i := 0
	for i < len(m.chars) && now.Sub(m.chars[i]) > m.window {
		i++
	}
	m.chars = m.chars[i:]
	if len(m.chars) == 0 || now.Sub(m.chars[len(m.chars)-1]) > m.idle {
		return 0
	}
	minutes := math.Min(m.window.Seconds(), now.Sub(m.chars[0]).Seconds()) / 60
	if minutes <= 0 {
		return 0
	}
	return (float64(len(m.chars)) / 5) / minutes
}

// smoother is a weighted moving average over the last len(wpmWeights) samples, the most
// recent sample weighing the most. With fewer samples the leading weights are renormalized.
type smoother struct {
	samples []float64
}

func (s *smoother) Add(v float64) float64 {
	s.samples = append(s.samples, v)
	if len(s.samples) > len(wpmWeights) {
		s.samples = s.samples[1:]
	}
	return s.Value()
}

func (s *smoother) Value() float64 {
	if len(s.samples) == 0 {
		return 0
	}
	var sum, total float64
	for i, w := range wpmWeights[:len(s.samples)] {
		sum += w * s.samples[i]
		total += w
	}
	return sum / total
}
