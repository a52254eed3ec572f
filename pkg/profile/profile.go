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

package profile

import (
	"math"
)

const (
	DefaultAlpha = 0.01
	// Epsilon is the smallest standard deviation considered informative
	Epsilon = 1e-6
)

// Profile is an exponentially weighted mean/variance estimator of a scalar metric.
// It is not safe for concurrent use; the owning agent serializes access.
type Profile struct {
	alpha    float64
	warmUp   int
	mean     float64
	variance float64
	count    int
}

// New creates a cold profile. Samples are only used for z-scores once more than warmUp of them
// have been seen.
func New(alpha float64, warmUp int) *Profile {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	if warmUp < 0 {
		warmUp = 0
	}
	return &Profile{alpha: alpha, warmUp: warmUp}
}

// Update blends a new value into the profile
func (p *Profile) Update(value float64) {
	if p.count == 0 {
		p.mean = value
		p.variance = 0
		p.count = 1
		return
	}
	p.count++
	delta := value - p.mean
	p.mean += p.alpha * delta
	p.variance = (1-p.alpha)*p.variance + p.alpha*delta*delta
}

// Cold is true until the first update
func (p *Profile) Cold() bool {
	return p.count == 0
}

func (p *Profile) Count() int {
	return p.count
}

// Mean returns false while the profile is cold
func (p *Profile) Mean() (float64, bool) {
	if p.count == 0 {
		return 0, false
	}
	return p.mean, true
}

// Std is the standard deviation; 0 while the profile is cold
func (p *Profile) Std() float64 {
	if p.count == 0 || p.variance <= 0 {
		return 0
	}
	return math.Sqrt(p.variance)
}

// Warm is true when the profile has passed its warm-up and carries a non-degenerate spread
func (p *Profile) Warm() bool {
	return p.count > p.warmUp && p.Std() > Epsilon
}

// ZScore returns |value-mean|/std, or false when the profile is not yet statistically informed
func (p *Profile) ZScore(value float64) (float64, bool) {
	if !p.Warm() {
		return 0, false
	}
	return math.Abs(value-p.mean) / math.Max(p.Std(), Epsilon), true
}

// Reset makes the profile cold again
func (p *Profile) Reset() {
	p.mean = 0
	p.variance = 0
	p.count = 0
}
