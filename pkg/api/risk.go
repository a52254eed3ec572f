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
	DefaultCriticalThreshold = 15
	DefaultTickInterval      = 100 * time.Millisecond
)

type Risk struct {
	CriticalThreshold int      `yaml:"criticalThreshold,omitempty" json:"criticalThreshold,omitempty" doc:"a score strictly above this value raises a critical breach and resets the score (default: 15)"`
	TickInterval      Duration `yaml:"tickInterval,omitempty" json:"tickInterval,omitempty" doc:"period at which the event channels are drained (default: 100ms)"`
}

func (r *Risk) SetDefaults() {
	if r.CriticalThreshold <= 0 {
		r.CriticalThreshold = DefaultCriticalThreshold
	}
	r.TickInterval = r.TickInterval.orDefault(DefaultTickInterval)
}
