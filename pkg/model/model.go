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

package model

import "time"

// Source identifies the agent that produced an event or snapshot
type Source string

const (
	SourceMovement Source = "Movement"
	SourceTyping   Source = "Typing"
	SourceAppUsage Source = "AppUsage"
)

type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Weight is the contribution of an anomaly of this severity to the risk score
func (s Severity) Weight() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// Cause tags the heuristic that raised an anomaly.
type Cause string

const (
	CauseSpeedOutlier Cause = "SpeedOutlier" // pointer speed z-score above sigma
	CauseDelayOutlier Cause = "DelayOutlier" // inter-key delay z-score above sigma
	CauseTypingBurst  Cause = "TypingBurst"  // smoothed words per minute matched the burst rule
	CauseRareApp      Cause = "RareApp"      // rarely focused, non-usual application
	CauseRapidSwitch  Cause = "RapidSwitch"  // focus switch gap sigma deviations below the mean
)

// Note summarizes the state of an agent in a StatSnapshot
type Note string

const (
	NoteAdapting Note = "Adapting"
	NoteStable   Note = "Stable"
	NoteNoSignal Note = "NoSignal"
	NoteError    Note = "Error"
)

// AnomalyEvent is published once by an agent and consumed once by the risk aggregator.
// Values are copied through the bus; never mutate an event after publishing it.
type AnomalyEvent struct {
	Source    Source    `json:"source"`
	Cause     Cause     `json:"cause"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Value     float64   `json:"value"`
	Z         *float64  `json:"z,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StatSnapshot reports the current profile of an agent.
// Mean, Std and Z are nil while the profile is uninformed.
type StatSnapshot struct {
	Source    Source    `json:"source"`
	Mean      *float64  `json:"mean"`
	Std       *float64  `json:"std"`
	Z         *float64  `json:"z"`
	Note      Note      `json:"note"`
	Count     int       `json:"count"`
	WPM       *float64  `json:"wpm,omitempty"`
	Focus     string    `json:"focus,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Breach is raised when the cumulative risk score overflows the critical threshold
type Breach struct {
	Score     int       `json:"score"`
	Threshold int       `json:"threshold"`
	Session   string    `json:"session,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Float returns a pointer to a copy of v
func Float(v float64) *float64 {
	return &v
}
