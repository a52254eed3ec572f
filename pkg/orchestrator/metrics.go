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

package orchestrator

import "github.com/guardio/guardio/pkg/operational"

var (
	joinTimeouts = operational.NewCounterVec(
		"agent_join_timeouts_total",
		"Agents that did not stop within the join timeout",
		"source",
	)
	agentPanics = operational.NewCounterVec(
		"agent_panics_total",
		"Agents that crashed",
		"source",
	)
	sessionsStarted = operational.NewCounter(
		"sessions_started_total",
		"Detection sessions started",
	)
)
