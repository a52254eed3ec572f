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

import "github.com/guardio/guardio/pkg/operational"

var (
	samplesDiscarded = operational.NewCounterVec(
		"agent_samples_discarded_total",
		"Samples discarded as noise before reaching a profile",
		"source",
	)
	alertsSuppressed = operational.NewCounterVec(
		"agent_alerts_suppressed_total",
		"Anomalies dropped by the cooldown gate",
		"source",
	)
	sensorErrors = operational.NewCounterVec(
		"agent_sensor_errors_total",
		"Sensor subscriptions or queries that failed",
		"source",
	)
)
