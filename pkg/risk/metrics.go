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

package risk

import "github.com/guardio/guardio/pkg/operational"

var (
	anomaliesTotal = operational.NewCounterVec(
		"anomalies_total",
		"Anomalies received by the risk aggregator",
		"source", "severity",
	)
	breachesTotal = operational.NewCounter(
		"critical_breaches_total",
		"Times the risk score went above the critical threshold",
	)
	riskScore = operational.NewGauge(
		"risk_score",
		"Current cumulative risk score",
	)
	statsForwarded = operational.NewCounterVec(
		"stats_forwarded_total",
		"Stats snapshots forwarded to presentation",
		"source",
	)
)
