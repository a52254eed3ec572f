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

import "time"

// cooldownGate lets an alert through only when the previous accepted one is at least
// cooldown old. The first alert is always accepted.
type cooldownGate struct {
	last  time.Time
	fired bool
}

func (g *cooldownGate) allow(now time.Time, cooldown time.Duration) bool {
	if g.fired && now.Sub(g.last) < cooldown {
		return false
	}
	g.last = now
	g.fired = true
	return true
}
