/*
 * Copyright (C) 2022 IBM, Inc.
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

package operational

import (
	"fmt"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsPrefix = "guardio_"

type metricDefinition struct {
	Name   string
	Help   string
	Type   string
	Labels []string
}

var (
	metricsMu   sync.Mutex
	metricsOpts []metricDefinition
)

func define(name, help, kind string, labels []string) string {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	metricsOpts = append(metricsOpts, metricDefinition{
		Name:   metricsPrefix + name,
		Help:   help,
		Type:   kind,
		Labels: labels,
	})
	return metricsPrefix + name
}

func NewCounter(name, help string) prometheus.Counter {
	return promauto.NewCounter(prometheus.CounterOpts{
		Name: define(name, help, "counter", nil),
		Help: help,
	})
}

func NewCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{
		Name: define(name, help, "counter", labels),
		Help: help,
	}, labels)
}

func NewGauge(name, help string) prometheus.Gauge {
	return promauto.NewGauge(prometheus.GaugeOpts{
		Name: define(name, help, "gauge", nil),
		Help: help,
	})
}

func NewGaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: define(name, help, "gauge", labels),
		Help: help,
	}, labels)
}

// GetDocumentation renders the registered operational metrics as markdown
func GetDocumentation() string {
	metricsMu.Lock()
	defs := make([]metricDefinition, len(metricsOpts))
	copy(defs, metricsOpts)
	metricsMu.Unlock()
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	doc := ""
	for _, opts := range defs {
		doc += fmt.Sprintf(
			`
### %s
| **Name** | %s | 
|:---|:---|
| **Description** | %s | 
| **Type** | %s | 
| **Labels** | %v | 

`,
			opts.Name,
			opts.Name,
			opts.Help,
			opts.Type,
			opts.Labels,
		)
	}

	return doc
}
