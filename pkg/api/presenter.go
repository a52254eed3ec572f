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

type PresenterType string

const (
	PresenterStdout PresenterType = "stdout" // one json record per line on the standard output
	PresenterLog    PresenterType = "log"    // structured log lines
	PresenterNone   PresenterType = "none"   // discard everything
)

type Presenter struct {
	Type   PresenterType `yaml:"type,omitempty" json:"type,omitempty" doc:"(enum) presentation sink: stdout, log or none"`
	Format string        `yaml:"format,omitempty" json:"format,omitempty" doc:"stdout record format: json or text (default: json)"`
}

func (p *Presenter) SetDefaults() {
	if p.Type == "" {
		p.Type = PresenterStdout
	}
	if p.Format == "" {
		p.Format = "json"
	}
}
