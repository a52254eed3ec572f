/*
 * Copyright (C) 2021 IBM, Inc.
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

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/guardio/guardio/pkg/api"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	DefaultSigma           = 3.0
	DefaultCooldown        = 3 * time.Second
	DefaultJoinTimeout     = 1500 * time.Millisecond
	DefaultSummarySchedule = "@every 1m"
)

// Focus query backends
const (
	FocusAuto    = "auto"
	FocusXWindow = "xdotool"
	FocusReplay  = "replay"
	FocusNone    = "none"
)

var clog = logrus.WithField("component", "config")

// Options holds the raw command line / config file values
type Options struct {
	Sigma           float64
	Cooldown        float64
	JoinTimeout     time.Duration
	Source          string
	Focus           string
	SummarySchedule string
	Agents          string
	Risk            string
	Presenter       string
	PresenterFormat string
	Health          Health
}

type Health struct {
	Address string
	Port    string
}

// ConfigFileStruct is the parsed, validated and defaulted configuration
type ConfigFileStruct struct {
	Sigma           float64       `yaml:"sigma" json:"sigma"`
	Cooldown        time.Duration `yaml:"cooldown" json:"cooldown"`
	JoinTimeout     time.Duration `yaml:"joinTimeout" json:"joinTimeout"`
	Source          string        `yaml:"source,omitempty" json:"source,omitempty"`
	Focus           string        `yaml:"focus" json:"focus"`
	SummarySchedule string        `yaml:"summarySchedule,omitempty" json:"summarySchedule,omitempty"`
	Agents          api.Agents    `yaml:"agents" json:"agents"`
	Risk            api.Risk      `yaml:"risk" json:"risk"`
	Presenter       api.Presenter `yaml:"presenter" json:"presenter"`
}

// ConfigurationError reports a rejected configuration value
type ConfigurationError struct {
	Field string
	Value interface{}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %v (must be strictly positive)", e.Field, e.Value)
}

// ValidateSigma rejects non-positive sensitivities
func ValidateSigma(sigma float64) error {
	if !(sigma > 0) {
		return &ConfigurationError{Field: "sigma", Value: sigma}
	}
	return nil
}

// ValidateCooldown rejects non-positive cooldowns
func ValidateCooldown(cooldown time.Duration) error {
	if cooldown <= 0 {
		return &ConfigurationError{Field: "cooldown", Value: cooldown}
	}
	return nil
}

// SecondsToDuration converts a (possibly fractional) number of seconds
func SecondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// Defaults returns a configuration with every default value set
func Defaults() ConfigFileStruct {
	cfg := ConfigFileStruct{
		Sigma:           DefaultSigma,
		Cooldown:        DefaultCooldown,
		JoinTimeout:     DefaultJoinTimeout,
		Focus:           FocusAuto,
		SummarySchedule: DefaultSummarySchedule,
	}
	cfg.Agents.SetDefaults()
	cfg.Risk.SetDefaults()
	cfg.Presenter.SetDefaults()
	return cfg
}

// ParseConfig creates the internal unmarshalled representation from the Options.
// Invalid sigma or cooldown values are rejected and the defaults are kept.
func ParseConfig(opts *Options) (ConfigFileStruct, error) {
	out := Defaults()

	if err := ValidateSigma(opts.Sigma); err != nil {
		clog.Errorf("%v; keeping %v", err, out.Sigma)
	} else {
		out.Sigma = opts.Sigma
	}
	cooldown := SecondsToDuration(opts.Cooldown)
	if err := ValidateCooldown(cooldown); err != nil {
		clog.Errorf("%v; keeping %v", err, out.Cooldown)
	} else {
		out.Cooldown = cooldown
	}
	if opts.JoinTimeout > 0 {
		out.JoinTimeout = opts.JoinTimeout
	}
	out.Source = opts.Source
	switch opts.SummarySchedule {
	case "":
	case "off":
		out.SummarySchedule = ""
	default:
		if _, err := cron.ParseStandard(opts.SummarySchedule); err != nil {
			return out, fmt.Errorf("invalid summary schedule %q: %w", opts.SummarySchedule, err)
		}
		out.SummarySchedule = opts.SummarySchedule
	}

	switch opts.Focus {
	case "":
	case FocusAuto, FocusXWindow, FocusReplay, FocusNone:
		out.Focus = opts.Focus
	default:
		return out, fmt.Errorf("unknown focus backend %q", opts.Focus)
	}
	if out.Focus == FocusReplay && out.Source == "" {
		return out, fmt.Errorf("focus backend %q requires a source", FocusReplay)
	}

	if opts.Agents != "" {
		clog.Debugf("opts.Agents = %v ", opts.Agents)
		if err := JsonUnmarshalStrict([]byte(opts.Agents), &out.Agents); err != nil {
			clog.Errorf("error when parsing agents: %v", err)
			return out, err
		}
		out.Agents.SetDefaults()
	}
	if opts.Risk != "" {
		if err := JsonUnmarshalStrict([]byte(opts.Risk), &out.Risk); err != nil {
			clog.Errorf("error when parsing risk: %v", err)
			return out, err
		}
		out.Risk.SetDefaults()
	}

	switch api.PresenterType(opts.Presenter) {
	case "":
	case api.PresenterStdout, api.PresenterLog, api.PresenterNone:
		out.Presenter.Type = api.PresenterType(opts.Presenter)
	default:
		return out, fmt.Errorf("unknown presenter %q", opts.Presenter)
	}
	switch opts.PresenterFormat {
	case "":
	case "json", "text":
		out.Presenter.Format = opts.PresenterFormat
	default:
		return out, fmt.Errorf("unknown presenter format %q", opts.PresenterFormat)
	}

	clog.Debugf("config = %+v", out)
	return out, nil
}

// JsonUnmarshalStrict is like Unmarshal except that any fields that are found
// in the data that do not have corresponding struct members, or mapping
// keys that are duplicates, will result in
// an error.
func JsonUnmarshalStrict(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
