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
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/guardio/guardio/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestJsonUnmarshalStrict(t *testing.T) {
	type Message struct {
		Foo int    `json:"F"`
		Bar string `json:"B"`
	}
	msg := `{"F":1, "B":"bbb"}`
	var actualMsg Message
	expectedMsg := Message{Foo: 1, Bar: "bbb"}
	err := JsonUnmarshalStrict([]byte(msg), &actualMsg)
	require.NoError(t, err)
	require.Equal(t, expectedMsg, actualMsg)

	msg = `{"F":1, "B":"bbb", "NewField":0}`
	err = JsonUnmarshalStrict([]byte(msg), &actualMsg)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, ValidateSigma(0.5))
	require.NoError(t, ValidateCooldown(time.Millisecond))

	for _, sigma := range []float64{0, -1} {
		err := ValidateSigma(sigma)
		var cfgErr *ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "sigma", cfgErr.Field)
	}
	err := ValidateCooldown(-time.Second)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "cooldown", cfgErr.Field)
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(&Options{Sigma: 3, Cooldown: 3})
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, 10, cfg.Agents.Movement.WarmUp)
	assert.Equal(t, 5, cfg.Agents.AppUsage.WarmUp)
	assert.Equal(t, 2*time.Second, cfg.Agents.AppUsage.PollInterval.Duration)
	assert.Equal(t, 15, cfg.Risk.CriticalThreshold)
	assert.Equal(t, api.PresenterStdout, cfg.Presenter.Type)
}

func TestParseConfigRejectsNonPositive(t *testing.T) {
	cfg, err := ParseConfig(&Options{Sigma: -2, Cooldown: 0})
	require.NoError(t, err)
	assert.Equal(t, DefaultSigma, cfg.Sigma)
	assert.Equal(t, DefaultCooldown, cfg.Cooldown)
}

func TestParseConfigValues(t *testing.T) {
	opts := Options{
		Sigma:           2.5,
		Cooldown:        0.5,
		JoinTimeout:     time.Second,
		Focus:           FocusNone,
		Presenter:       "log",
		PresenterFormat: "text",
		Agents:          `{"typing":{"burstRule":"wpm > 120","wpmWindow":"30s"},"appUsage":{"disabled":true}}`,
		Risk:            `{"criticalThreshold":20}`,
	}
	cfg, err := ParseConfig(&opts)
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.Sigma)
	assert.Equal(t, 500*time.Millisecond, cfg.Cooldown)
	assert.Equal(t, time.Second, cfg.JoinTimeout)
	assert.Equal(t, "wpm > 120", cfg.Agents.Typing.BurstRule)
	assert.Equal(t, 30*time.Second, cfg.Agents.Typing.WPMWindow.Duration)
	// unset fields still get their defaults
	assert.Equal(t, 5*time.Second, cfg.Agents.Typing.WPMIdleReset.Duration)
	assert.True(t, cfg.Agents.AppUsage.Disabled)
	assert.Equal(t, 20, cfg.Risk.CriticalThreshold)
	assert.Equal(t, api.PresenterLog, cfg.Presenter.Type)
	assert.Equal(t, "text", cfg.Presenter.Format)
}

func TestParseConfigErrors(t *testing.T) {
	_, err := ParseConfig(&Options{Sigma: 3, Cooldown: 3, Agents: `{"unknown":{}}`})
	require.Error(t, err)
	_, err = ParseConfig(&Options{Sigma: 3, Cooldown: 3, Presenter: "tty"})
	require.Error(t, err)
	_, err = ParseConfig(&Options{Sigma: 3, Cooldown: 3, PresenterFormat: "xml"})
	require.Error(t, err)
	_, err = ParseConfig(&Options{Sigma: 3, Cooldown: 3, SummarySchedule: "every minute"})
	require.Error(t, err)
	cfg, err := ParseConfig(&Options{Sigma: 3, Cooldown: 3, SummarySchedule: "off"})
	require.NoError(t, err)
	assert.Empty(t, cfg.SummarySchedule)
	cfg, err = ParseConfig(&Options{Sigma: 3, Cooldown: 3, SummarySchedule: "*/5 * * * *"})
	require.NoError(t, err)
	assert.Equal(t, "*/5 * * * *", cfg.SummarySchedule)
	_, err = ParseConfig(&Options{Sigma: 3, Cooldown: 3, Focus: "wayland"})
	require.Error(t, err)
	_, err = ParseConfig(&Options{Sigma: 3, Cooldown: 3, Focus: FocusReplay})
	require.Error(t, err)
}

func TestUnmarshalAgents(t *testing.T) {
	cfg := `{"movement":{"noiseFloor":0.5,"statsInterval":"250ms"},"appUsage":{"pollInterval":"1s"}}`
	var agents api.Agents
	err := yaml.Unmarshal([]byte(cfg), &agents)
	require.NoError(t, err)
	require.Equal(t, 0.5, agents.Movement.NoiseFloor)
	require.Equal(t, 250*time.Millisecond, agents.Movement.StatsInterval.Duration)

	agents = api.Agents{}
	err = json.Unmarshal([]byte(cfg), &agents)
	require.NoError(t, err)
	require.Equal(t, 0.5, agents.Movement.NoiseFloor)
	require.Equal(t, time.Second, agents.AppUsage.PollInterval.Duration)
}
