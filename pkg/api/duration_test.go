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

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

type durationHolder struct {
	Interval Duration `json:"interval" yaml:"interval"`
}

func TestDuration_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(durationHolder{Interval: Duration{500 * time.Millisecond}})
	require.NoError(t, err)
	require.Equal(t, `{"interval":"500ms"}`, string(out))
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	var holder durationHolder
	require.NoError(t, json.Unmarshal([]byte(`{"interval": "2s"}`), &holder))
	require.Equal(t, 2*time.Second, holder.Interval.Duration)

	// plain numbers are nanoseconds
	require.NoError(t, json.Unmarshal([]byte(`{"interval": 1000000}`), &holder))
	require.Equal(t, time.Millisecond, holder.Interval.Duration)

	require.Error(t, json.Unmarshal([]byte(`{"interval": true}`), &holder))
	require.Error(t, json.Unmarshal([]byte(`{"interval": "soon"}`), &holder))
}

func TestDuration_MarshalYAML(t *testing.T) {
	out, err := yaml.Marshal(durationHolder{Interval: Duration{2 * time.Second}})
	require.NoError(t, err)
	require.Equal(t, "interval: 2s\n", string(out))
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	var holder durationHolder
	require.NoError(t, yaml.UnmarshalStrict([]byte("interval: 100ms\n"), &holder))
	require.Equal(t, 100*time.Millisecond, holder.Interval.Duration)
	require.Error(t, yaml.UnmarshalStrict([]byte("interval: soon\n"), &holder))
}
