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

package sensor

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const replayStream = `# recorded session
{"kind":"pointer","t":0,"x":0,"y":0}
{"kind":"pointer","t":0.5,"x":30,"y":40}
{"kind":"key","t":0.6}
{"kind":"key","t":0.7,"char":false}
not json
{"kind":"scroll","t":0.8}
{"kind":"focus","t":1,"app":"firefox"}
`

func TestDecodeRecord(t *testing.T) {
	rec, err := DecodeRecord([]byte(`{"kind":"pointer","t":"1.5","x":3,"y":4}`))
	require.NoError(t, err)
	assert.Equal(t, Record{Kind: RecordPointer, T: 1.5, X: 3, Y: 4}, rec)

	_, err = DecodeRecord([]byte(`{"kind":"pointer","t":1,"z":3}`))
	require.Error(t, err, "unknown fields are rejected")
	_, err = DecodeRecord([]byte(`{"kind":"key","t":-1}`))
	require.Error(t, err)
	_, err = DecodeRecord([]byte(`{"kind":"wheel","t":1}`))
	require.Error(t, err)
}

func TestReplayRun(t *testing.T) {
	clk := clock.NewMock()
	start := clk.Now()
	r := NewReplay(strings.NewReader(replayStream), clk)

	var mu sync.Mutex
	var pointers []PointerSample
	var keys []KeyPress
	_, err := r.Pointer.Subscribe(func(s PointerSample) { mu.Lock(); pointers = append(pointers, s); mu.Unlock() })
	require.NoError(t, err)
	_, err = r.Keys.Subscribe(func(k KeyPress) { mu.Lock(); keys = append(keys, k); mu.Unlock() })
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	var runErr error
	require.Eventually(t, func() bool {
		clk.Add(100 * time.Millisecond)
		select {
		case runErr = <-done:
			return true
		default:
			return false
		}
	}, 5*time.Second, time.Millisecond)
	require.NoError(t, runErr)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, pointers, 2)
	assert.Equal(t, PointerSample{X: 30, Y: 40, Timestamp: start.Add(500 * time.Millisecond)}, pointers[1])
	require.Len(t, keys, 2)
	assert.True(t, keys[0].Char)
	assert.False(t, keys[1].Char)
	assert.Equal(t, start.Add(700*time.Millisecond), keys[1].Timestamp)

	app, err := r.Focus.ForegroundIdentity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "firefox", app)
}

func TestReplayCancelled(t *testing.T) {
	clk := clock.NewMock()
	r := NewReplay(strings.NewReader(`{"kind":"key","t":60}`), clk)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("replay did not observe cancellation")
	}
}
