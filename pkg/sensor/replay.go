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
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	jsoniter "github.com/json-iterator/go"
	ms "github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"
)

const (
	RecordPointer = "pointer"
	RecordKey     = "key"
	RecordFocus   = "focus"
)

var rlog = log.WithField("component", "sensor.Replay")

// Record is one line of a replay stream, e.g.
//
//	{"kind":"pointer","t":0.25,"x":10,"y":20}
//	{"kind":"key","t":0.3,"char":true}
//	{"kind":"focus","t":2,"app":"firefox"}
//
// T is the offset in seconds from the start of the replay.
type Record struct {
	Kind string  `mapstructure:"kind"`
	T    float64 `mapstructure:"t"`
	X    float64 `mapstructure:"x"`
	Y    float64 `mapstructure:"y"`
	Char *bool   `mapstructure:"char"`
	App  string  `mapstructure:"app"`
}

// DecodeRecord parses a single replay line
func DecodeRecord(line []byte) (Record, error) {
	var raw map[string]interface{}
	if err := jsoniter.Unmarshal(line, &raw); err != nil {
		return Record{}, fmt.Errorf("invalid replay line: %w", err)
	}
	var rec Record
	decoder, err := ms.NewDecoder(&ms.DecoderConfig{
		Result:           &rec,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Record{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Record{}, fmt.Errorf("invalid replay record: %w", err)
	}
	switch rec.Kind {
	case RecordPointer, RecordKey, RecordFocus:
	default:
		return Record{}, fmt.Errorf("unknown replay record kind %q", rec.Kind)
	}
	if rec.T < 0 {
		return Record{}, fmt.Errorf("negative replay offset %v", rec.T)
	}
	return rec, nil
}

// Replay re-plays a recorded JSON-lines stream of sensor samples into in-process feeds,
// respecting the recorded offsets on the given clock
type Replay struct {
	clock   clock.Clock
	reader  io.Reader
	Pointer *Feed[PointerSample]
	Keys    *Feed[KeyPress]
	Focus   *ReplayFocus
}

func NewReplay(reader io.Reader, clk clock.Clock) *Replay {
	if clk == nil {
		clk = clock.New()
	}
	return &Replay{
		clock:   clk,
		reader:  reader,
		Pointer: NewFeed[PointerSample](),
		Keys:    NewFeed[KeyPress](),
		Focus:   &ReplayFocus{},
	}
}

// Run blocks until the stream is exhausted or the context is cancelled.
// Invalid lines are logged and skipped.
func (r *Replay) Run(ctx context.Context) error {
	start := r.clock.Now()
	scanner := bufio.NewScanner(r.reader)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, err := DecodeRecord([]byte(line))
		if err != nil {
			rlog.Warnf("skipping line %d: %v", lineNum, err)
			continue
		}
		at := start.Add(time.Duration(rec.T * float64(time.Second)))
		if wait := at.Sub(r.clock.Now()); wait > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-r.clock.After(wait):
			}
		} else if ctx.Err() != nil {
			return nil
		}
		r.dispatch(rec, at)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading replay stream: %w", err)
	}
	rlog.Debugf("replay finished after %d lines", lineNum)
	return nil
}

func (r *Replay) dispatch(rec Record, at time.Time) {
	switch rec.Kind {
	case RecordPointer:
		r.Pointer.Publish(PointerSample{X: rec.X, Y: rec.Y, Timestamp: at})
	case RecordKey:
		char := true
		if rec.Char != nil {
			char = *rec.Char
		}
		r.Keys.Publish(KeyPress{Timestamp: at, Char: char})
	case RecordFocus:
		r.Focus.Set(rec.App)
	}
}

// ReplayFocus answers focus queries with the last replayed identity
type ReplayFocus struct {
	mu  sync.Mutex
	app string
}

func (f *ReplayFocus) Set(app string) {
	f.mu.Lock()
	f.app = app
	f.mu.Unlock()
}

func (f *ReplayFocus) Available() bool {
	return true
}

func (f *ReplayFocus) ForegroundIdentity(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.app, nil
}
