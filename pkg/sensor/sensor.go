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
	"errors"
	"time"
)

var (
	// ErrUnavailable reports a missing platform capability; it is permanent for the session
	ErrUnavailable = errors.New("sensor unavailable")
	// ErrClosed is returned when subscribing to a closed source
	ErrClosed = errors.New("sensor source closed")
)

// PointerSample is a pointer position observed at Timestamp
type PointerSample struct {
	X, Y      float64
	Timestamp time.Time
}

// KeyPress is a key press observed at Timestamp; Char is false for non character keys (modifiers, arrows...)
type KeyPress struct {
	Timestamp time.Time
	Char      bool
}

// Subscription is released with Cancel; Cancel is idempotent
type Subscription interface {
	Cancel()
}

// Source pushes samples to its subscribers, possibly from another goroutine than the subscriber's
type Source[T any] interface {
	Subscribe(handler func(T)) (Subscription, error)
}

type PointerSource = Source[PointerSample]
type KeySource = Source[KeyPress]

// FocusQuery answers which application identity currently holds the input focus
type FocusQuery interface {
	// Available is false when the platform capability needed by the query is missing
	Available() bool
	// ForegroundIdentity returns the focused identity, or an empty string when nothing has focus
	ForegroundIdentity(ctx context.Context) (string, error)
}

// Unavailable is the FocusQuery of platforms without any focus support
type Unavailable struct{}

func (Unavailable) Available() bool {
	return false
}

func (Unavailable) ForegroundIdentity(_ context.Context) (string, error) {
	return "", ErrUnavailable
}
