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
	"sync"
)

// Feed is an in-process Source that fans out every published sample to the current subscribers.
// Handlers run synchronously in the publisher goroutine and must not block.
type Feed[T any] struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(T)
	closed   bool
}

func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{handlers: map[int]func(T){}}
}

func (f *Feed[T]) Subscribe(handler func(T)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	id := f.nextID
	f.nextID++
	f.handlers[id] = handler
	return &feedSubscription[T]{feed: f, id: id}, nil
}

// Publish delivers a sample to every subscriber
func (f *Feed[T]) Publish(sample T) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, h := range f.handlers {
		h(sample)
	}
}

// Subscribers returns the number of active subscriptions
func (f *Feed[T]) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.handlers)
}

// Close drops every subscriber and rejects further subscriptions
func (f *Feed[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.handlers = map[int]func(T){}
}

func (f *Feed[T]) unsubscribe(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, id)
}

type feedSubscription[T any] struct {
	once sync.Once
	feed *Feed[T]
	id   int
}

func (s *feedSubscription[T]) Cancel() {
	s.once.Do(func() { s.feed.unsubscribe(s.id) })
}
