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

package usage

import (
	"container/list"
	"time"
)

// Entry is a focus change: identity app gained focus at At
type Entry struct {
	App string
	At  time.Time
}

// History is a bounded window of focus changes.
// Once it grows past maxLen, entries older than maxAge are evicted, then the oldest ones
// until the length is back to maxLen.
type History struct {
	entries *list.List
	maxLen  int
	maxAge  time.Duration
}

func NewHistory(maxLen int, maxAge time.Duration) *History {
	if maxLen <= 0 {
		maxLen = 1
	}
	return &History{
		entries: list.New(),
		maxLen:  maxLen,
		maxAge:  maxAge,
	}
}

// Push appends a focus change; at is expected to be non-decreasing
func (h *History) Push(app string, at time.Time) {
	h.entries.PushBack(Entry{App: app, At: at})
	if h.entries.Len() <= h.maxLen {
		return
	}
	expireTime := at.Add(-h.maxAge)
	// go through the list until we reach recent entries
	for {
		front := h.entries.Front()
		if front == nil || !front.Value.(Entry).At.Before(expireTime) {
			break
		}
		h.entries.Remove(front)
	}
	for h.entries.Len() > h.maxLen {
		h.entries.Remove(h.entries.Front())
	}
}

// Last returns the most recent focus change
func (h *History) Last() (Entry, bool) {
	back := h.entries.Back()
	if back == nil {
		return Entry{}, false
	}
	return back.Value.(Entry), true
}

func (h *History) Len() int {
	return h.entries.Len()
}

// Entries returns the focus changes from oldest to newest
func (h *History) Entries() []Entry {
	out := make([]Entry, 0, h.entries.Len())
	for e := h.entries.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(Entry))
	}
	return out
}
