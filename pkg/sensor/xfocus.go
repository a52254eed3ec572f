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
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

const maxTitleLen = 50

// XFocus queries the focused X11 window through the xdotool and xprop tools
type XFocus struct {
	xdotool string
	xprop   string
	run     func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewXFocus looks up the required tools; the query is unavailable when one of them is missing
func NewXFocus() *XFocus {
	f := &XFocus{run: runCommand}
	f.xdotool, _ = exec.LookPath("xdotool")
	f.xprop, _ = exec.LookPath("xprop")
	return f
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func (f *XFocus) Available() bool {
	return f.xdotool != "" && f.xprop != ""
}

// ForegroundIdentity returns "class:title" (title truncated), or the class alone when there is no title
func (f *XFocus) ForegroundIdentity(ctx context.Context) (string, error) {
	if !f.Available() {
		return "", ErrUnavailable
	}
	out, err := f.run(ctx, f.xdotool, "getactivewindow")
	if err != nil {
		return "", errors.Wrap(err, "xdotool getactivewindow")
	}
	winID := strings.TrimSpace(string(out))
	if winID == "" {
		return "", nil
	}
	cls, err := f.run(ctx, f.xprop, "-id", winID, "WM_CLASS")
	if err != nil {
		return "", errors.Wrapf(err, "xprop WM_CLASS of window %s", winID)
	}
	title, err := f.run(ctx, f.xprop, "-id", winID, "_NET_WM_NAME")
	if err != nil {
		return "", errors.Wrapf(err, "xprop _NET_WM_NAME of window %s", winID)
	}
	return parseIdentity(string(cls), string(title)), nil
}

// parseIdentity builds the identity from xprop outputs such as
// `WM_CLASS(STRING) = "Navigator", "firefox"` and `_NET_WM_NAME(UTF8_STRING) = "Some page"`
func parseIdentity(cls, title string) string {
	var className, windowTitle string
	if idx := strings.LastIndex(cls, ","); idx >= 0 {
		className = strings.Trim(strings.TrimSpace(cls[idx+1:]), `"`)
	}
	if idx := strings.LastIndex(title, "="); idx >= 0 {
		windowTitle = strings.Trim(strings.TrimSpace(title[idx+1:]), `"`)
	}
	if className == "" {
		return ""
	}
	if windowTitle == "" {
		return className
	}
	if r := []rune(windowTitle); len(r) > maxTitleLen {
		windowTitle = string(r[:maxTitleLen])
	}
	return className + ":" + windowTitle
}
