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

package present

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/guardio/guardio/pkg/api"
	"github.com/guardio/guardio/pkg/model"
	"github.com/guardio/guardio/pkg/risk"
	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// record is the envelope of every line written by the stdout presenter
type record struct {
	Type     string              `json:"type"`
	Score    *int                `json:"score,omitempty"`
	Anomaly  *model.AnomalyEvent `json:"anomaly,omitempty"`
	Critical *model.Breach       `json:"critical,omitempty"`
	Stats    *model.StatSnapshot `json:"stats,omitempty"`
}

// New builds the presenter described by the configuration
func New(cfg api.Presenter) (risk.Presenter, error) {
	cfg.SetDefaults()
	switch cfg.Type {
	case api.PresenterStdout:
		return NewWriter(os.Stdout, cfg.Format), nil
	case api.PresenterLog:
		return NewLog(), nil
	case api.PresenterNone:
		return None{}, nil
	}
	return nil, fmt.Errorf("unknown presenter %q", cfg.Type)
}

// Writer writes one record per line, either json or human readable text
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	format string
}

func NewWriter(w io.Writer, format string) *Writer {
	return &Writer{w: w, format: format}
}

func (p *Writer) Anomaly(ev model.AnomalyEvent, score int) {
	if p.format == "text" {
		p.printf(ev.Timestamp, "[%s] %s: %s (score %d)", ev.Severity, ev.Source, ev.Message, score)
		return
	}
	p.write(record{Type: "anomaly", Score: &score, Anomaly: &ev})
}

func (p *Writer) Critical(b model.Breach) {
	if p.format == "text" {
		p.printf(b.Timestamp, "CRITICAL risk score %d above %d", b.Score, b.Threshold)
		return
	}
	p.write(record{Type: "critical", Critical: &b})
}

func (p *Writer) Stats(s model.StatSnapshot) {
	if p.format == "text" {
		line := fmt.Sprintf("%s %s count=%d mean=%s std=%s z=%s", s.Source, s.Note, s.Count, opt(s.Mean), opt(s.Std), opt(s.Z))
		if s.WPM != nil {
			line += fmt.Sprintf(" wpm=%.1f", *s.WPM)
		}
		if s.Focus != "" {
			line += fmt.Sprintf(" focus=%q", s.Focus)
		}
		p.printf(s.Timestamp, "%s", line)
		return
	}
	p.write(record{Type: "stats", Stats: &s})
}

func (p *Writer) write(r record) {
	txt, err := jsonAPI.Marshal(r)
	if err != nil {
		log.Errorf("can't marshal %s record: %v", r.Type, err)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.w, string(txt))
}

func (p *Writer) printf(at time.Time, format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, "%s: %s\n", at.Format(time.StampMilli), fmt.Sprintf(format, args...))
}

func opt(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *v)
}

// Log forwards everything to logrus; anomalies at warning level, breaches at error level
type Log struct {
	log *log.Entry
}

func NewLog() *Log {
	return &Log{log: log.WithField("component", "present.Log")}
}

func (p *Log) Anomaly(ev model.AnomalyEvent, score int) {
	p.log.WithFields(log.Fields{
		"source":   ev.Source,
		"cause":    ev.Cause,
		"severity": ev.Severity,
		"score":    score,
	}).Warn(ev.Message)
}

func (p *Log) Critical(b model.Breach) {
	p.log.WithFields(log.Fields{
		"score":     b.Score,
		"threshold": b.Threshold,
		"session":   b.Session,
	}).Error("critical risk breach")
}

func (p *Log) Stats(s model.StatSnapshot) {
	fields := log.Fields{
		"source": s.Source,
		"note":   s.Note,
		"count":  s.Count,
	}
	if s.Mean != nil {
		fields["mean"] = *s.Mean
		fields["std"] = *s.Std
	}
	if s.Z != nil {
		fields["z"] = *s.Z
	}
	if s.WPM != nil {
		fields["wpm"] = *s.WPM
	}
	if s.Focus != "" {
		fields["focus"] = s.Focus
	}
	p.log.WithFields(fields).Debug("stats")
}

// None discards everything
type None struct{}

func (None) Anomaly(model.AnomalyEvent, int) {}
func (None) Critical(model.Breach)           {}
func (None) Stats(model.StatSnapshot)        {}
