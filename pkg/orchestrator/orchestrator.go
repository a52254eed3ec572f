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

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/guardio/guardio/pkg/agent"
	"github.com/guardio/guardio/pkg/bus"
	"github.com/guardio/guardio/pkg/config"
	"github.com/guardio/guardio/pkg/model"
	"github.com/guardio/guardio/pkg/risk"
	"github.com/guardio/guardio/pkg/sensor"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

var olog = log.WithField("component", "Orchestrator")

type State string

const (
	StateStopped  State = "Stopped"
	StateStarting State = "Starting"
	StateRunning  State = "Running"
	StateStopping State = "Stopping"
)

var ErrNotStopped = errors.New("orchestrator is not stopped")

// Sensors are the external sample sources. Missing ones make the matching agent report Error.
type Sensors struct {
	Pointer sensor.PointerSource
	Keys    sensor.KeySource
	Focus   sensor.FocusQuery
}

type runningAgent struct {
	agent agent.Agent
	done  chan struct{}
}

// Orchestrator owns a detection session: the agents, the consumer loop and the summary job.
// Sessions are created by Start and discarded by Stop; profiles never outlive a session.
type Orchestrator struct {
	mu           sync.Mutex
	cfg          config.ConfigFileStruct
	sensors      Sensors
	clock        clock.Clock
	bus          *bus.Bus
	agg          *risk.Aggregator
	newAgents    func(settings agent.Settings, out bus.Publisher) ([]agent.Agent, error)
	state        State
	sigma        float64
	cooldown     time.Duration
	session      string
	startedAt    time.Time
	running      []runningAgent
	cancel       context.CancelFunc
	consumerDone chan struct{}
	cron         *cron.Cron
}

func New(cfg config.ConfigFileStruct, sensors Sensors, presenter risk.Presenter, clk clock.Clock) *Orchestrator {
	if clk == nil {
		clk = clock.New()
	}
	b := bus.New()
	o := &Orchestrator{
		cfg:      cfg,
		sensors:  sensors,
		clock:    clk,
		bus:      b,
		agg:      risk.NewAggregator(cfg.Risk, b, presenter, clk),
		state:    StateStopped,
		sigma:    cfg.Sigma,
		cooldown: cfg.Cooldown,
	}
	o.newAgents = o.buildAgents
	return o
}

func (o *Orchestrator) buildAgents(settings agent.Settings, out bus.Publisher) ([]agent.Agent, error) {
	var agents []agent.Agent
	if !o.cfg.Agents.Movement.Disabled {
		agents = append(agents, agent.NewMovement(o.cfg.Agents.Movement, settings, pointerSource(o.sensors.Pointer), out, o.clock))
	}
	if !o.cfg.Agents.Typing.Disabled {
		typing, err := agent.NewTyping(o.cfg.Agents.Typing, settings, keySource(o.sensors.Keys), out, o.clock)
		if err != nil {
			return nil, err
		}
		agents = append(agents, typing)
	}
	if !o.cfg.Agents.AppUsage.Disabled {
		focus := o.sensors.Focus
		if focus == nil {
			focus = sensor.Unavailable{}
		}
		agents = append(agents, agent.NewAppUsage(o.cfg.Agents.AppUsage, settings, focus, out, o.clock))
	}
	return agents, nil
}

func pointerSource(src sensor.PointerSource) sensor.PointerSource {
	if src != nil {
		return src
	}
	feed := sensor.NewFeed[sensor.PointerSample]()
	feed.Close()
	return feed
}

func keySource(src sensor.KeySource) sensor.KeySource {
	if src != nil {
		return src
	}
	feed := sensor.NewFeed[sensor.KeyPress]()
	feed.Close()
	return feed
}

// Start creates a new session with fresh, cold agents. It is only valid when stopped.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateStopped {
		return fmt.Errorf("can't start: %w (state %s)", ErrNotStopped, o.state)
	}
	o.state = StateStarting

	// agents abandoned by a previous Stop keep publishing to their own session bus
	sessionBus := bus.New()
	agents, err := o.newAgents(agent.Settings{Sigma: o.sigma, Cooldown: o.cooldown}, sessionBus)
	if err != nil {
		o.state = StateStopped
		return fmt.Errorf("can't create agents: %w", err)
	}

	o.session = uuid.New().String()
	o.startedAt = o.clock.Now()
	o.bus = sessionBus
	o.agg.SetSession(o.session, sessionBus)
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	olog.Infof("starting agents (session %s)", o.session)
	o.running = make([]runningAgent, 0, len(agents))
	for _, a := range agents {
		r := runningAgent{agent: a, done: make(chan struct{})}
		o.running = append(o.running, r)
		go o.runAgent(runCtx, r)
	}

	o.consumerDone = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		o.agg.Run(runCtx)
	}(o.consumerDone)

	if o.cfg.SummarySchedule != "" {
		o.cron = cron.New()
		if _, err := o.cron.AddFunc(o.cfg.SummarySchedule, o.logSummary); err != nil {
			olog.Errorf("invalid summary schedule %q: %v", o.cfg.SummarySchedule, err)
			o.cron = nil
		} else {
			o.cron.Start()
		}
	}

	sessionsStarted.Inc()
	o.state = StateRunning
	return nil
}

func (o *Orchestrator) runAgent(ctx context.Context, r runningAgent) {
	defer close(r.done)
	defer func() {
		if p := recover(); p != nil {
			agentPanics.WithLabelValues(string(r.agent.Source())).Inc()
			olog.Errorf("agent %s crashed: %v", r.agent.Source(), p)
		}
	}()
	if err := r.agent.Run(ctx); err != nil {
		olog.Errorf("agent %s failed: %v", r.agent.Source(), err)
	}
}

// Stop cancels the session and waits, up to the join timeout per agent, for the agents to finish.
// Agents that did not finish in time are abandoned. The pending events are drained one last time.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.state != StateRunning {
		o.mu.Unlock()
		return
	}
	o.state = StateStopping
	cancel, running, consumerDone, c := o.cancel, o.running, o.consumerDone, o.cron
	o.mu.Unlock()

	olog.Info("stopping agents")
	cancel()
	if c != nil {
		<-c.Stop().Done()
	}
	for _, r := range running {
		if !o.join(r.done) {
			joinTimeouts.WithLabelValues(string(r.agent.Source())).Inc()
			olog.Warnf("agent %s did not stop within %v", r.agent.Source(), o.cfg.JoinTimeout)
		}
	}
	if !o.join(consumerDone) {
		olog.Warnf("consumer loop did not stop within %v", o.cfg.JoinTimeout)
	}
	o.agg.Tick()

	o.mu.Lock()
	o.running = nil
	o.cancel = nil
	o.cron = nil
	o.state = StateStopped
	o.mu.Unlock()
	olog.Info("all agents stopped")
}

func (o *Orchestrator) join(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
	}
	select {
	case <-done:
		return true
	case <-o.clock.After(o.cfg.JoinTimeout):
		return false
	}
}

// Reset stops the session, clears the risk score and starts a new session
func (o *Orchestrator) Reset(ctx context.Context) error {
	olog.Info("resetting session")
	o.Stop()
	o.agg.Reset()
	return o.Start(ctx)
}

// SetSigma changes the detection sensitivity of the live agents. Non-positive values are rejected.
func (o *Orchestrator) SetSigma(sigma float64) error {
	if err := config.ValidateSigma(sigma); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sigma = sigma
	o.configureAgents()
	olog.Infof("sensitivity updated to %.2f", sigma)
	return nil
}

// SetCooldown changes the minimum spacing of same-agent alerts. Non-positive values are rejected.
func (o *Orchestrator) SetCooldown(cooldown time.Duration) error {
	if err := config.ValidateCooldown(cooldown); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cooldown = cooldown
	o.configureAgents()
	olog.Infof("cooldown updated to %v", cooldown)
	return nil
}

func (o *Orchestrator) configureAgents() {
	for _, r := range o.running {
		r.agent.Configure(o.sigma, o.cooldown)
	}
}

func (o *Orchestrator) Settings() agent.Settings {
	o.mu.Lock()
	defer o.mu.Unlock()
	return agent.Settings{Sigma: o.sigma, Cooldown: o.cooldown}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Session returns the identifier of the current or last session
func (o *Orchestrator) Session() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Agents returns the agents of the running session
func (o *Orchestrator) Agents() []agent.Agent {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]agent.Agent, 0, len(o.running))
	for _, r := range o.running {
		out = append(out, r.agent)
	}
	return out
}

func (o *Orchestrator) Score() int {
	return o.agg.Score()
}

// IsReady is the readiness check: the orchestrator must be running
func (o *Orchestrator) IsReady() error {
	if s := o.State(); s != StateRunning {
		return fmt.Errorf("orchestrator is %s", s)
	}
	return nil
}

// IsAlive is the liveness check: while running, the consumer loop must keep draining the bus
func (o *Orchestrator) IsAlive() error {
	o.mu.Lock()
	state, startedAt := o.state, o.startedAt
	o.mu.Unlock()
	if state != StateRunning {
		return nil
	}
	last := o.agg.LastTick()
	if last.Before(startedAt) {
		last = startedAt
	}
	limit := 10 * o.cfg.Risk.TickInterval.Duration
	if limit < time.Second {
		limit = time.Second
	}
	if since := o.clock.Since(last); since > limit {
		return fmt.Errorf("consumer loop stalled for %v", since)
	}
	return nil
}

func (o *Orchestrator) logSummary() {
	o.mu.Lock()
	session, startedAt := o.session, o.startedAt
	o.mu.Unlock()
	olog.Info(o.summary(session, startedAt))
}

func (o *Orchestrator) summary(session string, startedAt time.Time) string {
	var notes []string
	for _, src := range []model.Source{model.SourceMovement, model.SourceTyping, model.SourceAppUsage} {
		if s, ok := o.agg.Latest(src); ok {
			notes = append(notes, fmt.Sprintf("%s=%s", src, s.Note))
		}
	}
	sort.Strings(notes)
	return fmt.Sprintf("session %s: up %v, risk score %d, agents [%s]",
		session, o.clock.Since(startedAt).Truncate(time.Second), o.agg.Score(), strings.Join(notes, " "))
}
