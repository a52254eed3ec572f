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

package utils

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"
)

var (
	chanMutex          sync.Mutex
	registeredChannels []chan struct{}
	exiting            bool
)

// RegisterExitChannel adds a channel that is closed once the process is asked to exit.
// Channels registered after the exit signal are closed immediately.
func RegisterExitChannel(ch chan struct{}) {
	chanMutex.Lock()
	defer chanMutex.Unlock()
	if exiting {
		close(ch)
		return
	}
	registeredChannels = append(registeredChannels, ch)
}

// SetupElegantExit closes every registered channel on SIGINT or SIGTERM
func SetupElegantExit() {
	chanMutex.Lock()
	registeredChannels = nil
	exiting = false
	chanMutex.Unlock()

	exitSigChan := make(chan os.Signal, 1)
	signal.Notify(exitSigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-exitSigChan
		signal.Stop(exitSigChan)
		log.Infof("received %v, exiting", sig)
		closeAll()
	}()
}

func closeAll() {
	chanMutex.Lock()
	defer chanMutex.Unlock()
	exiting = true
	for _, ch := range registeredChannels {
		close(ch)
	}
	registeredChannels = nil
}

// ExitContext derives a context cancelled on the exit signal
func ExitContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan struct{})
	RegisterExitChannel(ch)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
