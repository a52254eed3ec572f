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

package operational

import (
	"net"
	"net/http"

	"github.com/guardio/guardio/pkg/config"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// NewHealthServer serves /live, /ready and /metrics on the configured address.
// It returns nil when no port is configured.
func NewHealthServer(opts *config.Options, isAlive, isReady healthcheck.Check) *http.Server {
	if opts.Health.Port == "" || opts.Health.Port == "0" {
		log.Debugf("health server disabled")
		return nil
	}
	handler := healthcheck.NewHandler()
	handler.AddLivenessCheck("AggregatorCheck", isAlive)
	handler.AddReadinessCheck("OrchestratorCheck", isReady)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler)

	address := net.JoinHostPort(opts.Health.Address, opts.Health.Port)
	server := &http.Server{
		Addr:    address,
		Handler: mux,
	}

	go func() {
		log.WithField("address", address).Info("starting health server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("health server error: %v", err)
		}
	}()

	return server
}
