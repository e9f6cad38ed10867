/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package stats

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter periodically snapshots a Counters into a
// prometheus.Registry and serves it on /metrics.
type PrometheusExporter struct {
	counters *Counters
	registry *prometheus.Registry
	gauges   map[string]prometheus.Gauge
	interval time.Duration
}

// NewPrometheusExporter builds an exporter that rescrapes counters
// every interval.
func NewPrometheusExporter(counters *Counters, interval time.Duration) *PrometheusExporter {
	return &PrometheusExporter{
		counters: counters,
		registry: prometheus.NewRegistry(),
		gauges:   make(map[string]prometheus.Gauge),
		interval: interval,
	}
}

// Start spins a background scrape loop and serves /metrics on port
// until the listener fails.
func (p *PrometheusExporter) Start(port int) {
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for range ticker.C {
			p.scrapeMetrics()
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))

	addr := fmt.Sprintf(":%d", port)
	log.Infof("starting someip prometheus exporter on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("someip prometheus exporter exited: %v", err)
	}
}

func (p *PrometheusExporter) scrapeMetrics() {
	for name, value := range p.counters.Snapshot() {
		key := flattenKey(name)
		gauge, ok := p.gauges[key]
		if !ok {
			gauge = prometheus.NewGauge(prometheus.GaugeOpts{
				Name: key,
				Help: fmt.Sprintf("someip counter %s", name),
			})
			var alreadyRegistered prometheus.AlreadyRegisteredError
			if err := p.registry.Register(gauge); err != nil {
				if !errors.As(err, &alreadyRegistered) {
					log.Errorf("registering gauge %s: %v", key, err)
					continue
				}
				gauge = alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			}
			p.gauges[key] = gauge
		}
		gauge.Set(float64(value))
	}
}

// flattenKey sanitizes a counter name into a valid Prometheus metric
// name.
func flattenKey(name string) string {
	replacer := strings.NewReplacer(
		" ", "_",
		".", "_",
		"-", "_",
		"=", "_",
		"/", "_",
	)
	return "someip_" + replacer.Replace(name)
}
