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
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// JSONServer exposes a Counters snapshot over HTTP as JSON, the same
// shape as a single "/counters" endpoint.
type JSONServer struct {
	counters *Counters
}

// NewJSONServer wraps counters for HTTP exposition.
func NewJSONServer(counters *Counters) *JSONServer {
	return &JSONServer{counters: counters}
}

// Start serves the counters snapshot on the given port until the
// listener fails. Meant to run in its own goroutine.
func (j *JSONServer) Start(port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", j.handleRoot)
	mux.HandleFunc("/counters", j.handleCounters)

	addr := fmt.Sprintf(":%d", port)
	log.Infof("starting someip stats server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("someip stats server exited: %v", err)
	}
}

func (j *JSONServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	j.writeJSON(w, map[string]string{"service": "someip", "endpoints": "/counters"})
}

func (j *JSONServer) handleCounters(w http.ResponseWriter, r *http.Request) {
	j.writeJSON(w, j.counters.Snapshot())
}

func (j *JSONServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encoding stats response: %v", err)
	}
}
