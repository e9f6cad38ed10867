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

package sd

import "time"

// Timer is the handle returned by Scheduler.After; Stop cancels the
// pending callback, mirroring time.Timer's contract.
type Timer interface {
	Stop() bool
}

// Scheduler arms one-shot callbacks after a delay. The state engine
// never sleeps directly so that tests can substitute a fake scheduler
// and drive timers deterministically instead of racing wall-clock
// time, per the externally-observable-timing-only contract.
type Scheduler interface {
	After(d time.Duration, f func()) Timer
}

// realScheduler is the production Scheduler, backed by time.AfterFunc.
type realScheduler struct{}

// NewScheduler returns the default wall-clock Scheduler.
func NewScheduler() Scheduler { return realScheduler{} }

func (realScheduler) After(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
