/*
Copyright 2019 The Libcloud Authors.

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

package client

import (
	"context"
	"time"

	"github.com/pkg/errors"
	klog "k8s.io/klog/v2"
)

// PollFunc fetches the current state of some resource.
type PollFunc func(ctx context.Context) (string, error)

// WaitForState polls until poll reports one of the wanted states. It returns
// the matched state, or an error when the timeout elapses or the context is
// canceled. The first poll happens immediately.
func WaitForState(ctx context.Context, states []string, interval, timeout time.Duration, poll PollFunc) (string, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	deadline := time.Now().Add(timeout)
	var last string
	for {
		state, err := poll(ctx)
		if err != nil {
			return "", err
		}
		last = state
		for _, wanted := range states {
			if state == wanted {
				return state, nil
			}
		}
		if time.Now().After(deadline) {
			return "", errors.Errorf("%s: want %v, last state %q", WaitTimeoutErrMsg, states, last)
		}
		klog.V(4).Infof("waiting for state %v, current %q", states, last)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}
	}
}
