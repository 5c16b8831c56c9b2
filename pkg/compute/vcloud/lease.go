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

package vcloud

import (
	"context"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/pkg/errors"

	"github.com/keremdokuz/libcloud/pkg/common/client"
)

// Lease holds the deployment and storage lease settings of a vApp. A zero
// lease duration means the lease never expires, in which case the matching
// expiration timestamp is absent.
type Lease struct {
	DeploymentLeaseSeconds int
	StorageLeaseSeconds    int
	DeploymentExpiration   time.Time
	StorageExpiration      time.Time
}

// toLease parses a LeaseSettingsSection element. Elements that are absent
// leave the matching field at its zero value.
func toLease(el *etree.Element) *Lease {
	lease := &Lease{}
	if el == nil {
		return lease
	}
	if s := client.FindText(el, "DeploymentLeaseInSeconds"); s != "" {
		lease.DeploymentLeaseSeconds, _ = strconv.Atoi(s)
	}
	if s := client.FindText(el, "StorageLeaseInSeconds"); s != "" {
		lease.StorageLeaseSeconds, _ = strconv.Atoi(s)
	}
	if s := client.FindText(el, "DeploymentLeaseExpiration"); s != "" {
		lease.DeploymentExpiration, _ = time.Parse(time.RFC3339Nano, s)
	}
	if s := client.FindText(el, "StorageLeaseExpiration"); s != "" {
		lease.StorageExpiration, _ = time.Parse(time.RFC3339Nano, s)
	}
	return lease
}

// DeploymentTime derives the time the vApp was deployed from the lease
// expiration and the lease duration. It fails when the server did not report
// both.
func (l *Lease) DeploymentTime() (time.Time, error) {
	if l.DeploymentLeaseSeconds == 0 || l.DeploymentExpiration.IsZero() {
		return time.Time{}, errors.New("lease information is not complete")
	}
	return l.DeploymentExpiration.Add(-time.Duration(l.DeploymentLeaseSeconds) * time.Second), nil
}

// GetLease reads the lease settings of a vApp.
func (d *Driver) GetLease(ctx context.Context, vappHref string) (*Lease, error) {
	root, err := d.get(ctx, href(vappHref)+"/leaseSettingsSection")
	if err != nil {
		return nil, err
	}
	return toLease(root), nil
}
