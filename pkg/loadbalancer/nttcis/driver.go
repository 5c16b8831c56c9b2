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

// Package nttcis implements the load balancer driver for the NTT CIS
// (Dimension Data) cloud. The vendor API is XML over HTTPS: every operation
// builds an element tree, POSTs or GETs it and parses the response for named
// info fields. Virtual listeners are the vendor term for load balancers.
package nttcis

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
	klog "k8s.io/klog/v2"

	"github.com/keremdokuz/libcloud/pkg/cloud"
	"github.com/keremdokuz/libcloud/pkg/common/client"
	"github.com/keremdokuz/libcloud/pkg/common/config"
)

// ProviderName is the label used for logging and metrics.
const ProviderName = "nttcis"

// TypesURN is the XML namespace of all request and response documents.
const TypesURN = "urn:didata.com:api:cloud:types"

// DefaultRegion selects api-na when no region is configured.
const DefaultRegion = "na"

// APIVersion is the version segment of all org-scoped URLs.
const APIVersion = "2.7"

// apiEndpoints maps a region code to its API host.
var apiEndpoints = map[string]string{
	"na":     "api-na.dimensiondata.com",
	"eu":     "api-eu.dimensiondata.com",
	"au":     "api-au.dimensiondata.com",
	"af":     "api-mea.dimensiondata.com",
	"ap":     "api-ap.dimensiondata.com",
	"latam":  "api-latam.dimensiondata.com",
	"canada": "api-canada.dimensiondata.com",
}

// algorithmToValue translates the generic balancing methods into the vendor
// loadBalanceMethod values.
var algorithmToValue = map[cloud.Algorithm]string{
	cloud.AlgorithmRoundRobin:             "ROUND_ROBIN",
	cloud.AlgorithmLeastConnectionsMember: "LEAST_CONNECTIONS_MEMBER",
	cloud.AlgorithmLeastConnectionsNode:   "LEAST_CONNECTIONS_NODE",
	cloud.AlgorithmObservedMember:         "OBSERVED_MEMBER",
	cloud.AlgorithmObservedNode:           "OBSERVED_NODE",
	cloud.AlgorithmPredictiveMember:       "PREDICTIVE_MEMBER",
	cloud.AlgorithmPredictiveNode:         "PREDICTIVE_NODE",
}

// valueToState translates the vendor state strings into generic states.
var valueToState = map[string]cloud.State{
	"NORMAL":           cloud.StateRunning,
	"PENDING_ADD":      cloud.StatePending,
	"PENDING_CHANGE":   cloud.StatePending,
	"PENDING_DELETE":   cloud.StatePending,
	"FAILED_ADD":       cloud.StateError,
	"FAILED_CHANGE":    cloud.StateError,
	"FAILED_DELETE":    cloud.StateError,
	"REQUIRES_SUPPORT": cloud.StateError,
}

func stateOf(value string) cloud.State {
	if state, ok := valueToState[value]; ok {
		return state
	}
	return cloud.StateUnknown
}

// Driver is the NTT CIS load balancer driver. All operations are scoped to
// the network domain given at construction time.
type Driver struct {
	conn            *client.Connection
	networkDomainID string

	orgOnce sync.Once
	orgID   string
	orgErr  error
}

var _ cloud.LoadBalancerDriver = &Driver{}

// NewDriver creates a driver from the NTTCIS section of the configuration.
func NewDriver(cfg *config.Config) (*Driver, error) {
	ntt := cfg.NTTCIS
	if ntt.User == "" || ntt.Password == "" {
		return nil, errors.New("nttcis: user and password are required")
	}
	if ntt.NetworkDomainID == "" {
		return nil, errors.New("nttcis: network-domain-id is required")
	}
	region := ntt.Region
	if region == "" && ntt.Host == "" {
		region = DefaultRegion
	}
	host := ntt.Host
	if host == "" {
		endpoint, ok := apiEndpoints[region]
		if !ok {
			return nil, errors.Errorf("nttcis: invalid region %q, no host specified", region)
		}
		host = endpoint
	}
	return &Driver{
		conn: &client.Connection{
			Hostname: host,
			Username: ntt.User,
			Password: ntt.Password,
			Insecure: cfg.Global.Insecure,
			CACert:   cfg.Global.CAFile,
			Provider: ProviderName,
		},
		networkDomainID: ntt.NetworkDomainID,
	}, nil
}

// NetworkDomainID returns the network domain the driver operates in.
func (d *Driver) NetworkDomainID() string {
	return d.networkDomainID
}

// SetNetworkDomainID changes the network domain the driver operates in.
func (d *Driver) SetNetworkDomainID(id string) {
	d.networkDomainID = id
}

// ListProtocols returns the protocols accepted for virtual listeners. The
// vendor accepts any protocol; this is a list of common ones.
func (d *Driver) ListProtocols() []string {
	return []string{"http", "https", "tcp", "udp", "ftp", "smtp"}
}

// organization resolves and caches the organization ID of the account. All
// API 2 URLs are scoped by it.
func (d *Driver) organization(ctx context.Context) (string, error) {
	d.orgOnce.Do(func() {
		resp, err := d.conn.Invoke(ctx, client.Request{
			Method: "GET",
			Path:   "/oec/0.9/myaccount",
		})
		if err != nil {
			d.orgErr = errors.Wrap(err, "resolving organization ID failed")
			return
		}
		orgID := client.FindText(resp.Root(), "orgId")
		if orgID == "" {
			d.orgErr = errors.New("myaccount response carries no orgId")
			return
		}
		klog.V(2).Infof("nttcis: organization %s", orgID)
		d.orgID = orgID
	})
	return d.orgID, d.orgErr
}

func (d *Driver) actionPath(ctx context.Context, action string) (string, error) {
	orgID, err := d.organization(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/caas/%s/%s/%s", APIVersion, orgID, action), nil
}

// apiGet performs an org-scoped GET and returns the response root element.
func (d *Driver) apiGet(ctx context.Context, action string, params url.Values) (*etree.Element, error) {
	path, err := d.actionPath(ctx, action)
	if err != nil {
		return nil, err
	}
	resp, err := d.conn.Invoke(ctx, client.Request{Method: "GET", Path: path, Params: params})
	if err != nil {
		return nil, err
	}
	if resp.Root() == nil {
		return nil, errors.Errorf("%s: empty response for %s", client.UnexpectedRespErrMsg, action)
	}
	return resp.Root(), nil
}

// apiPost performs an org-scoped POST of an XML document and returns the
// response root element.
func (d *Driver) apiPost(ctx context.Context, action string, body *etree.Document) (*etree.Element, error) {
	path, err := d.actionPath(ctx, action)
	if err != nil {
		return nil, err
	}
	resp, err := d.conn.Invoke(ctx, client.Request{Method: "POST", Path: path, Body: body})
	if err != nil {
		return nil, err
	}
	if resp.Root() == nil {
		return nil, errors.Errorf("%s: empty response for %s", client.UnexpectedRespErrMsg, action)
	}
	return resp.Root(), nil
}

// responseOK reports whether an asynchronous operation was accepted.
func responseOK(root *etree.Element) bool {
	code := client.FindText(root, "responseCode")
	return code == "IN_PROGRESS" || code == "OK"
}

// infoValue scans the info elements of a response for the named value.
func infoValue(root *etree.Element, name string) string {
	for _, info := range client.FindAll(root, "info") {
		if client.Attr(info, "name") == name {
			return client.Attr(info, "value")
		}
	}
	return ""
}

// WaitForState polls until poll reports one of the wanted states, e.g. until
// a pool leaves PENDING_ADD.
func (d *Driver) WaitForState(ctx context.Context, states []string, interval, timeout time.Duration, poll client.PollFunc) (string, error) {
	return client.WaitForState(ctx, states, interval, timeout, poll)
}
