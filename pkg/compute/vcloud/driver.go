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

// Package vcloud implements the compute driver for VMware vCloud 1.5 and
// 5.1. The API is XML over HTTPS: a session token is obtained once and the
// driver then navigates hrefs handed out by the server (org, vDC, vApp, VM).
// A vApp holding one or more VMs is exposed as a single node.
package vcloud

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
	klog "k8s.io/klog/v2"

	"github.com/keremdokuz/libcloud/pkg/cloud"
	"github.com/keremdokuz/libcloud/pkg/common/client"
	"github.com/keremdokuz/libcloud/pkg/common/config"
)

// ProviderName is the label used for logging and metrics.
const ProviderName = "vcloud"

// VCloudNS is the XML namespace of request documents.
const VCloudNS = "http://www.vmware.com/vcloud/v1.5"

// Supported API versions. Version 5.1 adds VM memory validation.
const (
	Version15 = "1.5"
	Version51 = "5.1"
)

// authHeader carries the session token on every authenticated request.
const authHeader = "x-vcloud-authorization"

// Media types of the request bodies the driver sends.
const (
	mimeInstantiateParams   = "application/vnd.vmware.vcloud.instantiateVAppTemplateParams+xml"
	mimeCloneParams         = "application/vnd.vmware.vcloud.cloneVAppParams+xml"
	mimeDeployParams        = "application/vnd.vmware.vcloud.deployVAppParams+xml"
	mimeUndeployParams      = "application/vnd.vmware.vcloud.undeployVAppParams+xml"
	mimeRasdItem            = "application/vnd.vmware.vcloud.rasdItem+xml"
	mimeRasdItemsList       = "application/vnd.vmware.vcloud.rasdItemsList+xml"
	mimeGuestCustomization  = "application/vnd.vmware.vcloud.guestCustomizationSection+xml"
	mimeMetadata            = "application/vnd.vmware.vcloud.metadata+xml"
	mimeControlAccess       = "application/vnd.vmware.vcloud.controlAccess+xml"
	mimeVApp                = "application/vnd.vmware.vcloud.vApp+xml"
	mimeVAppTemplate        = "application/vnd.vmware.vcloud.vAppTemplate+xml"
	mimeVDC                 = "application/vnd.vmware.vcloud.vdc+xml"
	mimeOrgNetwork          = "application/vnd.vmware.vcloud.orgNetwork+xml"
	mimeNetworkConnection   = "application/vnd.vmware.vcloud.networkConnectionSection+xml"
	mimeLeaseSettings       = "application/vnd.vmware.vcloud.leaseSettingsSection+xml"
	mimeVM                  = "application/vnd.vmware.vcloud.vm+xml"
	mimeOrg                 = "application/vnd.vmware.vcloud.org+xml"
	mimeNetworkConfigParams = "application/vnd.vmware.vcloud.networkConfigSection+xml"
)

// vappStatusToState maps the numeric vApp status attribute to generic node
// states. 4 is POWERED_ON, 8 POWERED_OFF, 3 SUSPENDED.
var vappStatusToState = map[string]cloud.NodeState{
	"-1": cloud.NodeStateUnknown,
	"0":  cloud.NodeStatePending,
	"1":  cloud.NodeStatePending,
	"2":  cloud.NodeStatePending,
	"3":  cloud.NodeStateSuspended,
	"4":  cloud.NodeStateRunning,
	"5":  cloud.NodeStatePending,
	"6":  cloud.NodeStateUnknown,
	"7":  cloud.NodeStateUnknown,
	"8":  cloud.NodeStateStopped,
	"9":  cloud.NodeStatePending,
	"10": cloud.NodeStatePending,
}

func stateOf(status string) cloud.NodeState {
	if state, ok := vappStatusToState[status]; ok {
		return state
	}
	return cloud.NodeStateUnknown
}

// Vdc is a virtual data center of the organization.
type Vdc struct {
	Name            string
	Href            string
	AllocationModel string
}

// Driver is the vCloud compute driver.
type Driver struct {
	conn       *client.Connection
	org        string
	apiVersion string

	sessionOnce sync.Once
	token       string
	orgHref     string
	sessionErr  error

	vdcMu     sync.Mutex
	vdcsCache []*Vdc
}

var _ cloud.NodeDriver = &Driver{}

// NewDriver creates a driver from the VCloud section of the configuration.
func NewDriver(cfg *config.Config) (*Driver, error) {
	vc := cfg.VCloud
	if vc.Host == "" {
		return nil, errors.New("vcloud: host is required")
	}
	if vc.Org == "" || vc.User == "" || vc.Password == "" {
		return nil, errors.New("vcloud: org, user and password are required")
	}
	apiVersion := vc.APIVersion
	if apiVersion == "" {
		apiVersion = Version15
	}
	if apiVersion != Version15 && apiVersion != Version51 {
		return nil, errors.Errorf("vcloud: unsupported api version %q", apiVersion)
	}
	return &Driver{
		conn: &client.Connection{
			Hostname: vc.Host,
			Username: vc.User + "@" + vc.Org,
			Password: vc.Password,
			Insecure: cfg.Global.Insecure,
			CACert:   cfg.Global.CAFile,
			Provider: ProviderName,
		},
		org:        vc.Org,
		apiVersion: apiVersion,
	}, nil
}

func (d *Driver) accept() string {
	return "application/*+xml;version=" + d.apiVersion
}

// session logs in once and caches the token and the org href.
func (d *Driver) session(ctx context.Context) (string, error) {
	d.sessionOnce.Do(func() {
		headers := http.Header{}
		headers.Set("Accept", d.accept())
		resp, err := d.conn.Invoke(ctx, client.Request{
			Method:  "POST",
			Path:    "/api/sessions",
			Headers: headers,
		})
		if err != nil {
			d.sessionErr = errors.Wrap(err, "vcloud login failed")
			return
		}
		token := resp.Headers.Get(authHeader)
		if token == "" {
			d.sessionErr = errors.Errorf("%s: login response carries no %s header", client.UnexpectedRespErrMsg, authHeader)
			return
		}
		d.token = token

		orgHref, err := d.resolveOrg(ctx)
		if err != nil {
			d.sessionErr = err
			return
		}
		d.orgHref = orgHref
		klog.V(2).Infof("vcloud: session established for org %s", d.org)
	})
	return d.token, d.sessionErr
}

// resolveOrg finds the href of the configured organization in the org list.
// Called from within the session setup, so it must not re-enter session().
func (d *Driver) resolveOrg(ctx context.Context) (string, error) {
	headers := http.Header{}
	headers.Set(authHeader, d.token)
	headers.Set("Accept", d.accept())
	resp, err := d.conn.Invoke(ctx, client.Request{Method: "GET", Path: "/api/org/", Headers: headers})
	if err != nil {
		return "", errors.Wrap(err, "listing organizations failed")
	}
	root := resp.Root()
	if root == nil {
		return "", errors.Errorf("%s: empty organization list", client.UnexpectedRespErrMsg)
	}
	for _, org := range client.FindAll(root, "Org") {
		if client.Attr(org, "name") == d.org {
			return client.Attr(org, "href"), nil
		}
	}
	return "", errors.Errorf("organization %q not found", d.org)
}

// request sends an authenticated API call. pathOrHref is either an absolute
// path or a full href handed out by the server.
func (d *Driver) request(ctx context.Context, method, pathOrHref string, body *etree.Document, contentType string) (*client.Response, error) {
	token, err := d.session(ctx)
	if err != nil {
		return nil, err
	}
	headers := http.Header{}
	headers.Set(authHeader, token)
	headers.Set("Accept", d.accept())
	return d.conn.Invoke(ctx, client.Request{
		Method:      method,
		Path:        pathOrHref,
		Headers:     headers,
		ContentType: contentType,
		Body:        body,
	})
}

// get fetches a document and returns its root element.
func (d *Driver) get(ctx context.Context, pathOrHref string) (*etree.Element, error) {
	resp, err := d.request(ctx, "GET", pathOrHref, nil, "")
	if err != nil {
		return nil, err
	}
	if resp.Root() == nil {
		return nil, errors.Errorf("%s: empty response for %s", client.UnexpectedRespErrMsg, pathOrHref)
	}
	return resp.Root(), nil
}

// post sends a document and returns the response root, which may be nil for
// empty bodies.
func (d *Driver) post(ctx context.Context, pathOrHref string, body *etree.Document, contentType string) (*etree.Element, error) {
	resp, err := d.request(ctx, "POST", pathOrHref, body, contentType)
	if err != nil {
		return nil, err
	}
	return resp.Root(), nil
}

// put replaces a server side document and returns the response root.
func (d *Driver) put(ctx context.Context, pathOrHref string, body *etree.Document, contentType string) (*etree.Element, error) {
	resp, err := d.request(ctx, "PUT", pathOrHref, body, contentType)
	if err != nil {
		return nil, err
	}
	return resp.Root(), nil
}

// Vdcs lists the virtual data centers of the organization. The result is
// cached for the lifetime of the driver.
func (d *Driver) Vdcs(ctx context.Context) ([]*Vdc, error) {
	if _, err := d.session(ctx); err != nil {
		return nil, err
	}
	d.vdcMu.Lock()
	defer d.vdcMu.Unlock()
	if d.vdcsCache != nil {
		return d.vdcsCache, nil
	}

	org, err := d.get(ctx, d.orgHref)
	if err != nil {
		return nil, errors.Wrap(err, "reading organization failed")
	}
	var vdcs []*Vdc
	for _, link := range linksOfType(org, mimeVDC) {
		vdcEl, err := d.get(ctx, client.Attr(link, "href"))
		if err != nil {
			return nil, errors.Wrapf(err, "reading vDC %s failed", client.Attr(link, "name"))
		}
		vdcs = append(vdcs, &Vdc{
			Name:            client.Attr(vdcEl, "name"),
			Href:            client.Attr(vdcEl, "href"),
			AllocationModel: client.FindText(vdcEl, "AllocationModel"),
		})
	}
	d.vdcsCache = vdcs
	return vdcs, nil
}

// findVdc picks the named vDC, or the first one when name is empty.
func (d *Driver) findVdc(ctx context.Context, name string) (*Vdc, error) {
	vdcs, err := d.Vdcs(ctx)
	if err != nil {
		return nil, err
	}
	if len(vdcs) == 0 {
		return nil, errors.New("organization has no vDC")
	}
	if name == "" {
		return vdcs[0], nil
	}
	for _, vdc := range vdcs {
		if vdc.Name == name {
			return vdc, nil
		}
	}
	return nil, errors.Errorf("vDC %q not found", name)
}

// linksOfType returns the Link children matching the given media type.
func linksOfType(el *etree.Element, mediaType string) []*etree.Element {
	var links []*etree.Element
	for _, link := range client.FindAll(el, "Link") {
		if client.Attr(link, "type") == mediaType {
			links = append(links, link)
		}
	}
	return links
}

// entitiesOfType returns the ResourceEntity children matching the given
// media type.
func entitiesOfType(el *etree.Element, mediaType string) []*etree.Element {
	var entities []*etree.Element
	for _, entity := range client.FindAll(el, ".//ResourceEntity") {
		if client.Attr(entity, "type") == mediaType {
			entities = append(entities, entity)
		}
	}
	return entities
}

// href strips a query from a server supplied href. Some endpoints hand out
// hrefs with pagination parameters attached.
func href(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}
