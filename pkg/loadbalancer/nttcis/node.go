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

package nttcis

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"github.com/keremdokuz/libcloud/pkg/cloud"
	"github.com/keremdokuz/libcloud/pkg/common/client"
)

// CreateNode registers a backend server address with the load balancer
// service.
func (d *Driver) CreateNode(ctx context.Context, spec NodeSpec) (*VIPNode, error) {
	connectionLimit := spec.ConnectionLimit
	if connectionLimit == 0 {
		connectionLimit = 25000
	}
	connectionRateLimit := spec.ConnectionRateLimit
	if connectionRateLimit == 0 {
		connectionRateLimit = 2000
	}

	doc, root := client.NewDocument("createNode", TypesURN)
	root.CreateElement("networkDomainId").SetText(d.networkDomainID)
	root.CreateElement("name").SetText(spec.Name)
	if spec.Description != "" {
		root.CreateElement("description").SetText(spec.Description)
	}
	root.CreateElement("ipv4Address").SetText(spec.IP)
	root.CreateElement("status").SetText("ENABLED")
	root.CreateElement("connectionLimit").SetText(itoa(connectionLimit))
	root.CreateElement("connectionRateLimit").SetText(itoa(connectionRateLimit))

	resp, err := d.apiPost(ctx, "networkDomainVip/createNode", doc)
	if err != nil {
		return nil, err
	}
	return &VIPNode{
		ID:                  infoValue(resp, "nodeId"),
		Name:                infoValue(resp, "name"),
		State:               cloud.StateRunning,
		IP:                  spec.IP,
		ConnectionLimit:     connectionLimit,
		ConnectionRateLimit: connectionRateLimit,
	}, nil
}

// UpdateNode pushes the mutable node properties (health monitor and the
// connection limits) to the server.
func (d *Driver) UpdateNode(ctx context.Context, node *VIPNode) error {
	doc, root := client.NewDocument("editNode", TypesURN)
	root.CreateAttr("id", node.ID)
	root.CreateElement("healthMonitorId").SetText(node.HealthMonitorID)
	root.CreateElement("connectionLimit").SetText(itoa(node.ConnectionLimit))
	root.CreateElement("connectionRateLimit").SetText(itoa(node.ConnectionRateLimit))

	resp, err := d.apiPost(ctx, "networkDomainVip/editNode", doc)
	if err != nil {
		return err
	}
	if !responseOK(resp) {
		return errors.Errorf("editing node %s was rejected: %s", node.ID, client.FindText(resp, "responseCode"))
	}
	return nil
}

// SetNodeState enables or disables a node.
func (d *Driver) SetNodeState(ctx context.Context, node *VIPNode, enabled bool) error {
	status := "DISABLED"
	if enabled {
		status = "ENABLED"
	}
	doc, root := client.NewDocument("editNode", TypesURN)
	root.CreateAttr("id", node.ID)
	root.CreateElement("status").SetText(status)

	resp, err := d.apiPost(ctx, "networkDomainVip/editNode", doc)
	if err != nil {
		return err
	}
	if !responseOK(resp) {
		return errors.Errorf("editing node %s was rejected: %s", node.ID, client.FindText(resp, "responseCode"))
	}
	return nil
}

// GetNodes lists VIP nodes. An empty networkDomainID returns every node of
// the organization.
func (d *Driver) GetNodes(ctx context.Context, networkDomainID string) ([]*VIPNode, error) {
	var params url.Values
	if networkDomainID != "" {
		params = url.Values{"networkDomainId": []string{networkDomainID}}
	}
	root, err := d.apiGet(ctx, "networkDomainVip/node", params)
	if err != nil {
		return nil, err
	}
	return toVIPNodes(root), nil
}

// GetNode fetches one VIP node by ID.
func (d *Driver) GetNode(ctx context.Context, nodeID string) (*VIPNode, error) {
	root, err := d.apiGet(ctx, "networkDomainVip/node/"+nodeID, nil)
	if err != nil {
		return nil, err
	}
	return toVIPNode(root), nil
}

// DestroyNode deletes a VIP node. The node must not be a member of any pool.
func (d *Driver) DestroyNode(ctx context.Context, nodeID string) error {
	doc, root := client.NewDocument("deleteNode", TypesURN)
	root.CreateAttr("id", nodeID)
	resp, err := d.apiPost(ctx, "networkDomainVip/deleteNode", doc)
	if err != nil {
		return err
	}
	if !responseOK(resp) {
		return errors.Errorf("deleting node %s was rejected: %s", nodeID, client.FindText(resp, "responseCode"))
	}
	return nil
}

// DefaultHealthMonitors lists the health monitors available for a network
// domain.
func (d *Driver) DefaultHealthMonitors(ctx context.Context, networkDomainID string) ([]*DefaultHealthMonitor, error) {
	params := url.Values{"networkDomainId": []string{networkDomainID}}
	root, err := d.apiGet(ctx, "networkDomainVip/defaultHealthMonitor", params)
	if err != nil {
		return nil, err
	}
	return toHealthMonitors(root), nil
}

// DefaultPersistenceProfiles lists the persistence profiles available for a
// network domain.
func (d *Driver) DefaultPersistenceProfiles(ctx context.Context, networkDomainID string) ([]*PersistenceProfile, error) {
	params := url.Values{"networkDomainId": []string{networkDomainID}}
	root, err := d.apiGet(ctx, "networkDomainVip/defaultPersistenceProfile", params)
	if err != nil {
		return nil, err
	}
	return toPersistenceProfiles(root), nil
}

// DefaultIRules lists the iRules available for a network domain.
func (d *Driver) DefaultIRules(ctx context.Context, networkDomainID string) ([]*DefaultIRule, error) {
	params := url.Values{"networkDomainId": []string{networkDomainID}}
	root, err := d.apiGet(ctx, "networkDomainVip/defaultIrule", params)
	if err != nil {
		return nil, err
	}
	return toIRules(root), nil
}
