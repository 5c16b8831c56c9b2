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
	"strings"

	"github.com/pkg/errors"

	"github.com/keremdokuz/libcloud/pkg/common/client"
)

// CreatePool creates a new pool in the driver's network domain.
func (d *Driver) CreatePool(ctx context.Context, spec PoolSpec) (*Pool, error) {
	// Names cannot contain spaces.
	name := strings.ReplaceAll(spec.Name, " ", "_")
	serviceDownAction := spec.ServiceDownAction
	if serviceDownAction == "" {
		serviceDownAction = "NONE"
	}
	slowRampTime := spec.SlowRampTime
	if slowRampTime == 0 {
		slowRampTime = 30
	}

	doc, root := client.NewDocument("createPool", TypesURN)
	root.CreateElement("networkDomainId").SetText(d.networkDomainID)
	root.CreateElement("name").SetText(name)
	root.CreateElement("description").SetText(spec.Description)
	root.CreateElement("loadBalanceMethod").SetText(spec.LoadBalanceMethod)
	for _, monitorID := range spec.HealthMonitorIDs {
		root.CreateElement("healthMonitorId").SetText(monitorID)
	}
	root.CreateElement("serviceDownAction").SetText(serviceDownAction)
	root.CreateElement("slowRampTime").SetText(itoa(slowRampTime))

	resp, err := d.apiPost(ctx, "networkDomainVip/createPool", doc)
	if err != nil {
		return nil, err
	}
	return &Pool{
		ID:                infoValue(resp, "poolId"),
		Name:              name,
		Description:       spec.Description,
		Status:            "NORMAL",
		LoadBalanceMethod: spec.LoadBalanceMethod,
		ServiceDownAction: serviceDownAction,
		SlowRampTime:      slowRampTime,
	}, nil
}

// GetPools lists pools. An empty networkDomainID returns every pool of the
// organization.
func (d *Driver) GetPools(ctx context.Context, networkDomainID string) ([]*Pool, error) {
	var params url.Values
	if networkDomainID != "" {
		params = url.Values{"networkDomainId": []string{networkDomainID}}
	}
	root, err := d.apiGet(ctx, "networkDomainVip/pool", params)
	if err != nil {
		return nil, err
	}
	return toPools(root), nil
}

// GetPool fetches one pool by ID.
func (d *Driver) GetPool(ctx context.Context, poolID string) (*Pool, error) {
	root, err := d.apiGet(ctx, "networkDomainVip/pool/"+poolID, nil)
	if err != nil {
		return nil, err
	}
	return toPool(root), nil
}

// UpdatePool pushes the mutable pool properties to the server. Only the
// balancing method, health monitor, serviceDownAction and slowRampTime can
// be changed.
func (d *Driver) UpdatePool(ctx context.Context, pool *Pool) error {
	doc, root := client.NewDocument("editPool", TypesURN)
	root.CreateAttr("id", pool.ID)
	root.CreateElement("loadBalanceMethod").SetText(pool.LoadBalanceMethod)
	root.CreateElement("healthMonitorId").SetText(pool.HealthMonitorID)
	root.CreateElement("serviceDownAction").SetText(pool.ServiceDownAction)
	root.CreateElement("slowRampTime").SetText(itoa(pool.SlowRampTime))

	resp, err := d.apiPost(ctx, "networkDomainVip/editPool", doc)
	if err != nil {
		return err
	}
	if !responseOK(resp) {
		return errors.Errorf("editing pool %s was rejected: %s", pool.ID, client.FindText(resp, "responseCode"))
	}
	return nil
}

// DestroyPool deletes an existing pool.
func (d *Driver) DestroyPool(ctx context.Context, pool *Pool) error {
	doc, root := client.NewDocument("deletePool", TypesURN)
	root.CreateAttr("id", pool.ID)
	resp, err := d.apiPost(ctx, "networkDomainVip/deletePool", doc)
	if err != nil {
		return err
	}
	if !responseOK(resp) {
		return errors.Errorf("deleting pool %s was rejected: %s", pool.ID, client.FindText(resp, "responseCode"))
	}
	return nil
}

// CreatePoolMember binds an existing node into a pool. Zero port means the
// member accepts traffic on any port.
func (d *Driver) CreatePoolMember(ctx context.Context, pool *Pool, node *VIPNode, port int) (*PoolMember, error) {
	doc, root := client.NewDocument("addPoolMember", TypesURN)
	root.CreateElement("poolId").SetText(pool.ID)
	root.CreateElement("nodeId").SetText(node.ID)
	if port != 0 {
		root.CreateElement("port").SetText(itoa(port))
	}
	root.CreateElement("status").SetText("ENABLED")

	resp, err := d.apiPost(ctx, "networkDomainVip/addPoolMember", doc)
	if err != nil {
		return nil, err
	}
	return &PoolMember{
		ID:     infoValue(resp, "poolMemberId"),
		Name:   infoValue(resp, "nodeName"),
		Status: "NORMAL",
		IP:     node.IP,
		Port:   port,
		NodeID: node.ID,
	}, nil
}

// GetPoolMembers lists the members of a pool.
func (d *Driver) GetPoolMembers(ctx context.Context, poolID string) ([]*PoolMember, error) {
	params := url.Values{"poolId": []string{poolID}}
	root, err := d.apiGet(ctx, "networkDomainVip/poolMember", params)
	if err != nil {
		return nil, err
	}
	return toMembers(root), nil
}

// GetPoolMember fetches one pool member by ID.
func (d *Driver) GetPoolMember(ctx context.Context, memberID string) (*PoolMember, error) {
	root, err := d.apiGet(ctx, "networkDomainVip/poolMember/"+memberID, nil)
	if err != nil {
		return nil, err
	}
	return toMember(root), nil
}

// SetPoolMemberState enables or disables a pool member.
func (d *Driver) SetPoolMemberState(ctx context.Context, member *PoolMember, enabled bool) error {
	status := "DISABLED"
	if enabled {
		status = "ENABLED"
	}
	doc, root := client.NewDocument("editPoolMember", TypesURN)
	root.CreateAttr("id", member.ID)
	root.CreateElement("status").SetText(status)

	resp, err := d.apiPost(ctx, "networkDomainVip/editPoolMember", doc)
	if err != nil {
		return err
	}
	if !responseOK(resp) {
		return errors.Errorf("editing pool member %s was rejected: %s", member.ID, client.FindText(resp, "responseCode"))
	}
	return nil
}

// DestroyPoolMember removes a member from its pool and, when destroyNode is
// set, also deletes the backing node.
func (d *Driver) DestroyPoolMember(ctx context.Context, member *PoolMember, destroyNode bool) error {
	doc, root := client.NewDocument("removePoolMember", TypesURN)
	root.CreateAttr("id", member.ID)
	resp, err := d.apiPost(ctx, "networkDomainVip/removePoolMember", doc)
	if err != nil {
		return err
	}
	if !responseOK(resp) {
		return errors.Errorf("removing pool member %s was rejected: %s", member.ID, client.FindText(resp, "responseCode"))
	}
	if destroyNode && member.NodeID != "" {
		return d.DestroyNode(ctx, member.NodeID)
	}
	return nil
}
