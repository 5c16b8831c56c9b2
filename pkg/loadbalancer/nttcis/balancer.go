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
	klog "k8s.io/klog/v2"

	"github.com/keremdokuz/libcloud/pkg/cloud"
	"github.com/keremdokuz/libcloud/pkg/common/client"
)

// CreateBalancer creates a pool, binds the requested members into it and
// fronts it with a new virtual listener.
func (d *Driver) CreateBalancer(ctx context.Context, spec cloud.BalancerSpec) (*cloud.LoadBalancer, error) {
	protocol := spec.Protocol
	if protocol == "" {
		protocol = "http"
	}
	algorithm := spec.Algorithm
	if algorithm == "" {
		algorithm = cloud.DefaultAlgorithm
	}
	method, ok := algorithmToValue[algorithm]
	if !ok {
		return nil, errors.Errorf("unsupported algorithm %q", algorithm)
	}

	pool, err := d.CreatePool(ctx, PoolSpec{Name: spec.Name, LoadBalanceMethod: method})
	if err != nil {
		return nil, errors.Wrap(err, "creating pool failed")
	}

	for _, member := range spec.Members {
		node, err := d.CreateNode(ctx, NodeSpec{
			Name: "Member." + member.IP,
			IP:   member.IP,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "creating node for member %s failed", member.IP)
		}
		if _, err := d.CreatePoolMember(ctx, pool, node, spec.Port); err != nil {
			return nil, errors.Wrapf(err, "binding member %s into pool %s failed", member.IP, pool.ID)
		}
	}

	listener, err := d.CreateVirtualListener(ctx, ListenerSpec{
		Name:        spec.Name,
		Description: spec.Name,
		Port:        spec.ListenerPort,
		PoolID:      pool.ID,
		Protocol:    protocol,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating virtual listener failed")
	}
	klog.V(2).Infof("nttcis: created balancer %s (listener %s, pool %s)", spec.Name, listener.ID, pool.ID)

	return &cloud.LoadBalancer{
		ID:    listener.ID,
		Name:  listener.Name,
		State: cloud.StateRunning,
		IP:    listener.IP,
		Port:  spec.Port,
		Extra: map[string]string{
			"poolId":          pool.ID,
			"networkDomainId": d.networkDomainID,
		},
	}, nil
}

// ListBalancers lists the virtual listeners of the driver's network domain.
func (d *Driver) ListBalancers(ctx context.Context) ([]*cloud.LoadBalancer, error) {
	return d.ListBalancersIn(ctx, d.networkDomainID)
}

// ListBalancersIn lists virtual listeners. An empty networkDomainID returns
// every listener of the organization.
func (d *Driver) ListBalancersIn(ctx context.Context, networkDomainID string) ([]*cloud.LoadBalancer, error) {
	var params url.Values
	if networkDomainID != "" {
		params = url.Values{"networkDomainId": []string{networkDomainID}}
	}
	root, err := d.apiGet(ctx, "networkDomainVip/virtualListener", params)
	if err != nil {
		return nil, err
	}
	return toBalancers(root), nil
}

// GetBalancer fetches one virtual listener by ID.
func (d *Driver) GetBalancer(ctx context.Context, id string) (*cloud.LoadBalancer, error) {
	root, err := d.apiGet(ctx, "networkDomainVip/virtualListener/"+id, nil)
	if err != nil {
		return nil, err
	}
	return toBalancer(root), nil
}

// DestroyBalancer deletes the virtual listener. The pool and its nodes stay.
func (d *Driver) DestroyBalancer(ctx context.Context, balancer *cloud.LoadBalancer) error {
	doc, root := client.NewDocument("deleteVirtualListener", TypesURN)
	root.CreateAttr("id", balancer.ID)
	resp, err := d.apiPost(ctx, "networkDomainVip/deleteVirtualListener", doc)
	if err != nil {
		return err
	}
	if !responseOK(resp) {
		return errors.Errorf("deleting virtual listener %s was rejected: %s", balancer.ID, client.FindText(resp, "responseCode"))
	}
	return nil
}

// UpdateListener edits fields of an existing virtual listener. Nil-valued
// entries of fields clear the server-side value via xsi:nil.
func (d *Driver) UpdateListener(ctx context.Context, listenerID string, fields map[string]*string) error {
	doc, root := client.NewDocument("editVirtualListener", TypesURN)
	root.CreateAttr("id", listenerID)
	root.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	for key, value := range fields {
		el := root.CreateElement(key)
		if value == nil {
			el.CreateAttr("xsi:nil", "true")
		} else {
			el.SetText(*value)
		}
	}
	resp, err := d.apiPost(ctx, "networkDomainVip/editVirtualListener", doc)
	if err != nil {
		return err
	}
	if !responseOK(resp) {
		return errors.Errorf("editing virtual listener %s was rejected: %s", listenerID, client.FindText(resp, "responseCode"))
	}
	return nil
}

// CreateVirtualListener creates a load balancer front-end. Ports 80 and 443
// get a PERFORMANCE_LAYER_4 listener, everything else a STANDARD one.
func (d *Driver) CreateVirtualListener(ctx context.Context, spec ListenerSpec) (*VirtualListener, error) {
	listenerType := "STANDARD"
	if spec.Port == 80 || spec.Port == 443 {
		listenerType = "PERFORMANCE_LAYER_4"
	}
	protocol := spec.Protocol
	if protocol == "" {
		protocol = "TCP"
	}
	optimizationProfile := spec.OptimizationProfile
	if optimizationProfile == "" {
		optimizationProfile = "TCP"
	}
	connectionLimit := spec.ConnectionLimit
	if connectionLimit == 0 {
		connectionLimit = 25000
	}
	connectionRateLimit := spec.ConnectionRateLimit
	if connectionRateLimit == 0 {
		connectionRateLimit = 2000
	}
	sourcePortPreservation := spec.SourcePortPreservation
	if sourcePortPreservation == "" {
		sourcePortPreservation = "PRESERVE"
	}

	doc, root := client.NewDocument("createVirtualListener", TypesURN)
	root.CreateElement("networkDomainId").SetText(d.networkDomainID)
	root.CreateElement("name").SetText(spec.Name)
	root.CreateElement("description").SetText(spec.Description)
	root.CreateElement("type").SetText(listenerType)
	root.CreateElement("protocol").SetText(protocol)
	if spec.ListenerIPAddress != "" {
		root.CreateElement("listenerIpAddress").SetText(spec.ListenerIPAddress)
	}
	if spec.Port != 0 {
		root.CreateElement("port").SetText(itoa(spec.Port))
	}
	root.CreateElement("enabled").SetText("true")
	root.CreateElement("connectionLimit").SetText(itoa(connectionLimit))
	root.CreateElement("connectionRateLimit").SetText(itoa(connectionRateLimit))
	root.CreateElement("sourcePortPreservation").SetText(sourcePortPreservation)
	if spec.PoolID != "" {
		root.CreateElement("poolId").SetText(spec.PoolID)
	}
	if spec.PersistenceProfileID != "" {
		root.CreateElement("persistenceProfileId").SetText(spec.PersistenceProfileID)
	}
	root.CreateElement("optimizationProfile").SetText(optimizationProfile)
	if spec.FallbackPersistenceProfileID != "" {
		root.CreateElement("fallbackPersistenceProfileId").SetText(spec.FallbackPersistenceProfileID)
	}
	if spec.IRuleID != "" {
		root.CreateElement("iruleId").SetText(spec.IRuleID)
	}

	resp, err := d.apiPost(ctx, "networkDomainVip/createVirtualListener", doc)
	if err != nil {
		return nil, err
	}
	return &VirtualListener{
		ID:    infoValue(resp, "virtualListenerId"),
		Name:  spec.Name,
		IP:    infoValue(resp, "listenerIpAddress"),
		State: cloud.StateRunning,
	}, nil
}

// ListMembers lists the pool members behind a balancer as generic members.
func (d *Driver) ListMembers(ctx context.Context, balancer *cloud.LoadBalancer) ([]*cloud.Member, error) {
	poolID := balancer.Extra["poolId"]
	if poolID == "" {
		return nil, errors.Errorf("balancer %s has no pool", balancer.ID)
	}
	poolMembers, err := d.GetPoolMembers(ctx, poolID)
	if err != nil {
		return nil, err
	}
	var members []*cloud.Member
	for _, pm := range poolMembers {
		members = append(members, &cloud.Member{
			ID:   pm.ID,
			IP:   pm.IP,
			Port: pm.Port,
		})
	}
	return members, nil
}

// AttachMember creates a node for the member address and binds it into the
// balancer's pool.
func (d *Driver) AttachMember(ctx context.Context, balancer *cloud.LoadBalancer, member cloud.Member) (*cloud.Member, error) {
	node, err := d.CreateNode(ctx, NodeSpec{
		Name: "Member." + member.IP,
		IP:   member.IP,
	})
	if err != nil {
		return nil, err
	}
	pool, err := d.GetPool(ctx, balancer.Extra["poolId"])
	if err != nil {
		return nil, err
	}
	poolMember, err := d.CreatePoolMember(ctx, pool, node, member.Port)
	if err != nil {
		return nil, err
	}
	member.ID = poolMember.ID
	return &member, nil
}

// DetachMember removes the member from the balancer's pool. The node stays.
func (d *Driver) DetachMember(ctx context.Context, balancer *cloud.LoadBalancer, member *cloud.Member) error {
	doc, root := client.NewDocument("removePoolMember", TypesURN)
	root.CreateAttr("id", member.ID)
	resp, err := d.apiPost(ctx, "networkDomainVip/removePoolMember", doc)
	if err != nil {
		return err
	}
	if !responseOK(resp) {
		return errors.Errorf("removing pool member %s was rejected: %s", member.ID, client.FindText(resp, "responseCode"))
	}
	return nil
}
