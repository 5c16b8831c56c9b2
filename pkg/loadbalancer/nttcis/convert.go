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
	"strconv"

	"github.com/beevik/etree"

	"github.com/keremdokuz/libcloud/pkg/cloud"
	"github.com/keremdokuz/libcloud/pkg/common/client"
)

// Converters from response elements to typed records. Fields are copied
// verbatim from the named XML attributes and elements.

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func toBalancers(root *etree.Element) []*cloud.LoadBalancer {
	var balancers []*cloud.LoadBalancer
	for _, el := range client.FindAll(root, "virtualListener") {
		balancers = append(balancers, toBalancer(el))
	}
	return balancers
}

func toBalancer(el *etree.Element) *cloud.LoadBalancer {
	extra := map[string]string{
		"networkDomainId": client.FindText(el, "networkDomainId"),
	}
	if pool := client.Find(el, "pool"); pool != nil {
		extra["poolId"] = client.Attr(pool, "id")
	}
	return &cloud.LoadBalancer{
		ID:    client.Attr(el, "id"),
		Name:  client.FindText(el, "name"),
		State: stateOf(client.FindText(el, "state")),
		IP:    client.FindText(el, "listenerIpAddress"),
		Port:  atoi(client.FindText(el, "port")),
		Extra: extra,
	}
}

func toPools(root *etree.Element) []*Pool {
	var pools []*Pool
	for _, el := range client.FindAll(root, "pool") {
		pools = append(pools, toPool(el))
	}
	return pools
}

func toPool(el *etree.Element) *Pool {
	return &Pool{
		ID:                client.Attr(el, "id"),
		Name:              client.FindText(el, "name"),
		Description:       client.FindText(el, "description"),
		Status:            client.FindText(el, "state"),
		LoadBalanceMethod: client.FindText(el, "loadBalanceMethod"),
		HealthMonitorID:   client.FindText(el, "healthMonitorId"),
		ServiceDownAction: client.FindText(el, "serviceDownAction"),
		SlowRampTime:      atoi(client.FindText(el, "slowRampTime")),
	}
}

func toMembers(root *etree.Element) []*PoolMember {
	var members []*PoolMember
	for _, el := range client.FindAll(root, "poolMember") {
		members = append(members, toMember(el))
	}
	return members
}

func toMember(el *etree.Element) *PoolMember {
	member := &PoolMember{
		ID:     client.Attr(el, "id"),
		Status: client.FindText(el, "state"),
		Port:   atoi(client.FindText(el, "port")),
	}
	if node := client.Find(el, "node"); node != nil {
		member.Name = client.Attr(node, "name")
		member.NodeID = client.Attr(node, "id")
		member.IP = client.Attr(node, "ipAddress")
	}
	return member
}

func toVIPNodes(root *etree.Element) []*VIPNode {
	var nodes []*VIPNode
	for _, el := range client.FindAll(root, "node") {
		nodes = append(nodes, toVIPNode(el))
	}
	return nodes
}

func toVIPNode(el *etree.Element) *VIPNode {
	ip := client.FindText(el, "ipv4Address")
	if ip == "" {
		ip = client.FindText(el, "ipv6Address")
	}
	node := &VIPNode{
		ID:                  client.Attr(el, "id"),
		Name:                client.FindText(el, "name"),
		State:               stateOf(client.FindText(el, "state")),
		IP:                  ip,
		ConnectionLimit:     atoi(client.FindText(el, "connectionLimit")),
		ConnectionRateLimit: atoi(client.FindText(el, "connectionRateLimit")),
	}
	if hm := client.Find(el, "healthMonitor"); hm != nil {
		node.HealthMonitorID = client.Attr(hm, "id")
	}
	return node
}

func toHealthMonitors(root *etree.Element) []*DefaultHealthMonitor {
	var monitors []*DefaultHealthMonitor
	for _, el := range client.FindAll(root, "defaultHealthMonitor") {
		monitors = append(monitors, &DefaultHealthMonitor{
			ID:             client.Attr(el, "id"),
			Name:           client.FindText(el, "name"),
			NodeCompatible: client.FindText(el, "nodeCompatible") == "true",
			PoolCompatible: client.FindText(el, "poolCompatible") == "true",
		})
	}
	return monitors
}

func toListenerCompatibilities(el *etree.Element) []ListenerCompatibility {
	var compatible []ListenerCompatibility
	for _, match := range client.FindAll(el, "virtualListenerCompatibility") {
		compatible = append(compatible, ListenerCompatibility{
			Type:     client.Attr(match, "type"),
			Protocol: client.Attr(match, "protocol"),
		})
	}
	return compatible
}

func toPersistenceProfiles(root *etree.Element) []*PersistenceProfile {
	var profiles []*PersistenceProfile
	for _, el := range client.FindAll(root, "defaultPersistenceProfile") {
		profiles = append(profiles, &PersistenceProfile{
			ID:                  client.Attr(el, "id"),
			Name:                client.FindText(el, "name"),
			FallbackCompatible:  client.Attr(el, "fallbackCompatible") == "true",
			CompatibleListeners: toListenerCompatibilities(el),
		})
	}
	return profiles
}

func toIRules(root *etree.Element) []*DefaultIRule {
	var irules []*DefaultIRule
	for _, el := range client.FindAll(root, "defaultIrule") {
		rule := &DefaultIRule{
			CompatibleListeners: toListenerCompatibilities(el),
		}
		if irule := client.Find(el, "irule"); irule != nil {
			rule.ID = client.Attr(irule, "id")
			rule.Name = client.Attr(irule, "name")
		}
		irules = append(irules, rule)
	}
	return irules
}

func toCert(el *etree.Element) *SSLDomainCertificate {
	return &SSLDomainCertificate{
		ID:              client.Attr(el, "id"),
		Name:            client.FindText(el, "name"),
		Description:     client.FindText(el, "description"),
		State:           client.FindText(el, "state"),
		NetworkDomainID: client.FindText(el, "networkDomainId"),
		ExpiryTime:      client.FindText(el, "expiryTime"),
	}
}

func toCertificateChain(el *etree.Element) *SSLCertificateChain {
	return &SSLCertificateChain{
		ID:              client.Attr(el, "id"),
		Name:            client.FindText(el, "name"),
		Description:     client.FindText(el, "description"),
		State:           client.FindText(el, "state"),
		NetworkDomainID: client.FindText(el, "networkDomainId"),
		ExpiryTime:      client.FindText(el, "expiryTime"),
	}
}

func toSSLProfile(el *etree.Element) *SSLOffloadProfile {
	profile := &SSLOffloadProfile{
		ID:          client.Attr(el, "id"),
		Name:        client.FindText(el, "name"),
		Description: client.FindText(el, "description"),
		State:       client.FindText(el, "state"),
		Ciphers:     client.FindText(el, "ciphers"),
	}
	if cert := client.Find(el, "sslDomainCertificate"); cert != nil {
		profile.SSLDomainCertificateID = client.Attr(cert, "id")
	}
	if chain := client.Find(el, "sslCertificateChain"); chain != nil {
		profile.SSLCertificateChainID = client.Attr(chain, "id")
	}
	return profile
}
