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

import "github.com/keremdokuz/libcloud/pkg/cloud"

// Pool is a named group of VIP nodes with a balancing method.
type Pool struct {
	ID                string
	Name              string
	Description       string
	Status            string
	LoadBalanceMethod string
	HealthMonitorID   string
	ServiceDownAction string
	SlowRampTime      int
}

// PoolMember is a VIP node bound into a pool on a specific port.
type PoolMember struct {
	ID     string
	Name   string
	Status string
	IP     string
	Port   int
	NodeID string
}

// VIPNode is a backend server address known to the load balancer service.
type VIPNode struct {
	ID                  string
	Name                string
	State               cloud.State
	IP                  string
	HealthMonitorID     string
	ConnectionLimit     int
	ConnectionRateLimit int
}

// VirtualListener is the vendor term for a load balancer front-end.
type VirtualListener struct {
	ID    string
	Name  string
	IP    string
	State cloud.State
}

// DefaultHealthMonitor is a health monitor offered by the network domain.
type DefaultHealthMonitor struct {
	ID             string
	Name           string
	NodeCompatible bool
	PoolCompatible bool
}

// ListenerCompatibility records which listener type a profile or iRule may
// be attached to.
type ListenerCompatibility struct {
	Type     string
	Protocol string
}

// PersistenceProfile forces requests of one client to the same node.
type PersistenceProfile struct {
	ID                  string
	Name                string
	FallbackCompatible  bool
	CompatibleListeners []ListenerCompatibility
}

// DefaultIRule is an iRule offered by the network domain.
type DefaultIRule struct {
	ID                  string
	Name                string
	CompatibleListeners []ListenerCompatibility
}

// SSLDomainCertificate is a certificate imported for SSL offloading.
type SSLDomainCertificate struct {
	ID              string
	Name            string
	Description     string
	State           string
	NetworkDomainID string
	ExpiryTime      string
}

// SSLCertificateChain is a certificate chain imported for SSL offloading.
type SSLCertificateChain struct {
	ID              string
	Name            string
	Description     string
	State           string
	NetworkDomainID string
	ExpiryTime      string
}

// SSLOffloadProfile binds a domain certificate, optional chain and cipher
// list for use by a virtual listener.
type SSLOffloadProfile struct {
	ID                     string
	Name                   string
	Description            string
	State                  string
	Ciphers                string
	SSLDomainCertificateID string
	SSLCertificateChainID  string
}

// PoolSpec describes a pool requested from CreatePool.
type PoolSpec struct {
	Name        string
	Description string
	// LoadBalanceMethod is a vendor loadBalanceMethod value.
	LoadBalanceMethod string
	HealthMonitorIDs  []string
	// ServiceDownAction is one of NONE, DROP or RESELECT. Default: NONE.
	ServiceDownAction string
	// SlowRampTime staggers ramp up of new nodes, in seconds. Default: 30.
	SlowRampTime int
}

// NodeSpec describes a VIP node requested from CreateNode.
type NodeSpec struct {
	Name        string
	IP          string
	Description string
	// ConnectionLimit caps concurrent connections. Default: 25000.
	ConnectionLimit int
	// ConnectionRateLimit caps connections per second. Default: 2000.
	ConnectionRateLimit int
}

// ListenerSpec describes a virtual listener requested from
// CreateVirtualListener. Zero Port means "any port".
type ListenerSpec struct {
	Name        string
	Description string
	Port        int
	PoolID      string
	// ListenerIPAddress must be a valid IPv4 address in dot-decimal notation.
	// Empty lets the vendor allocate one.
	ListenerIPAddress string
	// Protocol is ANY, TCP or UDP for STANDARD listeners; HTTP is also
	// accepted for PERFORMANCE_LAYER_4. Default: TCP.
	Protocol string
	// OptimizationProfile is required for STANDARD listeners with protocol
	// TCP: TCP, LAN_OPT, WAN_OPT, MOBILE_OPT or TCP_LEGACY. Default: TCP.
	OptimizationProfile          string
	PersistenceProfileID         string
	FallbackPersistenceProfileID string
	IRuleID                      string
	ConnectionLimit              int
	ConnectionRateLimit          int
	// SourcePortPreservation is PRESERVE, PRESERVE_STRICT or CHANGE.
	SourcePortPreservation string
}

// SSLOffloadProfileSpec describes an SSL offload profile.
type SSLOffloadProfileSpec struct {
	Name                   string
	Description            string
	Ciphers                string
	SSLDomainCertificateID string
	SSLCertificateChainID  string
}
