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

package cloud

// State is the provider independent state of a load balancer or one of its
// members. Drivers translate vendor status strings into these values.
type State string

const (
	StateRunning State = "running"
	StatePending State = "pending"
	StateError   State = "error"
	StateStopped State = "stopped"
	StateUnknown State = "unknown"
)

// NodeState is the provider independent state of a compute node.
type NodeState string

const (
	NodeStateRunning    NodeState = "running"
	NodeStatePending    NodeState = "pending"
	NodeStateStopped    NodeState = "stopped"
	NodeStateSuspended  NodeState = "suspended"
	NodeStateTerminated NodeState = "terminated"
	NodeStateError      NodeState = "error"
	NodeStateUnknown    NodeState = "unknown"
)

// Algorithm is a load balancing method supported by at least one driver.
type Algorithm string

const (
	AlgorithmRoundRobin             Algorithm = "round-robin"
	AlgorithmLeastConnectionsMember Algorithm = "least-connections-member"
	AlgorithmLeastConnectionsNode   Algorithm = "least-connections-node"
	AlgorithmObservedMember         Algorithm = "observed-member"
	AlgorithmObservedNode           Algorithm = "observed-node"
	AlgorithmPredictiveMember       Algorithm = "predictive-member"
	AlgorithmPredictiveNode         Algorithm = "predictive-node"
)

// DefaultAlgorithm is used when a caller does not request a specific method.
const DefaultAlgorithm = AlgorithmRoundRobin

// LoadBalancer is the uniform representation of a load balancer front-end.
// Extra carries provider specific attributes keyed by name.
type LoadBalancer struct {
	ID    string
	Name  string
	State State
	IP    string
	Port  int
	Extra map[string]string
}

// Member is a backend server attached to a load balancer.
type Member struct {
	ID    string
	IP    string
	Port  int
	Extra map[string]string
}

// Node is the uniform representation of a compute instance.
type Node struct {
	ID         string
	Name       string
	State      NodeState
	PublicIPs  []string
	PrivateIPs []string
	Extra      map[string]interface{}
}

// NodeImage is a bootable image or template offered by a provider.
type NodeImage struct {
	ID   string
	Name string
}

// NodeSize describes a hardware configuration for a node.
type NodeSize struct {
	ID        string
	Name      string
	RAM       int // MB
	Disk      int // GB
	Bandwidth int
	Price     float64
}
