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

// Package cloud defines the provider independent object model and the driver
// interfaces implemented by the per-provider packages.
package cloud

import "context"

// BalancerSpec describes the load balancer requested from CreateBalancer.
type BalancerSpec struct {
	Name string
	// ListenerPort is the front-end port. Zero means "any port".
	ListenerPort int
	// Port is the back-end port the members listen on. Zero means "any port".
	Port      int
	Protocol  string
	Algorithm Algorithm
	Members   []Member
}

// LoadBalancerDriver is implemented by every load balancer provider.
type LoadBalancerDriver interface {
	CreateBalancer(ctx context.Context, spec BalancerSpec) (*LoadBalancer, error)
	ListBalancers(ctx context.Context) ([]*LoadBalancer, error)
	GetBalancer(ctx context.Context, id string) (*LoadBalancer, error)
	DestroyBalancer(ctx context.Context, balancer *LoadBalancer) error
	ListMembers(ctx context.Context, balancer *LoadBalancer) ([]*Member, error)
	AttachMember(ctx context.Context, balancer *LoadBalancer, member Member) (*Member, error)
	DetachMember(ctx context.Context, balancer *LoadBalancer, member *Member) error
	ListProtocols() []string
}

// NodeSpec describes the compute node requested from CreateNode.
type NodeSpec struct {
	Name  string
	Image NodeImage
	Size  NodeSize
	// Extra carries provider specific creation parameters keyed by name.
	Extra map[string]interface{}
}

// NodeDriver is implemented by every compute provider.
type NodeDriver interface {
	ListNodes(ctx context.Context) ([]*Node, error)
	CreateNode(ctx context.Context, spec NodeSpec) (*Node, error)
	DestroyNode(ctx context.Context, node *Node) error
	RebootNode(ctx context.Context, node *Node) error
	ListImages(ctx context.Context) ([]*NodeImage, error)
	ListSizes(ctx context.Context) ([]*NodeSize, error)
}
