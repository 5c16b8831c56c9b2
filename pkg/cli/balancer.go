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

package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/keremdokuz/libcloud/pkg/cloud"
)

var (
	lbName         string
	lbListenerPort int
	lbPort         int
	lbProtocol     string
	lbAlgorithm    string
	lbMembers      []string
)

func addBalancerCommands(rootCmd *cobra.Command) {
	lbCmd := &cobra.Command{
		Use:   "lb",
		Short: "Manage load balancers",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List load balancers in the configured network domain",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := balancerDriver()
			if err != nil {
				return err
			}
			balancers, err := d.ListBalancers(cmd.Context())
			if err != nil {
				return err
			}
			for _, b := range balancers {
				fmt.Printf("%s\t%s\t%s\t%s:%d\n", b.ID, b.Name, b.State, b.IP, b.Port)
			}
			return nil
		},
	}

	getCmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show one load balancer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := balancerDriver()
			if err != nil {
				return err
			}
			b, err := d.GetBalancer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s\t%s\t%s\t%s:%d\n", b.ID, b.Name, b.State, b.IP, b.Port)
			for key, value := range b.Extra {
				fmt.Printf("  %s: %s\n", key, value)
			}
			return nil
		},
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a load balancer with its pool and members",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := balancerDriver()
			if err != nil {
				return err
			}
			members, err := parseMembers(lbMembers)
			if err != nil {
				return err
			}
			b, err := d.CreateBalancer(cmd.Context(), cloud.BalancerSpec{
				Name:         lbName,
				ListenerPort: lbListenerPort,
				Port:         lbPort,
				Protocol:     lbProtocol,
				Algorithm:    cloud.Algorithm(lbAlgorithm),
				Members:      members,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created %s (%s) at %s:%d\n", b.Name, b.ID, b.IP, b.Port)
			return nil
		},
	}
	createCmd.Flags().StringVar(&lbName, "name", "", "load balancer name")
	createCmd.Flags().IntVar(&lbListenerPort, "listener-port", 0, "front-end port, 0 for any")
	createCmd.Flags().IntVar(&lbPort, "port", 0, "back-end member port, 0 for any")
	createCmd.Flags().StringVar(&lbProtocol, "protocol", "http", "listener protocol")
	createCmd.Flags().StringVar(&lbAlgorithm, "algorithm", string(cloud.DefaultAlgorithm), "balancing algorithm")
	createCmd.Flags().StringArrayVar(&lbMembers, "member", nil, "member address as ip:port, repeatable")
	_ = createCmd.MarkFlagRequired("name")

	destroyCmd := &cobra.Command{
		Use:   "destroy ID",
		Short: "Destroy a load balancer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := balancerDriver()
			if err != nil {
				return err
			}
			b, err := d.GetBalancer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return d.DestroyBalancer(cmd.Context(), b)
		},
	}

	membersCmd := &cobra.Command{
		Use:   "members ID",
		Short: "List the members of a load balancer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := balancerDriver()
			if err != nil {
				return err
			}
			b, err := d.GetBalancer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			members, err := d.ListMembers(cmd.Context(), b)
			if err != nil {
				return err
			}
			for _, m := range members {
				fmt.Printf("%s\t%s:%d\n", m.ID, m.IP, m.Port)
			}
			return nil
		},
	}

	protocolsCmd := &cobra.Command{
		Use:   "protocols",
		Short: "List the protocols the provider supports",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := balancerDriver()
			if err != nil {
				return err
			}
			for _, protocol := range d.ListProtocols() {
				fmt.Println(protocol)
			}
			return nil
		},
	}

	lbCmd.AddCommand(listCmd, getCmd, createCmd, destroyCmd, membersCmd, protocolsCmd)
	rootCmd.AddCommand(lbCmd)
}

func parseMembers(addrs []string) ([]cloud.Member, error) {
	var members []cloud.Member
	for _, addr := range addrs {
		ip, portStr, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid member %q, want ip:port: %v", addr, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid member port in %q: %v", addr, err)
		}
		members = append(members, cloud.Member{IP: ip, Port: port})
	}
	return members, nil
}
