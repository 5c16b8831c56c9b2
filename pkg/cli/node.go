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
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keremdokuz/libcloud/pkg/cloud"
	"github.com/keremdokuz/libcloud/pkg/compute/vcloud"
)

var (
	nodeImage   string
	nodeVdc     string
	nodeNetwork string
	nodeCPUs    int
	nodeMemory  int
	nodeDisk    int
	nodeScript  string
)

func addNodeCommands(rootCmd *cobra.Command) {
	nodeCmd := &cobra.Command{
		Use:   "node",
		Short: "Manage compute nodes",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List nodes across all virtual datacenters",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := nodeDriver()
			if err != nil {
				return err
			}
			nodes, err := d.ListNodes(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range nodes {
				fmt.Printf("%s\t%s\t%s\t%s\n", n.Name, n.State,
					strings.Join(n.PublicIPs, ","), strings.Join(n.PrivateIPs, ","))
			}
			return nil
		},
	}

	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a node from an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := nodeDriver()
			if err != nil {
				return err
			}
			extra := map[string]interface{}{}
			if nodeVdc != "" {
				extra["vdc"] = nodeVdc
			}
			if nodeNetwork != "" {
				extra["network"] = nodeNetwork
			}
			if nodeCPUs > 0 {
				extra["cpus"] = nodeCPUs
			}
			if nodeMemory > 0 {
				extra["memory"] = nodeMemory
			}
			if nodeDisk > 0 {
				extra["disk"] = nodeDisk
			}
			if nodeScript != "" {
				extra["scriptFile"] = nodeScript
			}
			n, err := d.CreateNode(cmd.Context(), cloud.NodeSpec{
				Name:  args[0],
				Image: cloud.NodeImage{ID: nodeImage},
				Extra: extra,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created %s (%s)\n", n.Name, n.State)
			return nil
		},
	}
	createCmd.Flags().StringVar(&nodeImage, "image", "", "template href or identifier")
	createCmd.Flags().StringVar(&nodeVdc, "vdc", "", "virtual datacenter name")
	createCmd.Flags().StringVar(&nodeNetwork, "network", "", "organization network name")
	createCmd.Flags().IntVar(&nodeCPUs, "cpus", 0, "virtual CPU count")
	createCmd.Flags().IntVar(&nodeMemory, "memory", 0, "memory in MB")
	createCmd.Flags().IntVar(&nodeDisk, "disk", 0, "extra disk size in GB")
	createCmd.Flags().StringVar(&nodeScript, "script", "", "guest customization script file")
	_ = createCmd.MarkFlagRequired("image")

	destroyCmd := &cobra.Command{
		Use:   "destroy NAME",
		Short: "Undeploy and delete a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := nodeDriver()
			if err != nil {
				return err
			}
			n, err := findNode(cmd.Context(), d, args[0])
			if err != nil {
				return err
			}
			return d.DestroyNode(cmd.Context(), n)
		},
	}

	rebootCmd := &cobra.Command{
		Use:   "reboot NAME",
		Short: "Reset a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := nodeDriver()
			if err != nil {
				return err
			}
			n, err := findNode(cmd.Context(), d, args[0])
			if err != nil {
				return err
			}
			return d.RebootNode(cmd.Context(), n)
		},
	}

	imagesCmd := &cobra.Command{
		Use:   "images",
		Short: "List templates usable as node images",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := nodeDriver()
			if err != nil {
				return err
			}
			images, err := d.ListImages(cmd.Context())
			if err != nil {
				return err
			}
			for _, image := range images {
				fmt.Printf("%s\t%s\n", image.Name, image.ID)
			}
			return nil
		},
	}

	sizesCmd := &cobra.Command{
		Use:   "sizes",
		Short: "List available node sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := nodeDriver()
			if err != nil {
				return err
			}
			sizes, err := d.ListSizes(cmd.Context())
			if err != nil {
				return err
			}
			for _, size := range sizes {
				fmt.Printf("%s\t%d MB\n", size.Name, size.RAM)
			}
			return nil
		},
	}

	networksCmd := &cobra.Command{
		Use:   "networks",
		Short: "List organization networks",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := nodeDriver()
			if err != nil {
				return err
			}
			networks, err := d.ListNetworks(cmd.Context())
			if err != nil {
				return err
			}
			for _, network := range networks {
				fmt.Printf("%s\t%s\n", network.Name, network.Href)
			}
			return nil
		},
	}

	nodeCmd.AddCommand(listCmd, createCmd, destroyCmd, rebootCmd, imagesCmd, sizesCmd, networksCmd)
	rootCmd.AddCommand(nodeCmd)
}

func findNode(ctx context.Context, d *vcloud.Driver, name string) (*cloud.Node, error) {
	n, err := d.FindNode(ctx, name)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("node %q not found", name)
	}
	return n, nil
}
