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

// Package cli implements the cloudctl subcommands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/keremdokuz/libcloud/pkg/common/config"
	"github.com/keremdokuz/libcloud/pkg/compute/vcloud"
	"github.com/keremdokuz/libcloud/pkg/loadbalancer/nttcis"
)

var configFile string

// ParseConfig loads the cloud configuration file given with --config.
func ParseConfig() (*config.Config, error) {
	if len(configFile) == 0 {
		return nil, fmt.Errorf("please specify a cloud config file, e.g. --config cloud.conf")
	}
	byConfig, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("can not read config file %s: %v", configFile, err)
	}
	return config.ReadConfig(byConfig)
}

func balancerDriver() (*nttcis.Driver, error) {
	cfg, err := ParseConfig()
	if err != nil {
		return nil, err
	}
	return nttcis.NewDriver(cfg)
}

func nodeDriver() (*vcloud.Driver, error) {
	cfg, err := ParseConfig()
	if err != nil {
		return nil, err
	}
	return vcloud.NewDriver(cfg)
}

// NewRootCommand builds the cloudctl command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "cloudctl",
		Short:        "Manage load balancers and compute nodes across cloud providers",
		SilenceUsage: true,
	}
	addGlobalFlags(rootCmd.PersistentFlags())
	addBalancerCommands(rootCmd)
	addNodeCommands(rootCmd)
	return rootCmd
}

func addGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVar(&configFile, "config", "", "cloud config file path")
}
