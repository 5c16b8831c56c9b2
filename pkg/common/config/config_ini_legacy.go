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

package config

import (
	"fmt"
	"strings"

	gcfg "gopkg.in/gcfg.v1"
)

/*
	TODO:
	When the INI based cloud-config is deprecated, this file should be deleted.
*/

// ConfigINI is the INI representation of the cloud configuration file.
type ConfigINI struct {
	Global struct {
		Insecure bool   `gcfg:"insecure-flag"`
		CAFile   string `gcfg:"ca-file"`
	}
	NTTCIS struct {
		User            string `gcfg:"user"`
		Password        string `gcfg:"password"`
		Region          string `gcfg:"region"`
		Host            string `gcfg:"host"`
		NetworkDomainID string `gcfg:"network-domain-id"`
	}
	VCloud struct {
		Host       string `gcfg:"host"`
		Org        string `gcfg:"org"`
		User       string `gcfg:"user"`
		Password   string `gcfg:"password"`
		APIVersion string `gcfg:"api-version"`
	}
}

// ReadConfigINI parses the legacy INI form of the cloud configuration file.
func ReadConfigINI(byConfig []byte) (*Config, error) {
	var ci ConfigINI
	if err := gcfg.FatalOnly(gcfg.ReadStringInto(&ci, string(byConfig))); err != nil {
		return nil, err
	}
	if ci.NTTCIS.User == "" && ci.VCloud.User == "" {
		return nil, fmt.Errorf("no provider section found in INI config")
	}
	return &Config{
		Global: GlobalConfig{
			Insecure: ci.Global.Insecure,
			CAFile:   ci.Global.CAFile,
		},
		NTTCIS: NTTCISConfig{
			User:            ci.NTTCIS.User,
			Password:        ci.NTTCIS.Password,
			Region:          ci.NTTCIS.Region,
			Host:            ci.NTTCIS.Host,
			NetworkDomainID: ci.NTTCIS.NetworkDomainID,
		},
		VCloud: VCloudConfig{
			Host:       ci.VCloud.Host,
			Org:        ci.VCloud.Org,
			User:       ci.VCloud.User,
			Password:   ci.VCloud.Password,
			APIVersion: ci.VCloud.APIVersion,
		},
	}, nil
}

// looksLikeINI is a cheap format sniff used before falling back to gcfg.
func looksLikeINI(byConfig []byte) bool {
	return strings.Contains(string(byConfig), "[Global]") ||
		strings.Contains(string(byConfig), "[NTTCIS]") ||
		strings.Contains(string(byConfig), "[VCloud]")
}
