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

	yaml "gopkg.in/yaml.v2"
)

// ConfigYAML is the YAML representation of the cloud configuration file.
type ConfigYAML struct {
	Global GlobalYAML `yaml:"global"`
	NTTCIS NTTCISYAML `yaml:"nttcis"`
	VCloud VCloudYAML `yaml:"vcloud"`
}

// GlobalYAML contains the YAML representation of the global section.
type GlobalYAML struct {
	Insecure bool   `yaml:"insecureFlag"`
	CAFile   string `yaml:"caFile"`
}

// NTTCISYAML contains the YAML representation of the nttcis section.
type NTTCISYAML struct {
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Region          string `yaml:"region"`
	Host            string `yaml:"host"`
	NetworkDomainID string `yaml:"networkDomainId"`
}

// VCloudYAML contains the YAML representation of the vcloud section.
type VCloudYAML struct {
	Host       string `yaml:"host"`
	Org        string `yaml:"org"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	APIVersion string `yaml:"apiVersion"`
}

func (cy *ConfigYAML) isEmpty() bool {
	return cy.NTTCIS == (NTTCISYAML{}) && cy.VCloud == (VCloudYAML{})
}

// ReadConfigYAML parses the YAML form of the cloud configuration file.
func ReadConfigYAML(byConfig []byte) (*Config, error) {
	var cy ConfigYAML
	if err := yaml.UnmarshalStrict(byConfig, &cy); err != nil {
		return nil, err
	}
	if cy.isEmpty() {
		return nil, fmt.Errorf("no provider section found in YAML config")
	}
	return &Config{
		Global: GlobalConfig{
			Insecure: cy.Global.Insecure,
			CAFile:   cy.Global.CAFile,
		},
		NTTCIS: NTTCISConfig{
			User:            cy.NTTCIS.User,
			Password:        cy.NTTCIS.Password,
			Region:          cy.NTTCIS.Region,
			Host:            cy.NTTCIS.Host,
			NetworkDomainID: cy.NTTCIS.NetworkDomainID,
		},
		VCloud: VCloudConfig{
			Host:       cy.VCloud.Host,
			Org:        cy.VCloud.Org,
			User:       cy.VCloud.User,
			Password:   cy.VCloud.Password,
			APIVersion: cy.VCloud.APIVersion,
		},
	}, nil
}
