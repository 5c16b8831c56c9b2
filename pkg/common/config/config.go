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

// Package config reads the cloud configuration file. The YAML format is
// preferred; the legacy INI format is still accepted. Environment variables
// override values from either format.
package config

import (
	"fmt"
	"os"
	"strconv"

	klog "k8s.io/klog/v2"
)

// FromEnv initializes the provided configuration object with values obtained
// from environment variables. If an environment variable is set for a
// property that's already initialized, the environment variable's value takes
// precedence.
func (cfg *Config) FromEnv() error {
	if v := os.Getenv("LIBCLOUD_INSECURE"); v != "" {
		insecure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing LIBCLOUD_INSECURE: %s", err)
		}
		cfg.Global.Insecure = insecure
	}
	if v := os.Getenv("LIBCLOUD_CA_FILE"); v != "" {
		cfg.Global.CAFile = v
	}

	if v := os.Getenv("NTTCIS_USER"); v != "" {
		cfg.NTTCIS.User = v
	}
	if v := os.Getenv("NTTCIS_PASSWORD"); v != "" {
		cfg.NTTCIS.Password = v
	}
	if v := os.Getenv("NTTCIS_REGION"); v != "" {
		cfg.NTTCIS.Region = v
	}
	if v := os.Getenv("NTTCIS_HOST"); v != "" {
		cfg.NTTCIS.Host = v
	}
	if v := os.Getenv("NTTCIS_NETWORK_DOMAIN_ID"); v != "" {
		cfg.NTTCIS.NetworkDomainID = v
	}

	if v := os.Getenv("VCLOUD_HOST"); v != "" {
		cfg.VCloud.Host = v
	}
	if v := os.Getenv("VCLOUD_ORG"); v != "" {
		cfg.VCloud.Org = v
	}
	if v := os.Getenv("VCLOUD_USER"); v != "" {
		cfg.VCloud.User = v
	}
	if v := os.Getenv("VCLOUD_PASSWORD"); v != "" {
		cfg.VCloud.Password = v
	}
	if v := os.Getenv("VCLOUD_API_VERSION"); v != "" {
		cfg.VCloud.APIVersion = v
	}
	return nil
}

// ReadConfig parses the cloud configuration file and applies environment
// overrides.
func ReadConfig(byConfig []byte) (*Config, error) {
	if len(byConfig) == 0 {
		return nil, fmt.Errorf("no cloud configuration file given")
	}

	var cfg *Config
	var err error
	if looksLikeINI(byConfig) {
		cfg, err = ReadConfigINI(byConfig)
		if err != nil {
			klog.Errorf("ReadConfigINI failed: %s", err)
			return nil, err
		}
		klog.Info("ReadConfig INI succeeded. The INI based cloud-config is deprecated, please use the YAML format.")
	} else {
		cfg, err = ReadConfigYAML(byConfig)
		if err != nil {
			klog.Errorf("ReadConfigYAML failed: %s", err)
			return nil, err
		}
		klog.Info("ReadConfig YAML succeeded")
	}

	// Env vars should override config file entries if present
	if err := cfg.FromEnv(); err != nil {
		klog.Errorf("FromEnv failed: %s", err)
		return nil, err
	}

	klog.Info("Config initialized")
	return cfg, nil
}
