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

// Config is used to read and store the cloud configuration file.
type Config struct {
	Global GlobalConfig
	NTTCIS NTTCISConfig
	VCloud VCloudConfig
}

// GlobalConfig holds settings shared by all providers.
type GlobalConfig struct {
	// True if the provider endpoint uses a self-signed cert.
	Insecure bool
	// Path to a CA certificate in PEM format. Optional; if not configured,
	// the system's CA certificates will be used.
	CAFile string
}

// NTTCISConfig holds the NTT CIS load balancer API settings.
type NTTCISConfig struct {
	User     string
	Password string
	// Region selects the regional API endpoint. Default: na.
	Region string
	// Host overrides the regional endpoint. Required for unknown regions.
	Host string
	// NetworkDomainID scopes all load balancer operations.
	NetworkDomainID string
}

// VCloudConfig holds the vCloud compute API settings.
type VCloudConfig struct {
	Host     string
	Org      string
	User     string
	Password string
	// APIVersion selects driver behavior. Supported: 1.5 (default), 5.1.
	APIVersion string
}
