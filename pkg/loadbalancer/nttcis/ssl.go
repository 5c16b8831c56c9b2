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

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"net/url"
	"os"

	"github.com/pkg/errors"

	"github.com/keremdokuz/libcloud/pkg/common/client"
)

// SSLFilter narrows the SSL list operations. Zero fields are not sent.
type SSLFilter struct {
	ID              string
	NetworkDomainID string
	Name            string
	State           string
	CreateTime      string
	ExpiryTime      string
}

func (f SSLFilter) values() url.Values {
	params := url.Values{}
	set := func(key, value string) {
		if value != "" {
			params.Set(key, value)
		}
	}
	set("id", f.ID)
	set("networkDomainId", f.NetworkDomainID)
	set("name", f.Name)
	set("state", f.State)
	set("createTime", f.CreateTime)
	set("expiryTime", f.ExpiryTime)
	if len(params) == 0 {
		return nil
	}
	return params
}

// readPEMCertificate reads, validates and re-encodes a PEM certificate file.
func readPEMCertificate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "reading certificate %s failed", path)
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return "", errors.Errorf("%s carries no PEM certificate", path)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return "", errors.Wrapf(err, "parsing certificate %s failed", path)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})), nil
}

// readPEMPrivateKey reads, validates and re-encodes a PEM private key file.
func readPEMPrivateKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "reading private key %s failed", path)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return "", errors.Errorf("%s carries no PEM block", path)
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		if _, err := x509.ParsePKCS1PrivateKey(block.Bytes); err != nil {
			return "", errors.Wrapf(err, "parsing private key %s failed", path)
		}
	case "EC PRIVATE KEY":
		if _, err := x509.ParseECPrivateKey(block.Bytes); err != nil {
			return "", errors.Wrapf(err, "parsing private key %s failed", path)
		}
	case "PRIVATE KEY":
		if _, err := x509.ParsePKCS8PrivateKey(block.Bytes); err != nil {
			return "", errors.Wrapf(err, "parsing private key %s failed", path)
		}
	default:
		return "", errors.Errorf("%s carries no PEM private key", path)
	}
	return string(pem.EncodeToMemory(block)), nil
}

// ImportSSLDomainCertificate imports a certificate and its private key for
// SSL offloading onto the load balancer.
func (d *Driver) ImportSSLDomainCertificate(ctx context.Context, name, certFile, keyFile, description string) error {
	cert, err := readPEMCertificate(certFile)
	if err != nil {
		return err
	}
	key, err := readPEMPrivateKey(keyFile)
	if err != nil {
		return err
	}

	doc, root := client.NewDocument("importSslDomainCertificate", TypesURN)
	root.CreateElement("networkDomainId").SetText(d.networkDomainID)
	root.CreateElement("name").SetText(name)
	if description != "" {
		root.CreateElement("description").SetText(description)
	}
	root.CreateElement("key").SetText(key)
	root.CreateElement("certificate").SetText(cert)

	resp, err := d.apiPost(ctx, "networkDomainVip/importSslDomainCertificate", doc)
	if err != nil {
		return err
	}
	if !responseOK(resp) {
		return errors.Errorf("importing certificate %s was rejected: %s", name, client.FindText(resp, "responseCode"))
	}
	return nil
}

// DeleteSSLDomainCertificate deletes an imported certificate.
func (d *Driver) DeleteSSLDomainCertificate(ctx context.Context, certID string) error {
	doc, root := client.NewDocument("deleteSslDomainCertificate", TypesURN)
	root.CreateAttr("id", certID)
	resp, err := d.apiPost(ctx, "networkDomainVip/deleteSslDomainCertificate", doc)
	if err != nil {
		return err
	}
	if !responseOK(resp) {
		return errors.Errorf("deleting certificate %s was rejected: %s", certID, client.FindText(resp, "responseCode"))
	}
	return nil
}

// ImportSSLCertificateChain imports a certificate chain for SSL offloading.
func (d *Driver) ImportSSLCertificateChain(ctx context.Context, name, chainFile, description string) error {
	chain, err := readPEMCertificate(chainFile)
	if err != nil {
		return err
	}

	doc, root := client.NewDocument("importSslCertificateChain", TypesURN)
	root.CreateElement("networkDomainId").SetText(d.networkDomainID)
	root.CreateElement("name").SetText(name)
	if description != "" {
		root.CreateElement("description").SetText(description)
	}
	root.CreateElement("certificateChain").SetText(chain)

	resp, err := d.apiPost(ctx, "networkDomainVip/importSslCertificateChain", doc)
	if err != nil {
		return err
	}
	if !responseOK(resp) {
		return errors.Errorf("importing certificate chain %s was rejected: %s", name, client.FindText(resp, "responseCode"))
	}
	return nil
}

// DeleteSSLCertificateChain deletes an imported certificate chain.
func (d *Driver) DeleteSSLCertificateChain(ctx context.Context, chainID string) error {
	doc, root := client.NewDocument("deleteSslCertificateChain", TypesURN)
	root.CreateAttr("id", chainID)
	resp, err := d.apiPost(ctx, "networkDomainVip/deleteSslCertificateChain", doc)
	if err != nil {
		return err
	}
	if !responseOK(resp) {
		return errors.Errorf("deleting certificate chain %s was rejected: %s", chainID, client.FindText(resp, "responseCode"))
	}
	return nil
}

// CreateSSLOffloadProfile creates an SSL offload profile.
func (d *Driver) CreateSSLOffloadProfile(ctx context.Context, spec SSLOffloadProfileSpec) error {
	doc, root := client.NewDocument("createSslOffloadProfile", TypesURN)
	root.CreateElement("networkDomainId").SetText(d.networkDomainID)
	root.CreateElement("name").SetText(spec.Name)
	if spec.Description != "" {
		root.CreateElement("description").SetText(spec.Description)
	}
	if spec.Ciphers != "" {
		root.CreateElement("ciphers").SetText(spec.Ciphers)
	}
	root.CreateElement("sslDomainCertificateId").SetText(spec.SSLDomainCertificateID)
	if spec.SSLCertificateChainID != "" {
		root.CreateElement("sslCertificateChainId").SetText(spec.SSLCertificateChainID)
	}

	resp, err := d.apiPost(ctx, "networkDomainVip/createSslOffloadProfile", doc)
	if err != nil {
		return err
	}
	if !responseOK(resp) {
		return errors.Errorf("creating SSL offload profile %s was rejected: %s", spec.Name, client.FindText(resp, "responseCode"))
	}
	return nil
}

// EditSSLOffloadProfile edits an SSL offload profile. Name and certificate
// must always be given, even when unchanged.
func (d *Driver) EditSSLOffloadProfile(ctx context.Context, profileID string, spec SSLOffloadProfileSpec) error {
	doc, root := client.NewDocument("editSslOffloadProfile", TypesURN)
	root.CreateAttr("id", profileID)
	root.CreateElement("name").SetText(spec.Name)
	if spec.Description != "" {
		root.CreateElement("description").SetText(spec.Description)
	}
	if spec.Ciphers != "" {
		root.CreateElement("ciphers").SetText(spec.Ciphers)
	}
	root.CreateElement("sslDomainCertificateId").SetText(spec.SSLDomainCertificateID)
	if spec.SSLCertificateChainID != "" {
		root.CreateElement("sslCertificateChainId").SetText(spec.SSLCertificateChainID)
	}

	resp, err := d.apiPost(ctx, "networkDomainVip/editSslOffloadProfile", doc)
	if err != nil {
		return err
	}
	if !responseOK(resp) {
		return errors.Errorf("editing SSL offload profile %s was rejected: %s", profileID, client.FindText(resp, "responseCode"))
	}
	return nil
}

// DeleteSSLOffloadProfile deletes an SSL offload profile.
func (d *Driver) DeleteSSLOffloadProfile(ctx context.Context, profileID string) error {
	doc, root := client.NewDocument("deleteSslOffloadProfile", TypesURN)
	root.CreateAttr("id", profileID)
	resp, err := d.apiPost(ctx, "networkDomainVip/deleteSslOffloadProfile", doc)
	if err != nil {
		return err
	}
	if !responseOK(resp) {
		return errors.Errorf("deleting SSL offload profile %s was rejected: %s", profileID, client.FindText(resp, "responseCode"))
	}
	return nil
}

// ListSSLDomainCerts lists imported certificates matching the filter.
func (d *Driver) ListSSLDomainCerts(ctx context.Context, filter SSLFilter) ([]*SSLDomainCertificate, error) {
	root, err := d.apiGet(ctx, "networkDomainVip/sslDomainCertificate", filter.values())
	if err != nil {
		return nil, err
	}
	var certs []*SSLDomainCertificate
	for _, el := range client.FindAll(root, "sslDomainCertificate") {
		certs = append(certs, toCert(el))
	}
	return certs, nil
}

// GetSSLDomainCert fetches one imported certificate by ID.
func (d *Driver) GetSSLDomainCert(ctx context.Context, certID string) (*SSLDomainCertificate, error) {
	root, err := d.apiGet(ctx, "networkDomainVip/sslDomainCertificate/"+certID, nil)
	if err != nil {
		return nil, err
	}
	return toCert(root), nil
}

// ListSSLCertificateChains lists imported certificate chains matching the
// filter.
func (d *Driver) ListSSLCertificateChains(ctx context.Context, filter SSLFilter) ([]*SSLCertificateChain, error) {
	root, err := d.apiGet(ctx, "networkDomainVip/sslCertificateChain", filter.values())
	if err != nil {
		return nil, err
	}
	var chains []*SSLCertificateChain
	for _, el := range client.FindAll(root, "sslCertificateChain") {
		chains = append(chains, toCertificateChain(el))
	}
	return chains, nil
}

// GetSSLCertificateChain fetches one imported certificate chain by ID.
func (d *Driver) GetSSLCertificateChain(ctx context.Context, chainID string) (*SSLCertificateChain, error) {
	root, err := d.apiGet(ctx, "networkDomainVip/sslCertificateChain/"+chainID, nil)
	if err != nil {
		return nil, err
	}
	return toCertificateChain(root), nil
}

// ListSSLOffloadProfiles lists SSL offload profiles matching the filter.
func (d *Driver) ListSSLOffloadProfiles(ctx context.Context, filter SSLFilter) ([]*SSLOffloadProfile, error) {
	root, err := d.apiGet(ctx, "networkDomainVip/sslOffloadProfile", filter.values())
	if err != nil {
		return nil, err
	}
	var profiles []*SSLOffloadProfile
	for _, el := range client.FindAll(root, "sslOffloadProfile") {
		profiles = append(profiles, toSSLProfile(el))
	}
	return profiles, nil
}

// GetSSLOffloadProfile fetches one SSL offload profile by ID.
func (d *Driver) GetSSLOffloadProfile(ctx context.Context, profileID string) (*SSLOffloadProfile, error) {
	root, err := d.apiGet(ctx, "networkDomainVip/sslOffloadProfile/"+profileID, nil)
	if err != nil {
		return nil, err
	}
	return toSSLProfile(root), nil
}
