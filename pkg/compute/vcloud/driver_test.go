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

package vcloud

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keremdokuz/libcloud/pkg/cloud"
	"github.com/keremdokuz/libcloud/pkg/common/client"
	"github.com/keremdokuz/libcloud/pkg/common/config"
)

const (
	testToken    = "InFlm3cc7zNyEBzLAdYYicrkrDSxLBkQ0CGM5BsZSBo="
	orgPath      = "/api/org/96726c78-4ae3-402f-b08b-7a78c6903d2a"
	vdcPath      = "/api/vdc/3d9ae28c-1de9-4307-8107-9356ff8ba6d0"
	vappPath     = "/api/vApp/vapp-8c57a5b6-e61b-48ca-8a78-3b70ee65ef6a"
	vmPath       = "/api/vApp/vm-d443ec35-23cf-4947-b01e-cb7882e1f969"
	newVappPath  = "/api/vApp/vapp-9a681ff3-3a3c-4e88-9c4e-43a978b7bfbb"
	templatePath = "/api/vAppTemplate/vappTemplate-3bf5f646-e94f-462a-b1b3-0e2c96a5e6e5"
)

// apiServer is a mock vCloud endpoint. Fixture hrefs are rewritten to point
// back at the server so href navigation stays local.
type apiServer struct {
	t    *testing.T
	mux  *http.ServeMux
	base string
	// requests logs every call as "METHOD path".
	requests []string
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	mux := http.NewServeMux()
	api := &apiServer{t: t, mux: mux}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.requests = append(api.requests, r.Method+" "+r.URL.Path)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	api.base = server.URL
	mux.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		if !ok || !strings.HasSuffix(user, "@MyOrg") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set(authHeader, testToken)
	})
	api.handle("/api/org/", "org_list.xml")
	api.handle(orgPath, "org.xml")
	api.handle(vdcPath, "vdc.xml")
	api.handle(vappPath, "vapp.xml")
	return api
}

func (a *apiServer) fixture(name string) []byte {
	a.t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(a.t, err)
	return []byte(strings.ReplaceAll(string(data), "{{BASE}}", a.base))
}

func (a *apiServer) handle(path, fixtureName string) {
	a.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write(a.fixture(fixtureName))
	})
}

func (a *apiServer) driver(version string) *Driver {
	u, err := url.Parse(a.base)
	require.NoError(a.t, err)
	return &Driver{
		conn: &client.Connection{
			Scheme:   "http",
			Hostname: u.Hostname(),
			Port:     u.Port(),
			Username: "user@MyOrg",
			Password: "pass",
			Provider: ProviderName,
		},
		org:        "MyOrg",
		apiVersion: version,
	}
}

func TestNewDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.VCloud.Host = "vcloud.example.com"
	cfg.VCloud.Org = "MyOrg"
	cfg.VCloud.User = "user"
	cfg.VCloud.Password = "pass"

	d, err := NewDriver(cfg)
	require.NoError(t, err)
	assert.Equal(t, "user@MyOrg", d.conn.Username)
	assert.Equal(t, Version15, d.apiVersion)

	cfg.VCloud.APIVersion = "5.1"
	d, err = NewDriver(cfg)
	require.NoError(t, err)
	assert.Equal(t, Version51, d.apiVersion)

	cfg.VCloud.APIVersion = "9.9"
	_, err = NewDriver(cfg)
	assert.Error(t, err)

	cfg.VCloud.APIVersion = ""
	cfg.VCloud.Org = ""
	_, err = NewDriver(cfg)
	assert.Error(t, err)
}

func TestSessionToken(t *testing.T) {
	api := newAPIServer(t)
	var gotToken, gotAccept string
	api.mux.HandleFunc(vappPath+"/metadata", func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(authHeader)
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write(api.fixture("metadata_15.xml"))
	})
	d := api.driver(Version15)

	_, err := d.GetMetadata(context.Background(), api.base+vappPath)
	require.NoError(t, err)
	assert.Equal(t, testToken, gotToken)
	assert.Equal(t, "application/*+xml;version=1.5", gotAccept)
}

func TestSessionUnknownOrg(t *testing.T) {
	api := newAPIServer(t)
	d := api.driver(Version15)
	d.org = "NoSuchOrg"

	_, err := d.ListNodes(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `organization "NoSuchOrg" not found`)
}

func TestListNodes(t *testing.T) {
	api := newAPIServer(t)
	d := api.driver(Version15)

	nodes, err := d.ListNodes(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	node := nodes[0]
	assert.Equal(t, "testNode", node.Name)
	assert.Equal(t, api.base+vappPath, node.ID)
	assert.Equal(t, cloud.NodeStateRunning, node.State)
	assert.Equal(t, []string{"65.41.64.27"}, node.PublicIPs)
	assert.Equal(t, []string{"192.168.0.103"}, node.PrivateIPs)
	assert.Equal(t, "MyVdc", node.Extra["vdc"])
	assert.Equal(t, "Test web server", node.Extra["description"])

	vms, ok := node.Extra["vms"].([]*VM)
	require.True(t, ok)
	require.Len(t, vms, 1)
	assert.Equal(t, "testVm", vms[0].Name)
	assert.Equal(t, cloud.NodeStateRunning, vms[0].State)

	lease, ok := node.Extra["lease"].(*Lease)
	require.True(t, ok)
	assert.Equal(t, 86400, lease.DeploymentLeaseSeconds)
	deployed, err := lease.DeploymentTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC), deployed.UTC())
}

func TestVdcs(t *testing.T) {
	api := newAPIServer(t)
	d := api.driver(Version15)

	vdcs, err := d.Vdcs(context.Background())
	require.NoError(t, err)
	require.Len(t, vdcs, 1)
	assert.Equal(t, "MyVdc", vdcs[0].Name)
	assert.Equal(t, "AllocationPool", vdcs[0].AllocationModel)
}

func TestFindNode(t *testing.T) {
	api := newAPIServer(t)
	d := api.driver(Version15)

	node, err := d.FindNode(context.Background(), "testNode")
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, "testNode", node.Name)

	node, err = d.FindNode(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, node)
}

func TestListImages(t *testing.T) {
	api := newAPIServer(t)
	d := api.driver(Version15)

	images, err := d.ListImages(context.Background())
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "UbuntuTemplate", images[0].Name)
	assert.Equal(t, api.base+templatePath, images[0].ID)
}

func TestListSizes(t *testing.T) {
	d := &Driver{}
	sizes, err := d.ListSizes(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, sizes)
	assert.Equal(t, 512, sizes[0].RAM)
}

func TestListNetworks(t *testing.T) {
	api := newAPIServer(t)
	d := api.driver(Version15)

	networks, err := d.ListNetworks(context.Background())
	require.NoError(t, err)
	require.Len(t, networks, 1)
	assert.Equal(t, "PublicNetwork", networks[0].Name)
}

func TestCreateNode(t *testing.T) {
	api := newAPIServer(t)
	var instantiateBody, deployBody string
	api.mux.HandleFunc(vdcPath+"/action/instantiateVAppTemplate", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		instantiateBody = string(data)
		_, _ = w.Write(api.fixture("instantiated_vapp.xml"))
	})
	api.mux.HandleFunc(newVappPath+"/action/deploy", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		deployBody = string(data)
		_, _ = w.Write(api.fixture("task_success.xml"))
	})
	api.handle(newVappPath, "instantiated_vapp_get.xml")
	d := api.driver(Version15)

	node, err := d.CreateNode(context.Background(), cloud.NodeSpec{
		Name:  "newNode",
		Image: cloud.NodeImage{ID: api.base + templatePath},
		Extra: map[string]interface{}{
			"description": "created by tests",
			"network":     "PublicNetwork",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "newNode", node.Name)

	assert.Contains(t, instantiateBody, `name="newNode"`)
	assert.Contains(t, instantiateBody, `deploy="false"`)
	assert.Contains(t, instantiateBody, `powerOn="false"`)
	assert.Contains(t, instantiateBody, "<Description>created by tests</Description>")
	assert.Contains(t, instantiateBody, `networkName="PublicNetwork"`)
	assert.Contains(t, instantiateBody, "<FenceMode>bridged</FenceMode>")
	assert.Contains(t, instantiateBody, `<Source href="`+api.base+templatePath+`"/>`)
	assert.Contains(t, deployBody, `powerOn="true"`)
}

func TestCreateNodeValidation(t *testing.T) {
	d := &Driver{apiVersion: Version15}

	_, err := d.CreateNode(context.Background(), cloud.NodeSpec{
		Name:  "x",
		Extra: map[string]interface{}{"vmNames": []string{"name-way-too-long-for-a-guest"}},
	})
	assert.Error(t, err)

	_, err = d.CreateNode(context.Background(), cloud.NodeSpec{
		Name:  "x",
		Extra: map[string]interface{}{"vmNames": []string{"under_score"}},
	})
	assert.Error(t, err)

	_, err = d.CreateNode(context.Background(), cloud.NodeSpec{
		Name:  "x",
		Extra: map[string]interface{}{"memory": 768},
	})
	assert.Error(t, err)

	_, err = d.CreateNode(context.Background(), cloud.NodeSpec{
		Name:  "x",
		Extra: map[string]interface{}{"cpus": 9},
	})
	assert.Error(t, err)

	_, err = d.CreateNode(context.Background(), cloud.NodeSpec{
		Name:  "x",
		Extra: map[string]interface{}{"disk": -1},
	})
	assert.Error(t, err)
}

func TestRebootNode(t *testing.T) {
	api := newAPIServer(t)
	var gotPath string
	api.mux.HandleFunc(vappPath+"/power/action/reset", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write(api.fixture("task_success.xml"))
	})
	d := api.driver(Version15)

	err := d.RebootNode(context.Background(), &cloud.Node{ID: api.base + vappPath})
	require.NoError(t, err)
	assert.Equal(t, vappPath+"/power/action/reset", gotPath)
}

func TestDestroyNodeUndeployFallback(t *testing.T) {
	api := newAPIServer(t)
	var powerActions []string
	api.mux.HandleFunc(vappPath+"/action/undeploy", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body := string(data)
		switch {
		case strings.Contains(body, "shutdown"):
			powerActions = append(powerActions, "shutdown")
			_, _ = w.Write(api.fixture("task_error.xml"))
		case strings.Contains(body, "powerOff"):
			powerActions = append(powerActions, "powerOff")
			_, _ = w.Write(api.fixture("task_success.xml"))
		default:
			t.Errorf("unexpected undeploy body %s", body)
		}
	})
	d := api.driver(Version15)

	err := d.DestroyNode(context.Background(), &cloud.Node{ID: api.base + vappPath, Name: "testNode"})
	require.NoError(t, err)
	assert.Equal(t, []string{"shutdown", "powerOff"}, powerActions)
	assert.Contains(t, api.requests, "DELETE "+vappPath)
}

func TestWaitForTask(t *testing.T) {
	api := newAPIServer(t)
	polls := 0
	api.mux.HandleFunc("/api/task/17bbb22c-3dc5-44ee-9e60-b0fcbba0e0a9", func(w http.ResponseWriter, r *http.Request) {
		polls++
		_, _ = w.Write(api.fixture("task_success.xml"))
	})
	d := api.driver(Version15)

	task := &Task{Href: api.base + "/api/task/17bbb22c-3dc5-44ee-9e60-b0fcbba0e0a9", Status: "running"}
	err := d.WaitForTask(context.Background(), task, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, polls)
}

func TestWaitForTaskRunningThenSuccess(t *testing.T) {
	api := newAPIServer(t)
	polls := 0
	api.mux.HandleFunc("/api/task/17bbb22c-3dc5-44ee-9e60-b0fcbba0e0a9", func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls == 1 {
			_, _ = w.Write(api.fixture("task_running.xml"))
			return
		}
		_, _ = w.Write(api.fixture("task_success.xml"))
	})
	d := api.driver(Version15)

	task := &Task{Href: api.base + "/api/task/17bbb22c-3dc5-44ee-9e60-b0fcbba0e0a9", Status: "queued"}
	err := d.WaitForTask(context.Background(), task, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, polls)
}

func TestWaitForTaskError(t *testing.T) {
	d := &Driver{}
	err := d.WaitForTask(context.Background(), &Task{
		Status:    TaskError,
		Operation: "vappUndeployPowerOff",
		Error:     "vApp is not running",
	}, time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "finished as error")
	assert.Contains(t, err.Error(), "vApp is not running")

	err = d.WaitForTask(context.Background(), nil, time.Minute)
	assert.Error(t, err)
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, cloud.NodeStateRunning, stateOf("4"))
	assert.Equal(t, cloud.NodeStateStopped, stateOf("8"))
	assert.Equal(t, cloud.NodeStateSuspended, stateOf("3"))
	assert.Equal(t, cloud.NodeStatePending, stateOf("0"))
	assert.Equal(t, cloud.NodeStateUnknown, stateOf("77"))
}

func TestLeaseDeploymentTimeIncomplete(t *testing.T) {
	lease := &Lease{StorageLeaseSeconds: 100}
	_, err := lease.DeploymentTime()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not complete")
}
