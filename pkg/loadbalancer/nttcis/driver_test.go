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
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keremdokuz/libcloud/pkg/cloud"
	"github.com/keremdokuz/libcloud/pkg/common/client"
	"github.com/keremdokuz/libcloud/pkg/common/config"
)

const testNetworkDomain = "8cdfd607-f429-4df6-9352-162cfc0891be"

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func serveFixture(t *testing.T, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write(fixture(t, name))
	}
}

// testDriver wires a driver against a local test server. The handler sees
// only the org-scoped /caas/ requests; account resolution is served here.
func testDriver(t *testing.T, handler http.Handler) *Driver {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oec/0.9/myaccount", serveFixture(t, "myaccount.xml"))
	if handler != nil {
		mux.Handle("/caas/", handler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	return &Driver{
		conn: &client.Connection{
			Scheme:   "http",
			Hostname: u.Hostname(),
			Port:     u.Port(),
			Username: "user",
			Password: "pass",
			Provider: ProviderName,
		},
		networkDomainID: testNetworkDomain,
	}
}

func TestNewDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.NTTCIS.User = "user"
	cfg.NTTCIS.Password = "pass"
	cfg.NTTCIS.NetworkDomainID = testNetworkDomain

	d, err := NewDriver(cfg)
	require.NoError(t, err)
	assert.Equal(t, "api-na.dimensiondata.com", d.conn.Hostname)
	assert.Equal(t, testNetworkDomain, d.NetworkDomainID())

	cfg.NTTCIS.Region = "eu"
	d, err = NewDriver(cfg)
	require.NoError(t, err)
	assert.Equal(t, "api-eu.dimensiondata.com", d.conn.Hostname)

	cfg.NTTCIS.Region = "moon"
	_, err = NewDriver(cfg)
	assert.Error(t, err)

	cfg.NTTCIS.Region = ""
	cfg.NTTCIS.Host = "api.example.com"
	d, err = NewDriver(cfg)
	require.NoError(t, err)
	assert.Equal(t, "api.example.com", d.conn.Hostname)

	cfg.NTTCIS.User = ""
	_, err = NewDriver(cfg)
	assert.Error(t, err)
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, cloud.StateRunning, stateOf("NORMAL"))
	assert.Equal(t, cloud.StatePending, stateOf("PENDING_ADD"))
	assert.Equal(t, cloud.StatePending, stateOf("PENDING_CHANGE"))
	assert.Equal(t, cloud.StatePending, stateOf("PENDING_DELETE"))
	assert.Equal(t, cloud.StateError, stateOf("FAILED_ADD"))
	assert.Equal(t, cloud.StateError, stateOf("REQUIRES_SUPPORT"))
	assert.Equal(t, cloud.StateUnknown, stateOf("SOMETHING_ELSE"))
}

func TestOrganizationCached(t *testing.T) {
	accountHits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/oec/0.9/myaccount", func(w http.ResponseWriter, r *http.Request) {
		accountHits++
		_, _ = w.Write(fixture(t, "myaccount.xml"))
	})
	mux.HandleFunc("/caas/", serveFixture(t, "virtualListener_list.xml"))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	d := &Driver{
		conn:            &client.Connection{Scheme: "http", Hostname: u.Hostname(), Port: u.Port(), Provider: ProviderName},
		networkDomainID: testNetworkDomain,
	}

	_, err = d.ListBalancers(context.Background())
	require.NoError(t, err)
	_, err = d.ListBalancers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, accountHits)
}

func TestListBalancers(t *testing.T) {
	var gotPath, gotAuth string
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write(fixture(t, "virtualListener_list.xml"))
	}))

	balancers, err := d.ListBalancers(context.Background())
	require.NoError(t, err)
	require.Len(t, balancers, 2)

	assert.Contains(t, gotPath, "/caas/2.7/8a8f6abc-2745-4d8a-9cbc-8dabe5a7d0e4/networkDomainVip/virtualListener")
	assert.Contains(t, gotPath, "networkDomainId="+testNetworkDomain)
	assert.True(t, strings.HasPrefix(gotAuth, "Basic "))

	assert.Equal(t, "6115469d-a8bb-445b-bb23-d23b5283f2b9", balancers[0].ID)
	assert.Equal(t, "myProduction.Virtual.Listener", balancers[0].Name)
	assert.Equal(t, cloud.StateRunning, balancers[0].State)
	assert.Equal(t, "165.180.12.22", balancers[0].IP)
	assert.Equal(t, 80, balancers[0].Port)
	assert.Equal(t, "6f2f5d7b-cdd9-4d84-89ad-915cbd3e3757", balancers[0].Extra["poolId"])
	assert.Equal(t, testNetworkDomain, balancers[0].Extra["networkDomainId"])

	assert.Equal(t, cloud.StatePending, balancers[1].State)
	assert.Equal(t, "", balancers[1].Extra["poolId"])
}

func TestGetBalancer(t *testing.T) {
	d := testDriver(t, serveFixture(t, "virtualListener_get.xml"))

	balancer, err := d.GetBalancer(context.Background(), "6115469d-a8bb-445b-bb23-d23b5283f2b9")
	require.NoError(t, err)
	assert.Equal(t, "myProduction.Virtual.Listener", balancer.Name)
	assert.Equal(t, cloud.StateRunning, balancer.State)
	assert.Equal(t, "6f2f5d7b-cdd9-4d84-89ad-915cbd3e3757", balancer.Extra["poolId"])
}

func TestCreateBalancer(t *testing.T) {
	bodies := map[string]string{}
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		data, _ := io.ReadAll(r.Body)
		bodies[action] = string(data)
		switch action {
		case "createPool":
			_, _ = w.Write(fixture(t, "createPool_response.xml"))
		case "createNode":
			_, _ = w.Write(fixture(t, "createNode_response.xml"))
		case "addPoolMember":
			_, _ = w.Write(fixture(t, "addPoolMember_response.xml"))
		case "createVirtualListener":
			_, _ = w.Write(fixture(t, "createVirtualListener_response.xml"))
		default:
			t.Errorf("unexpected action %s", action)
		}
	}))

	balancer, err := d.CreateBalancer(context.Background(), cloud.BalancerSpec{
		Name:         "test balancer",
		ListenerPort: 80,
		Port:         8080,
		Members: []cloud.Member{
			{IP: "10.0.3.13"},
			{IP: "10.0.3.14"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "6115469d-a8bb-445b-bb23-d23b5283f2b9", balancer.ID)
	assert.Equal(t, "165.180.12.22", balancer.IP)
	assert.Equal(t, "9e6b496d-5261-4542-91aa-b50c7f569c54", balancer.Extra["poolId"])

	// Pool names cannot contain spaces.
	assert.Contains(t, bodies["createPool"], "<name>test_balancer</name>")
	assert.Contains(t, bodies["createPool"], "<loadBalanceMethod>ROUND_ROBIN</loadBalanceMethod>")
	assert.Contains(t, bodies["createNode"], "<ipv4Address>10.0.3.13</ipv4Address>")
	assert.Contains(t, bodies["createNode"], "<name>Member.10.0.3.14</name>")
	assert.Contains(t, bodies["addPoolMember"], "<port>8080</port>")
	// Port 80 selects the layer 4 listener type.
	assert.Contains(t, bodies["createVirtualListener"], "<type>PERFORMANCE_LAYER_4</type>")
	assert.Contains(t, bodies["createVirtualListener"], "<poolId>9e6b496d-5261-4542-91aa-b50c7f569c54</poolId>")
}

func TestCreateBalancerUnsupportedAlgorithm(t *testing.T) {
	d := testDriver(t, nil)
	_, err := d.CreateBalancer(context.Background(), cloud.BalancerSpec{
		Name:      "test",
		Algorithm: cloud.Algorithm("weighted-magic"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported algorithm")
}

func TestCreateVirtualListenerStandardType(t *testing.T) {
	var body string
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = w.Write(fixture(t, "createVirtualListener_response.xml"))
	}))

	_, err := d.CreateVirtualListener(context.Background(), ListenerSpec{
		Name: "internal.listener",
		Port: 8080,
	})
	require.NoError(t, err)
	assert.Contains(t, body, "<type>STANDARD</type>")
	assert.Contains(t, body, "<protocol>TCP</protocol>")
	assert.Contains(t, body, "<optimizationProfile>TCP</optimizationProfile>")
	assert.Contains(t, body, "<connectionLimit>25000</connectionLimit>")
	assert.Contains(t, body, "<connectionRateLimit>2000</connectionRateLimit>")
	assert.Contains(t, body, "<sourcePortPreservation>PRESERVE</sourcePortPreservation>")
	assert.Contains(t, body, `xmlns="urn:didata.com:api:cloud:types"`)
}

func TestCreateVirtualListenerAnyPort(t *testing.T) {
	var body string
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = w.Write(fixture(t, "createVirtualListener_response.xml"))
	}))

	_, err := d.CreateVirtualListener(context.Background(), ListenerSpec{
		Name: "any.port.listener",
	})
	require.NoError(t, err)
	// Zero port means "any port" and the element is left out entirely.
	assert.NotContains(t, body, "<port>")
	assert.Contains(t, body, "<type>STANDARD</type>")
	assert.Contains(t, body, "<enabled>true</enabled>")
}

func TestUpdateListener(t *testing.T) {
	var body string
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = w.Write(fixture(t, "status_ok.xml"))
	}))

	description := "updated description"
	err := d.UpdateListener(context.Background(), "6115469d-a8bb-445b-bb23-d23b5283f2b9", map[string]*string{
		"description": &description,
		"poolId":      nil,
	})
	require.NoError(t, err)
	assert.Contains(t, body, `id="6115469d-a8bb-445b-bb23-d23b5283f2b9"`)
	assert.Contains(t, body, "<description>updated description</description>")
	// Nil entries clear the server side value.
	assert.Contains(t, body, `xsi:nil="true"`)
}

func TestDestroyBalancer(t *testing.T) {
	var body string
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = w.Write(fixture(t, "status_ok.xml"))
	}))

	err := d.DestroyBalancer(context.Background(), &cloud.LoadBalancer{ID: "6115469d-a8bb-445b-bb23-d23b5283f2b9"})
	require.NoError(t, err)
	assert.Contains(t, body, "deleteVirtualListener")
	assert.Contains(t, body, `id="6115469d-a8bb-445b-bb23-d23b5283f2b9"`)
}

func TestListMembers(t *testing.T) {
	d := testDriver(t, serveFixture(t, "poolMember_list.xml"))

	members, err := d.ListMembers(context.Background(), &cloud.LoadBalancer{
		ID:    "6115469d-a8bb-445b-bb23-d23b5283f2b9",
		Extra: map[string]string{"poolId": "4d360b1f-bc2c-4ab7-9884-1f03ba2768f7"},
	})
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "3dd806a2-c2c8-4c0c-9a4f-5219ea9266c0", members[0].ID)
	assert.Equal(t, "10.0.3.13", members[0].IP)
	assert.Equal(t, 9889, members[0].Port)
}

func TestListMembersNoPool(t *testing.T) {
	d := testDriver(t, nil)
	_, err := d.ListMembers(context.Background(), &cloud.LoadBalancer{ID: "x", Extra: map[string]string{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no pool")
}

func TestGetPools(t *testing.T) {
	d := testDriver(t, serveFixture(t, "pool_list.xml"))

	pools, err := d.GetPools(context.Background(), testNetworkDomain)
	require.NoError(t, err)
	require.Len(t, pools, 1)
	pool := pools[0]
	assert.Equal(t, "4d360b1f-bc2c-4ab7-9884-1f03ba2768f7", pool.ID)
	assert.Equal(t, "myDevelopmentPool.1", pool.Name)
	assert.Equal(t, "ROUND_ROBIN", pool.LoadBalanceMethod)
	assert.Equal(t, "01683574-d487-11e4-811f-005056806999", pool.HealthMonitorID)
	assert.Equal(t, "RESELECT", pool.ServiceDownAction)
	assert.Equal(t, 10, pool.SlowRampTime)
	assert.Equal(t, "NORMAL", pool.Status)
}

func TestGetPool(t *testing.T) {
	var gotPath string
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write(fixture(t, "pool_get.xml"))
	}))

	pool, err := d.GetPool(context.Background(), "4d360b1f-bc2c-4ab7-9884-1f03ba2768f7")
	require.NoError(t, err)
	assert.Contains(t, gotPath, "/networkDomainVip/pool/4d360b1f-bc2c-4ab7-9884-1f03ba2768f7")
	assert.Equal(t, "4d360b1f-bc2c-4ab7-9884-1f03ba2768f7", pool.ID)
	assert.Equal(t, "myDevelopmentPool.1", pool.Name)
	assert.Equal(t, "ROUND_ROBIN", pool.LoadBalanceMethod)
	assert.Equal(t, "01683574-d487-11e4-811f-005056806999", pool.HealthMonitorID)
	assert.Equal(t, "RESELECT", pool.ServiceDownAction)
	assert.Equal(t, 10, pool.SlowRampTime)
	assert.Equal(t, "NORMAL", pool.Status)
}

func TestCreatePoolDefaults(t *testing.T) {
	var body string
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = w.Write(fixture(t, "createPool_response.xml"))
	}))

	pool, err := d.CreatePool(context.Background(), PoolSpec{
		Name:              "my pool",
		LoadBalanceMethod: "ROUND_ROBIN",
		HealthMonitorIDs:  []string{"01683574-d487-11e4-811f-005056806999"},
	})
	require.NoError(t, err)
	assert.Equal(t, "9e6b496d-5261-4542-91aa-b50c7f569c54", pool.ID)
	assert.Equal(t, "my_pool", pool.Name)
	assert.Contains(t, body, "<serviceDownAction>NONE</serviceDownAction>")
	assert.Contains(t, body, "<slowRampTime>30</slowRampTime>")
	assert.Contains(t, body, "<healthMonitorId>01683574-d487-11e4-811f-005056806999</healthMonitorId>")
}

func TestUpdatePool(t *testing.T) {
	var body string
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = w.Write(fixture(t, "status_ok.xml"))
	}))

	err := d.UpdatePool(context.Background(), &Pool{
		ID:                "4d360b1f-bc2c-4ab7-9884-1f03ba2768f7",
		LoadBalanceMethod: "LEAST_CONNECTIONS_NODE",
		HealthMonitorID:   "01683574-d487-11e4-811f-005056806999",
		ServiceDownAction: "DROP",
		SlowRampTime:      60,
	})
	require.NoError(t, err)
	assert.Contains(t, body, "editPool")
	assert.Contains(t, body, `id="4d360b1f-bc2c-4ab7-9884-1f03ba2768f7"`)
	assert.Contains(t, body, "<loadBalanceMethod>LEAST_CONNECTIONS_NODE</loadBalanceMethod>")
	assert.Contains(t, body, "<healthMonitorId>01683574-d487-11e4-811f-005056806999</healthMonitorId>")
	assert.Contains(t, body, "<serviceDownAction>DROP</serviceDownAction>")
	assert.Contains(t, body, "<slowRampTime>60</slowRampTime>")
}

func TestDestroyPool(t *testing.T) {
	var body string
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = w.Write(fixture(t, "status_ok.xml"))
	}))

	err := d.DestroyPool(context.Background(), &Pool{ID: "4d360b1f-bc2c-4ab7-9884-1f03ba2768f7"})
	require.NoError(t, err)
	assert.Contains(t, body, "deletePool")
	assert.Contains(t, body, `id="4d360b1f-bc2c-4ab7-9884-1f03ba2768f7"`)
}

func TestCreatePoolMemberAnyPort(t *testing.T) {
	var body string
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = w.Write(fixture(t, "addPoolMember_response.xml"))
	}))

	pool := &Pool{ID: "4d360b1f-bc2c-4ab7-9884-1f03ba2768f7"}
	node := &VIPNode{ID: "3c207269-e75e-11e4-811f-005056806999", IP: "10.0.3.13"}
	member, err := d.CreatePoolMember(context.Background(), pool, node, 0)
	require.NoError(t, err)

	// Zero port means "any port" and the element is left out entirely.
	assert.NotContains(t, body, "<port>")
	assert.Contains(t, body, "<poolId>4d360b1f-bc2c-4ab7-9884-1f03ba2768f7</poolId>")
	assert.Contains(t, body, "<nodeId>3c207269-e75e-11e4-811f-005056806999</nodeId>")
	assert.Contains(t, body, "<status>ENABLED</status>")
	assert.Equal(t, 0, member.Port)
	assert.Equal(t, "10.0.3.13", member.IP)
}

func TestGetPoolMembers(t *testing.T) {
	var gotQuery string
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write(fixture(t, "poolMember_list.xml"))
	}))

	members, err := d.GetPoolMembers(context.Background(), "4d360b1f-bc2c-4ab7-9884-1f03ba2768f7")
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "poolId=4d360b1f-bc2c-4ab7-9884-1f03ba2768f7")
	require.Len(t, members, 2)
	member := members[0]
	assert.Equal(t, "10.0.3.13", member.Name)
	assert.Equal(t, "3c207269-e75e-11e4-811f-005056806999", member.NodeID)
	assert.Equal(t, "10.0.3.13", member.IP)
	assert.Equal(t, "NORMAL", member.Status)
}

func TestGetPoolMember(t *testing.T) {
	var gotPath string
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write(fixture(t, "poolMember_get.xml"))
	}))

	member, err := d.GetPoolMember(context.Background(), "3dd806a2-c2c8-4c0c-9a4f-5219ea9266c0")
	require.NoError(t, err)
	assert.Contains(t, gotPath, "/networkDomainVip/poolMember/3dd806a2-c2c8-4c0c-9a4f-5219ea9266c0")
	assert.Equal(t, "3dd806a2-c2c8-4c0c-9a4f-5219ea9266c0", member.ID)
	assert.Equal(t, "10.0.3.13", member.Name)
	assert.Equal(t, "3c207269-e75e-11e4-811f-005056806999", member.NodeID)
	assert.Equal(t, "10.0.3.13", member.IP)
	assert.Equal(t, 9889, member.Port)
	assert.Equal(t, "NORMAL", member.Status)
}

func TestSetPoolMemberState(t *testing.T) {
	var body string
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = w.Write(fixture(t, "status_ok.xml"))
	}))

	member := &PoolMember{ID: "3dd806a2-c2c8-4c0c-9a4f-5219ea9266c0"}
	err := d.SetPoolMemberState(context.Background(), member, false)
	require.NoError(t, err)
	assert.Contains(t, body, "editPoolMember")
	assert.Contains(t, body, `id="3dd806a2-c2c8-4c0c-9a4f-5219ea9266c0"`)
	assert.Contains(t, body, "<status>DISABLED</status>")

	err = d.SetPoolMemberState(context.Background(), member, true)
	require.NoError(t, err)
	assert.Contains(t, body, "<status>ENABLED</status>")
}

func TestGetNodes(t *testing.T) {
	d := testDriver(t, serveFixture(t, "node_list.xml"))

	nodes, err := d.GetNodes(context.Background(), testNetworkDomain)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	assert.Equal(t, "ProductionNode.1", nodes[0].Name)
	assert.Equal(t, cloud.StateRunning, nodes[0].State)
	assert.Equal(t, "10.10.10.101", nodes[0].IP)
	assert.Equal(t, "01683574-d487-11e4-811f-005056806999", nodes[0].HealthMonitorID)
	assert.Equal(t, 10000, nodes[0].ConnectionLimit)
	assert.Equal(t, 200, nodes[0].ConnectionRateLimit)

	// IPv6 only nodes fall back to the ipv6Address element.
	assert.Equal(t, "2607:f480:111:1575:5c4f:1ae1:789b:5be8", nodes[1].IP)
	assert.Equal(t, cloud.StatePending, nodes[1].State)
}

func TestGetNode(t *testing.T) {
	var gotPath string
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write(fixture(t, "node_get.xml"))
	}))

	node, err := d.GetNode(context.Background(), "34de6ed6-46a4-4dae-a753-2f8d3840c6f9")
	require.NoError(t, err)
	assert.Contains(t, gotPath, "/networkDomainVip/node/34de6ed6-46a4-4dae-a753-2f8d3840c6f9")
	assert.Equal(t, "34de6ed6-46a4-4dae-a753-2f8d3840c6f9", node.ID)
	assert.Equal(t, "ProductionNode.1", node.Name)
	assert.Equal(t, cloud.StateRunning, node.State)
	assert.Equal(t, "10.10.10.101", node.IP)
	assert.Equal(t, "01683574-d487-11e4-811f-005056806999", node.HealthMonitorID)
	assert.Equal(t, 10000, node.ConnectionLimit)
}

func TestUpdateNode(t *testing.T) {
	var body string
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = w.Write(fixture(t, "status_ok.xml"))
	}))

	err := d.UpdateNode(context.Background(), &VIPNode{
		ID:                  "34de6ed6-46a4-4dae-a753-2f8d3840c6f9",
		HealthMonitorID:     "01683574-d487-11e4-811f-005056806999",
		ConnectionLimit:     20000,
		ConnectionRateLimit: 400,
	})
	require.NoError(t, err)
	assert.Contains(t, body, "editNode")
	assert.Contains(t, body, `id="34de6ed6-46a4-4dae-a753-2f8d3840c6f9"`)
	assert.Contains(t, body, "<healthMonitorId>01683574-d487-11e4-811f-005056806999</healthMonitorId>")
	assert.Contains(t, body, "<connectionLimit>20000</connectionLimit>")
	assert.Contains(t, body, "<connectionRateLimit>400</connectionRateLimit>")
}

func TestSetNodeState(t *testing.T) {
	var body string
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = w.Write(fixture(t, "status_ok.xml"))
	}))

	node := &VIPNode{ID: "34de6ed6-46a4-4dae-a753-2f8d3840c6f9"}
	err := d.SetNodeState(context.Background(), node, false)
	require.NoError(t, err)
	assert.Contains(t, body, "editNode")
	assert.Contains(t, body, `id="34de6ed6-46a4-4dae-a753-2f8d3840c6f9"`)
	assert.Contains(t, body, "<status>DISABLED</status>")
}

func TestDestroyPoolMemberCascade(t *testing.T) {
	var actions []string
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actions = append(actions, r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
		_, _ = w.Write(fixture(t, "status_ok.xml"))
	}))

	member := &PoolMember{ID: "3dd806a2-c2c8-4c0c-9a4f-5219ea9266c0", NodeID: "3c207269-e75e-11e4-811f-005056806999"}
	err := d.DestroyPoolMember(context.Background(), member, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"removePoolMember", "deleteNode"}, actions)
}

func TestDefaultHealthMonitors(t *testing.T) {
	d := testDriver(t, serveFixture(t, "defaultHealthMonitor_list.xml"))

	monitors, err := d.DefaultHealthMonitors(context.Background(), testNetworkDomain)
	require.NoError(t, err)
	require.Len(t, monitors, 3)
	assert.Equal(t, "CCDEFAULT.Icmp", monitors[0].Name)
	assert.True(t, monitors[0].NodeCompatible)
	assert.False(t, monitors[0].PoolCompatible)
	assert.True(t, monitors[1].PoolCompatible)
}

func TestDefaultPersistenceProfiles(t *testing.T) {
	d := testDriver(t, serveFixture(t, "defaultPersistenceProfile_list.xml"))

	profiles, err := d.DefaultPersistenceProfiles(context.Background(), testNetworkDomain)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "CCDEFAULT.Cookie", profiles[0].Name)
	assert.False(t, profiles[0].FallbackCompatible)
	require.Len(t, profiles[0].CompatibleListeners, 2)
	assert.Equal(t, "PERFORMANCE_LAYER_4", profiles[0].CompatibleListeners[0].Type)
	assert.Equal(t, "HTTP", profiles[0].CompatibleListeners[0].Protocol)
}

func TestDefaultIRules(t *testing.T) {
	d := testDriver(t, serveFixture(t, "defaultIrule_list.xml"))

	irules, err := d.DefaultIRules(context.Background(), testNetworkDomain)
	require.NoError(t, err)
	require.Len(t, irules, 1)
	assert.Equal(t, "2b20abd9-ffdc-11e4-b010-005056806999", irules[0].ID)
	assert.Equal(t, "CCDEFAULT.IpProtocolTimers", irules[0].Name)
	require.Len(t, irules[0].CompatibleListeners, 2)
}

func TestAPIErrorNotFound(t *testing.T) {
	d := testDriver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write(fixture(t, "error_response.xml"))
	}))

	_, err := d.GetBalancer(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))
	assert.Contains(t, err.Error(), "The Virtual Listener was not found.")
}

func TestListProtocols(t *testing.T) {
	d := &Driver{}
	assert.Contains(t, d.ListProtocols(), "http")
	assert.Contains(t, d.ListProtocols(), "tcp")
}
