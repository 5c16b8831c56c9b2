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
	"fmt"
	"net"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
	klog "k8s.io/klog/v2"

	"github.com/keremdokuz/libcloud/pkg/cloud"
	"github.com/keremdokuz/libcloud/pkg/common/client"
)

// VM is one virtual machine inside a vApp.
type VM struct {
	Href       string
	Name       string
	State      cloud.NodeState
	PublicIPs  []string
	PrivateIPs []string
}

// ListNodes walks every vDC and returns one node per vApp.
func (d *Driver) ListNodes(ctx context.Context) ([]*cloud.Node, error) {
	vdcs, err := d.Vdcs(ctx)
	if err != nil {
		return nil, err
	}
	var nodes []*cloud.Node
	for _, vdc := range vdcs {
		vdcNodes, err := d.listNodesIn(ctx, vdc)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, vdcNodes...)
	}
	return nodes, nil
}

func (d *Driver) listNodesIn(ctx context.Context, vdc *Vdc) ([]*cloud.Node, error) {
	vdcEl, err := d.get(ctx, vdc.Href)
	if err != nil {
		return nil, errors.Wrapf(err, "reading vDC %s failed", vdc.Name)
	}
	var nodes []*cloud.Node
	for _, entity := range entitiesOfType(vdcEl, mimeVApp) {
		node, err := d.getNode(ctx, client.Attr(entity, "href"), vdc.Name)
		if err != nil {
			if client.IsNotFound(err) {
				// The vApp was deleted while we were walking the vDC.
				continue
			}
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// getNode fetches a vApp and converts it into a node.
func (d *Driver) getNode(ctx context.Context, vappHref, vdcName string) (*cloud.Node, error) {
	vapp, err := d.get(ctx, href(vappHref))
	if err != nil {
		return nil, err
	}
	return d.toNode(vapp, vdcName), nil
}

func (d *Driver) toNode(vapp *etree.Element, vdcName string) *cloud.Node {
	node := &cloud.Node{
		ID:    client.Attr(vapp, "href"),
		Name:  client.Attr(vapp, "name"),
		State: stateOf(client.Attr(vapp, "status")),
		Extra: map[string]interface{}{
			"vdc":         vdcName,
			"description": client.FindText(vapp, "Description"),
		},
	}
	var vms []*VM
	for _, vmEl := range client.FindAll(vapp, ".//Vm") {
		vm := toVM(vmEl)
		vms = append(vms, vm)
		node.PublicIPs = append(node.PublicIPs, vm.PublicIPs...)
		node.PrivateIPs = append(node.PrivateIPs, vm.PrivateIPs...)
	}
	node.Extra["vms"] = vms
	if leaseEl := client.Find(vapp, ".//LeaseSettingsSection"); leaseEl != nil {
		node.Extra["lease"] = toLease(leaseEl)
	}
	return node
}

func toVM(vmEl *etree.Element) *VM {
	vm := &VM{
		Href:  client.Attr(vmEl, "href"),
		Name:  client.Attr(vmEl, "name"),
		State: stateOf(client.Attr(vmEl, "status")),
	}
	for _, conn := range client.FindAll(vmEl, ".//NetworkConnection") {
		ip := client.FindText(conn, "IpAddress")
		external := client.FindText(conn, "ExternalIpAddress")
		if external != "" {
			vm.PublicIPs = append(vm.PublicIPs, external)
			if ip != "" {
				vm.PrivateIPs = append(vm.PrivateIPs, ip)
			}
			continue
		}
		if ip == "" {
			continue
		}
		if parsed := net.ParseIP(ip); parsed != nil && (parsed.IsPrivate() || parsed.IsLoopback() || parsed.IsLinkLocalUnicast()) {
			vm.PrivateIPs = append(vm.PrivateIPs, ip)
		} else {
			vm.PublicIPs = append(vm.PublicIPs, ip)
		}
	}
	return vm
}

// CreateNode instantiates a vApp from the template in spec.Image and powers
// it on. Recognized spec.Extra keys:
//
//	vdc           vDC name, first vDC when absent
//	network       org network to connect, template default when absent
//	fenceMode     bridged (default), natRouted or isolated
//	description   vApp description
//	clone         href of an existing vApp to clone instead of instantiating
//	vmNames       []string, renames the child VMs
//	cpus          int, virtual CPU count per VM
//	memory        int, memory per VM in MB
//	disk          int, extra disk per VM in GB
//	adminPassword string, guest administrator password
//	script        string, guest customization script text
//	scriptFile    string, path of a guest customization script
func (d *Driver) CreateNode(ctx context.Context, spec cloud.NodeSpec) (*cloud.Node, error) {
	vmNames, err := extraStrings(spec.Extra, "vmNames")
	if err != nil {
		return nil, err
	}
	if err := validateVMNames(vmNames); err != nil {
		return nil, err
	}
	if memory, ok := extraInt(spec.Extra, "memory"); ok {
		if err := d.validateVMMemory(memory); err != nil {
			return nil, err
		}
	}
	if cpus, ok := extraInt(spec.Extra, "cpus"); ok {
		if err := validateVMCPU(cpus); err != nil {
			return nil, err
		}
	}
	if disk, ok := extraInt(spec.Extra, "disk"); ok && disk <= 0 {
		return nil, errors.Errorf("disk size must be a positive number of GB, got %d", disk)
	}

	vdc, err := d.findVdc(ctx, extraString(spec.Extra, "vdc"))
	if err != nil {
		return nil, err
	}

	var vappHref string
	if cloneHref := extraString(spec.Extra, "clone"); cloneHref != "" {
		vappHref, err = d.cloneVApp(ctx, vdc, spec.Name, cloneHref)
	} else {
		vappHref, err = d.instantiateVApp(ctx, vdc, spec)
	}
	if err != nil {
		return nil, err
	}
	klog.V(2).Infof("vcloud: vApp %s created at %s", spec.Name, vappHref)

	if err := d.configureVMs(ctx, vappHref, spec); err != nil {
		return nil, err
	}
	if err := d.DeployNode(ctx, vappHref, true); err != nil {
		return nil, errors.Wrapf(err, "deploying vApp %s failed", spec.Name)
	}
	return d.getNode(ctx, vappHref, vdc.Name)
}

// instantiateVApp creates a stopped vApp from a template and waits for the
// instantiation task.
func (d *Driver) instantiateVApp(ctx context.Context, vdc *Vdc, spec cloud.NodeSpec) (string, error) {
	if spec.Image.ID == "" {
		return "", errors.New("an image with the vApp template href is required")
	}

	doc, root := client.NewDocument("InstantiateVAppTemplateParams", VCloudNS)
	root.CreateAttr("xmlns:ovf", "http://schemas.dmtf.org/ovf/envelope/1")
	root.CreateAttr("name", spec.Name)
	root.CreateAttr("deploy", "false")
	root.CreateAttr("powerOn", "false")
	if description := extraString(spec.Extra, "description"); description != "" {
		root.CreateElement("Description").SetText(description)
	}

	if network := extraString(spec.Extra, "network"); network != "" {
		networkHref, err := d.networkHref(ctx, network)
		if err != nil {
			return "", err
		}
		fenceMode := extraString(spec.Extra, "fenceMode")
		if fenceMode == "" {
			fenceMode = "bridged"
		}
		params := root.CreateElement("InstantiationParams")
		section := params.CreateElement("NetworkConfigSection")
		section.CreateElement("ovf:Info").SetText("Network configuration")
		netConfig := section.CreateElement("NetworkConfig")
		netConfig.CreateAttr("networkName", network)
		configuration := netConfig.CreateElement("Configuration")
		parent := configuration.CreateElement("ParentNetwork")
		parent.CreateAttr("href", networkHref)
		configuration.CreateElement("FenceMode").SetText(fenceMode)
	}

	source := root.CreateElement("Source")
	source.CreateAttr("href", spec.Image.ID)

	vapp, err := d.post(ctx, vdc.Href+"/action/instantiateVAppTemplate", doc, mimeInstantiateParams)
	if err != nil {
		return "", errors.Wrapf(err, "instantiating template for %s failed", spec.Name)
	}
	vappHref := client.Attr(vapp, "href")
	if vappHref == "" {
		return "", errors.Errorf("%s: instantiation response carries no vApp href", client.UnexpectedRespErrMsg)
	}
	if err := d.WaitForTask(ctx, taskOf(vapp), 0); err != nil {
		return "", errors.Wrapf(err, "instantiating template for %s failed", spec.Name)
	}
	return vappHref, nil
}

// cloneVApp creates a stopped copy of an existing vApp.
func (d *Driver) cloneVApp(ctx context.Context, vdc *Vdc, name, sourceHref string) (string, error) {
	doc, root := client.NewDocument("CloneVAppParams", VCloudNS)
	root.CreateAttr("name", name)
	root.CreateAttr("deploy", "false")
	root.CreateAttr("powerOn", "false")
	source := root.CreateElement("Source")
	source.CreateAttr("href", sourceHref)

	vapp, err := d.post(ctx, vdc.Href+"/action/cloneVApp", doc, mimeCloneParams)
	if err != nil {
		return "", errors.Wrapf(err, "cloning vApp for %s failed", name)
	}
	vappHref := client.Attr(vapp, "href")
	if vappHref == "" {
		return "", errors.Errorf("%s: clone response carries no vApp href", client.UnexpectedRespErrMsg)
	}
	if err := d.WaitForTask(ctx, taskOf(vapp), 0); err != nil {
		return "", errors.Wrapf(err, "cloning vApp for %s failed", name)
	}
	return vappHref, nil
}

// configureVMs applies the per-VM customizations of the node spec to every child
// VM of the freshly created vApp.
func (d *Driver) configureVMs(ctx context.Context, vappHref string, spec cloud.NodeSpec) error {
	vapp, err := d.get(ctx, href(vappHref))
	if err != nil {
		return err
	}
	vms := client.FindAll(vapp, ".//Vm")

	vmNames, _ := extraStrings(spec.Extra, "vmNames")
	for i, vmEl := range vms {
		vmHref := client.Attr(vmEl, "href")
		if i < len(vmNames) {
			if err := d.renameVM(ctx, vmHref, vmNames[i]); err != nil {
				return err
			}
		}
		if cpus, ok := extraInt(spec.Extra, "cpus"); ok {
			if err := d.SetVMCPU(ctx, vmHref, cpus); err != nil {
				return err
			}
		}
		if memory, ok := extraInt(spec.Extra, "memory"); ok {
			if err := d.SetVMMemory(ctx, vmHref, memory); err != nil {
				return err
			}
		}
		if disk, ok := extraInt(spec.Extra, "disk"); ok {
			if err := d.AddVMDisk(ctx, vmHref, disk); err != nil {
				return err
			}
		}
		if password := extraString(spec.Extra, "adminPassword"); password != "" {
			if err := d.ChangeVMAdminPassword(ctx, vmHref, password); err != nil {
				return err
			}
		}
		script, err := scriptText(spec.Extra)
		if err != nil {
			return err
		}
		if script != "" {
			if err := d.SetVMScript(ctx, vmHref, script); err != nil {
				return err
			}
		}
	}
	return nil
}

// DestroyNode undeploys the vApp and deletes it. A failed graceful shutdown
// is retried with a hard power off before giving up.
func (d *Driver) DestroyNode(ctx context.Context, node *cloud.Node) error {
	if err := d.UndeployNode(ctx, node.ID); err != nil {
		klog.Errorf("vcloud: undeploying %s failed, deleting anyway: %v", node.Name, err)
	}
	_, err := d.request(ctx, "DELETE", href(node.ID), nil, "")
	if err != nil {
		return errors.Wrapf(err, "deleting vApp %s failed", node.Name)
	}
	return nil
}

// RebootNode resets the vApp.
func (d *Driver) RebootNode(ctx context.Context, node *cloud.Node) error {
	return d.powerAction(ctx, node.ID, "reset")
}

// PowerOffNode powers the vApp off without a guest shutdown.
func (d *Driver) PowerOffNode(ctx context.Context, node *cloud.Node) error {
	return d.powerAction(ctx, node.ID, "powerOff")
}

// PowerOnNode powers the vApp on.
func (d *Driver) PowerOnNode(ctx context.Context, node *cloud.Node) error {
	return d.powerAction(ctx, node.ID, "powerOn")
}

func (d *Driver) powerAction(ctx context.Context, vappHref, action string) error {
	root, err := d.post(ctx, href(vappHref)+"/power/action/"+action, nil, "")
	if err != nil {
		return errors.Wrapf(err, "power action %s failed", action)
	}
	return d.WaitForTask(ctx, taskOf(root), 0)
}

// DeployNode deploys the vApp, optionally powering it on in the same call.
func (d *Driver) DeployNode(ctx context.Context, vappHref string, powerOn bool) error {
	doc, root := client.NewDocument("DeployVAppParams", VCloudNS)
	if powerOn {
		root.CreateAttr("powerOn", "true")
	} else {
		root.CreateAttr("powerOn", "false")
	}
	return d.postAndWait(ctx, href(vappHref)+"/action/deploy", doc, mimeDeployParams)
}

// UndeployNode undeploys the vApp. The guest is asked to shut down first;
// when that fails the undeploy is retried with a hard power off.
func (d *Driver) UndeployNode(ctx context.Context, vappHref string) error {
	if err := d.undeploy(ctx, vappHref, "shutdown"); err != nil {
		klog.V(2).Infof("vcloud: graceful undeploy failed, retrying with powerOff: %v", err)
		return d.undeploy(ctx, vappHref, "powerOff")
	}
	return nil
}

func (d *Driver) undeploy(ctx context.Context, vappHref, powerAction string) error {
	doc, root := client.NewDocument("UndeployVAppParams", VCloudNS)
	root.CreateElement("UndeployPowerAction").SetText(powerAction)
	return d.postAndWait(ctx, href(vappHref)+"/action/undeploy", doc, mimeUndeployParams)
}

// FindNode looks a node up by vApp name across all vDCs. It returns nil when
// no vApp carries the name.
func (d *Driver) FindNode(ctx context.Context, name string) (*cloud.Node, error) {
	vdcs, err := d.Vdcs(ctx)
	if err != nil {
		return nil, err
	}
	for _, vdc := range vdcs {
		vdcEl, err := d.get(ctx, vdc.Href)
		if err != nil {
			return nil, errors.Wrapf(err, "reading vDC %s failed", vdc.Name)
		}
		for _, entity := range entitiesOfType(vdcEl, mimeVApp) {
			if client.Attr(entity, "name") == name {
				return d.getNode(ctx, client.Attr(entity, "href"), vdc.Name)
			}
		}
	}
	return nil, nil
}

// FindVMNodes returns the nodes whose vApp contains a VM with the given
// name, resolved through the query service.
func (d *Driver) FindVMNodes(ctx context.Context, vmName string) ([]*cloud.Node, error) {
	records, err := d.Query(ctx, "vm", QueryOptions{Filter: "name==" + vmName})
	if err != nil {
		return nil, err
	}
	var nodes []*cloud.Node
	for _, record := range records {
		containerHref := record["container"]
		if containerHref == "" {
			continue
		}
		node, err := d.getNode(ctx, containerHref, "")
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// ListImages lists the vApp templates of every vDC.
func (d *Driver) ListImages(ctx context.Context) ([]*cloud.NodeImage, error) {
	vdcs, err := d.Vdcs(ctx)
	if err != nil {
		return nil, err
	}
	var images []*cloud.NodeImage
	for _, vdc := range vdcs {
		vdcEl, err := d.get(ctx, vdc.Href)
		if err != nil {
			return nil, errors.Wrapf(err, "reading vDC %s failed", vdc.Name)
		}
		for _, entity := range entitiesOfType(vdcEl, mimeVAppTemplate) {
			images = append(images, &cloud.NodeImage{
				ID:   client.Attr(entity, "href"),
				Name: client.Attr(entity, "name"),
			})
		}
	}
	return images, nil
}

// ListSizes returns a synthetic size table. vCloud has no size catalog, so
// one size per accepted memory value is offered.
func (d *Driver) ListSizes(ctx context.Context) ([]*cloud.NodeSize, error) {
	var sizes []*cloud.NodeSize
	for _, memory := range virtualMemoryValues {
		sizes = append(sizes, &cloud.NodeSize{
			ID:   fmt.Sprintf("%d", memory),
			Name: fmt.Sprintf("%d MB RAM", memory),
			RAM:  memory,
		})
	}
	return sizes, nil
}

// Network is an organization network nodes can be connected to.
type Network struct {
	Name string
	Href string
}

// ListNetworks lists the organization networks.
func (d *Driver) ListNetworks(ctx context.Context) ([]*Network, error) {
	if _, err := d.session(ctx); err != nil {
		return nil, err
	}
	org, err := d.get(ctx, d.orgHref)
	if err != nil {
		return nil, errors.Wrap(err, "reading organization failed")
	}
	var networks []*Network
	for _, link := range linksOfType(org, mimeOrgNetwork) {
		networks = append(networks, &Network{
			Name: client.Attr(link, "name"),
			Href: client.Attr(link, "href"),
		})
	}
	return networks, nil
}

func (d *Driver) networkHref(ctx context.Context, name string) (string, error) {
	networks, err := d.ListNetworks(ctx)
	if err != nil {
		return "", err
	}
	for _, network := range networks {
		if network.Name == name {
			return network.Href, nil
		}
	}
	return "", errors.Errorf("network %q not found", name)
}

func extraString(extra map[string]interface{}, key string) string {
	if extra == nil {
		return ""
	}
	if value, ok := extra[key].(string); ok {
		return value
	}
	return ""
}

func extraInt(extra map[string]interface{}, key string) (int, bool) {
	if extra == nil {
		return 0, false
	}
	switch value := extra[key].(type) {
	case int:
		return value, true
	case int64:
		return int(value), true
	}
	return 0, false
}

func extraStrings(extra map[string]interface{}, key string) ([]string, error) {
	if extra == nil || extra[key] == nil {
		return nil, nil
	}
	values, ok := extra[key].([]string)
	if !ok {
		return nil, errors.Errorf("extra key %q must be a []string", key)
	}
	return values, nil
}
