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
	"os"
	"regexp"
	"strconv"

	"github.com/beevik/etree"
	"github.com/pkg/errors"

	"github.com/keremdokuz/libcloud/pkg/common/client"
)

// virtualMemoryValues are the memory sizes in MB accepted by API 1.5.
var virtualMemoryValues = []int{512, 1024, 2048, 4096, 8192, 16384, 32768}

// virtualCPUMax caps the virtual CPU count per VM.
const virtualCPUMax = 8

// vmNameRe accepts hostnames: letters, digits and inner hyphens, starting
// with a letter.
var vmNameRe = regexp.MustCompile(`^(([a-zA-Z]|[a-zA-Z][a-zA-Z0-9]*)[\-])*([A-Za-z]|[A-Za-z][A-Za-z0-9]*[A-Za-z0-9])$`)

// validateVMNames checks that every name can be used as a guest hostname.
func validateVMNames(names []string) error {
	for _, name := range names {
		if len(name) > 15 {
			return errors.Errorf("VM name %q is too long for the computer name, max 15 characters", name)
		}
		if !vmNameRe.MatchString(name) {
			return errors.Errorf("VM name %q is not a valid hostname, use letters, digits and inner hyphens", name)
		}
	}
	return nil
}

func validateVMCPU(cpus int) error {
	if cpus < 1 || cpus > virtualCPUMax {
		return errors.Errorf("CPU count must be between 1 and %d, got %d", virtualCPUMax, cpus)
	}
	return nil
}

// validateVMMemory checks the memory size. API 5.1 accepts any power of two
// of at least 512 MB, 1.5 only the fixed table.
func (d *Driver) validateVMMemory(memory int) error {
	if d.apiVersion == Version51 {
		if memory < 512 || memory&(memory-1) != 0 {
			return errors.Errorf("memory must be a power of two of at least 512 MB, got %d", memory)
		}
		return nil
	}
	for _, accepted := range virtualMemoryValues {
		if memory == accepted {
			return nil
		}
	}
	return errors.Errorf("memory size %d MB is not supported, accepted values: %v", memory, virtualMemoryValues)
}

// editable wraps a fetched server document so it can be modified and PUT
// back.
func editable(el *etree.Element) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	root := el.Copy()
	doc.SetRoot(root)
	return doc, root
}

// setSectionElement updates the named child of section, or inserts it before
// the first element named in following so the schema sequence stays valid.
func setSectionElement(section *etree.Element, tag, value string, following ...string) {
	if el := client.Find(section, tag); el != nil {
		el.SetText(value)
		return
	}
	idx := len(section.Child)
search:
	for i, token := range section.Child {
		el, ok := token.(*etree.Element)
		if !ok {
			continue
		}
		for _, name := range following {
			if el.Tag == name {
				idx = i
				break search
			}
		}
	}
	newEl := etree.NewElement(tag)
	newEl.SetText(value)
	section.InsertChildAt(idx, newEl)
}

// renameVM changes the VM and guest computer name.
func (d *Driver) renameVM(ctx context.Context, vmHref, name string) error {
	vm, err := d.get(ctx, href(vmHref))
	if err != nil {
		return err
	}
	doc, root := editable(vm)
	root.CreateAttr("name", name)
	if err := d.putAndWait(ctx, href(vmHref), doc, mimeVM); err != nil {
		return errors.Wrapf(err, "renaming VM to %s failed", name)
	}
	return nil
}

// SetVMCPU sets the virtual CPU count of a VM.
func (d *Driver) SetVMCPU(ctx context.Context, vmHref string, cpus int) error {
	if err := validateVMCPU(cpus); err != nil {
		return err
	}
	return d.setHardwareQuantity(ctx, href(vmHref)+"/virtualHardwareSection/cpu", cpus)
}

// SetVMMemory sets the memory of a VM in MB.
func (d *Driver) SetVMMemory(ctx context.Context, vmHref string, memory int) error {
	if err := d.validateVMMemory(memory); err != nil {
		return err
	}
	return d.setHardwareQuantity(ctx, href(vmHref)+"/virtualHardwareSection/memory", memory)
}

func (d *Driver) setHardwareQuantity(ctx context.Context, itemHref string, quantity int) error {
	item, err := d.get(ctx, itemHref)
	if err != nil {
		return err
	}
	doc, root := editable(item)
	quantityEl := client.Find(root, ".//VirtualQuantity")
	if quantityEl == nil {
		return errors.Errorf("%s: %s carries no VirtualQuantity", client.UnexpectedRespErrMsg, itemHref)
	}
	quantityEl.SetText(strconv.Itoa(quantity))
	return d.putAndWait(ctx, itemHref, doc, mimeRasdItem)
}

// AddVMDisk attaches a new disk of the given size to a VM. The new item is
// derived from an existing disk so controller references stay intact.
func (d *Driver) AddVMDisk(ctx context.Context, vmHref string, sizeGB int) error {
	if sizeGB <= 0 {
		return errors.Errorf("disk size must be a positive number of GB, got %d", sizeGB)
	}
	disksHref := href(vmHref) + "/virtualHardwareSection/disks"
	list, err := d.get(ctx, disksHref)
	if err != nil {
		return err
	}
	doc, root := editable(list)

	maxID := 0
	var template *etree.Element
	for _, item := range client.FindAll(root, "Item") {
		if id, err := strconv.Atoi(client.FindText(item, "InstanceID")); err == nil && id > maxID {
			maxID = id
		}
		// ResourceType 17 is a hard disk.
		if client.FindText(item, "ResourceType") == "17" {
			template = item
		}
	}
	if template == nil {
		return errors.Errorf("%s: VM has no disk to derive the new one from", client.UnexpectedRespErrMsg)
	}

	disk := template.Copy()
	diskID := maxID + 1
	if el := client.Find(disk, "InstanceID"); el != nil {
		el.SetText(strconv.Itoa(diskID))
	}
	if el := client.Find(disk, "AddressOnParent"); el != nil {
		el.SetText(strconv.Itoa(diskID))
	}
	if el := client.Find(disk, "ElementName"); el != nil {
		el.SetText(fmt.Sprintf("Hard Disk %d", diskID))
	}
	if el := client.Find(disk, "HostResource"); el != nil {
		capacity := strconv.Itoa(sizeGB * 1024)
		set := false
		for _, attr := range el.Attr {
			if attr.Key == "capacity" {
				el.CreateAttr(attr.FullKey(), capacity)
				set = true
				break
			}
		}
		if !set {
			el.CreateAttr("vcloud:capacity", capacity)
		}
	}
	root.AddChild(disk)

	if err := d.putAndWait(ctx, disksHref, doc, mimeRasdItemsList); err != nil {
		return errors.Wrapf(err, "adding %d GB disk failed", sizeGB)
	}
	return nil
}

// ChangeVMAdminPassword sets the guest administrator password through the
// guest customization section.
func (d *Driver) ChangeVMAdminPassword(ctx context.Context, vmHref, password string) error {
	sectionHref := href(vmHref) + "/guestCustomizationSection"
	section, err := d.get(ctx, sectionHref)
	if err != nil {
		return err
	}
	doc, root := editable(section)

	setSectionElement(root, "Enabled", "true",
		"ChangeSid", "JoinDomainEnabled", "UseOrgSettings", "AdminPasswordEnabled", "ComputerName")
	setSectionElement(root, "AdminPasswordEnabled", "true",
		"AdminPasswordAuto", "AdminPassword", "ResetPasswordRequired", "CustomizationScript", "ComputerName")
	setSectionElement(root, "AdminPasswordAuto", "false",
		"AdminPassword", "ResetPasswordRequired", "CustomizationScript", "ComputerName")
	setSectionElement(root, "AdminPassword", password,
		"ResetPasswordRequired", "CustomizationScript", "ComputerName")
	setSectionElement(root, "ResetPasswordRequired", "false",
		"CustomizationScript", "ComputerName")

	if err := d.putAndWait(ctx, sectionHref, doc, mimeGuestCustomization); err != nil {
		return errors.Wrap(err, "changing the administrator password failed")
	}
	return nil
}

// SetVMScript sets the guest customization script of a VM.
func (d *Driver) SetVMScript(ctx context.Context, vmHref, script string) error {
	sectionHref := href(vmHref) + "/guestCustomizationSection"
	section, err := d.get(ctx, sectionHref)
	if err != nil {
		return err
	}
	doc, root := editable(section)

	setSectionElement(root, "Enabled", "true",
		"ChangeSid", "JoinDomainEnabled", "UseOrgSettings", "AdminPasswordEnabled", "ComputerName")
	setSectionElement(root, "CustomizationScript", script, "ComputerName")
	// The server rejects a section carrying AdminPassword when the password
	// is generated automatically.
	if client.FindText(root, "AdminPasswordAuto") == "true" {
		if pw := client.Find(root, "AdminPassword"); pw != nil {
			root.RemoveChild(pw)
		}
	}

	if err := d.putAndWait(ctx, sectionHref, doc, mimeGuestCustomization); err != nil {
		return errors.Wrap(err, "setting the customization script failed")
	}
	return nil
}

// scriptText resolves the script or scriptFile extra key.
func scriptText(extra map[string]interface{}) (string, error) {
	if script := extraString(extra, "script"); script != "" {
		return script, nil
	}
	path := extraString(extra, "scriptFile")
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "reading script %s failed", path)
	}
	return string(data), nil
}
