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

	"github.com/pkg/errors"

	"github.com/keremdokuz/libcloud/pkg/common/client"
)

// GetMetadata reads the metadata entries of a vApp or VM.
func (d *Driver) GetMetadata(ctx context.Context, entityHref string) (map[string]string, error) {
	root, err := d.get(ctx, href(entityHref)+"/metadata")
	if err != nil {
		return nil, err
	}
	metadata := map[string]string{}
	for _, entry := range client.FindAll(root, ".//MetadataEntry") {
		key := client.FindText(entry, "Key")
		if key == "" {
			continue
		}
		// API 5.1 wraps the value in a TypedValue element.
		value := client.FindText(entry, "Value")
		if typed := client.Find(entry, "TypedValue"); typed != nil {
			value = client.FindText(typed, "Value")
		}
		metadata[key] = value
	}
	return metadata, nil
}

// SetMetadataEntry writes one metadata entry on a vApp or VM.
func (d *Driver) SetMetadataEntry(ctx context.Context, entityHref, key, value string) error {
	doc, root := client.NewDocument("Metadata", VCloudNS)
	entry := root.CreateElement("MetadataEntry")
	entry.CreateElement("Key").SetText(key)
	if d.apiVersion == Version51 {
		root.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
		typed := entry.CreateElement("TypedValue")
		typed.CreateAttr("xsi:type", "MetadataStringValue")
		typed.CreateElement("Value").SetText(value)
	} else {
		entry.CreateElement("Value").SetText(value)
	}
	if err := d.postAndWait(ctx, href(entityHref)+"/metadata", doc, mimeMetadata); err != nil {
		return errors.Wrapf(err, "setting metadata %s failed", key)
	}
	return nil
}

// AccessSetting grants one subject a level of access to a vApp.
type AccessSetting struct {
	SubjectHref string
	SubjectName string
	SubjectType string
	AccessLevel string
}

// ControlAccess describes who may use a vApp.
type ControlAccess struct {
	// SharedToEveryone grants EveryoneAccessLevel to all org members.
	SharedToEveryone    bool
	EveryoneAccessLevel string
	Subjects            []AccessSetting
}

// GetControlAccess reads the access settings of a vApp.
func (d *Driver) GetControlAccess(ctx context.Context, vappHref string) (*ControlAccess, error) {
	root, err := d.get(ctx, href(vappHref)+"/controlAccess")
	if err != nil {
		return nil, err
	}
	access := &ControlAccess{
		SharedToEveryone:    client.FindText(root, "IsSharedToEveryone") == "true",
		EveryoneAccessLevel: client.FindText(root, "EveryoneAccessLevel"),
	}
	for _, setting := range client.FindAll(root, ".//AccessSetting") {
		subject := client.Find(setting, "Subject")
		access.Subjects = append(access.Subjects, AccessSetting{
			SubjectHref: client.Attr(subject, "href"),
			SubjectName: client.Attr(subject, "name"),
			SubjectType: client.Attr(subject, "type"),
			AccessLevel: client.FindText(setting, "AccessLevel"),
		})
	}
	return access, nil
}

// SetControlAccess replaces the access settings of a vApp.
func (d *Driver) SetControlAccess(ctx context.Context, vappHref string, access *ControlAccess) error {
	doc, root := client.NewDocument("ControlAccessParams", VCloudNS)
	if access.SharedToEveryone {
		root.CreateElement("IsSharedToEveryone").SetText("true")
		level := access.EveryoneAccessLevel
		if level == "" {
			level = "ReadOnly"
		}
		root.CreateElement("EveryoneAccessLevel").SetText(level)
	} else {
		root.CreateElement("IsSharedToEveryone").SetText("false")
		settings := root.CreateElement("AccessSettings")
		for _, setting := range access.Subjects {
			settingEl := settings.CreateElement("AccessSetting")
			subject := settingEl.CreateElement("Subject")
			subject.CreateAttr("href", setting.SubjectHref)
			if setting.SubjectType != "" {
				subject.CreateAttr("type", setting.SubjectType)
			}
			settingEl.CreateElement("AccessLevel").SetText(setting.AccessLevel)
		}
	}
	if _, err := d.post(ctx, href(vappHref)+"/action/controlAccess", doc, mimeControlAccess); err != nil {
		return errors.Wrap(err, "setting control access failed")
	}
	return nil
}
