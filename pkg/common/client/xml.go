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

package client

import "github.com/beevik/etree"

// XML lookup helpers. The vendor APIs serve documents in a single default
// namespace, so elements are addressed by local name.

// Find returns the first element matching path below el, or nil.
func Find(el *etree.Element, path string) *etree.Element {
	if el == nil {
		return nil
	}
	return el.FindElement(path)
}

// FindAll returns all elements matching path below el.
func FindAll(el *etree.Element, path string) []*etree.Element {
	if el == nil {
		return nil
	}
	return el.FindElements(path)
}

// FindText returns the text of the first element matching path below el,
// or the empty string.
func FindText(el *etree.Element, path string) string {
	found := Find(el, path)
	if found == nil {
		return ""
	}
	return found.Text()
}

// Attr returns the value of the named attribute of el, or the empty string.
func Attr(el *etree.Element, key string) string {
	if el == nil {
		return ""
	}
	attr := el.SelectAttr(key)
	if attr == nil {
		return ""
	}
	return attr.Value
}

// NewDocument creates a document with an XML declaration and the given root
// element in the given default namespace.
func NewDocument(rootTag, xmlns string) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(rootTag)
	if xmlns != "" {
		root.CreateAttr("xmlns", xmlns)
	}
	return doc, root
}
