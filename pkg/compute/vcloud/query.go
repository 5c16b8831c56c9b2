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
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/keremdokuz/libcloud/pkg/common/client"
)

// QueryOptions narrow and page a typed query.
type QueryOptions struct {
	// Filter is a query service expression, e.g. "name==web-01".
	Filter   string
	Page     int
	PageSize int
	SortAsc  string
	SortDesc string
}

// Query runs the typed query service, e.g. type "vm" or "orgVdc". Each
// returned record maps the record attributes by name.
func (d *Driver) Query(ctx context.Context, queryType string, opts QueryOptions) ([]map[string]string, error) {
	token, err := d.session(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("type", queryType)
	page := opts.Page
	if page == 0 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = 100
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(pageSize))
	if opts.Filter != "" {
		params.Set("filter", opts.Filter)
	}
	if opts.SortAsc != "" {
		params.Set("sortAsc", opts.SortAsc)
	}
	if opts.SortDesc != "" {
		params.Set("sortDesc", opts.SortDesc)
	}

	headers := http.Header{}
	headers.Set(authHeader, token)
	headers.Set("Accept", d.accept())
	resp, err := d.conn.Invoke(ctx, client.Request{
		Method:  "GET",
		Path:    "/api/query",
		Params:  params,
		Headers: headers,
	})
	if err != nil {
		return nil, err
	}
	root := resp.Root()
	if root == nil {
		return nil, nil
	}

	var records []map[string]string
	for _, child := range root.ChildElements() {
		if !strings.HasSuffix(child.Tag, "Record") {
			continue
		}
		record := map[string]string{}
		for _, attr := range child.Attr {
			if attr.Space == "" {
				record[attr.Key] = attr.Value
			}
		}
		records = append(records, record)
	}
	return records, nil
}
