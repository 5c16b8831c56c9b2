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

import (
	"fmt"

	"github.com/beevik/etree"
)

// Error messages
const (
	WaitTimeoutErrMsg    = "timed out waiting for state"
	MissingHostErrMsg    = "connection has no hostname configured"
	UnexpectedRespErrMsg = "unexpected response from API"
)

// APIError carries the HTTP status and the vendor error fields of a failed
// API call.
type APIError struct {
	StatusCode int
	// Code is the vendor response code, e.g. RESOURCE_NOT_FOUND.
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (HTTP %d): %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// newAPIError extracts the vendor error fields from a response document.
// Both provider APIs report errors as elements named responseCode/message or
// minorErrorCode, so the lookup is by local name.
func newAPIError(statusCode int, root *etree.Element) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if root == nil {
		return apiErr
	}
	apiErr.Code = FindText(root, "responseCode")
	if apiErr.Code == "" {
		apiErr.Code = Attr(root, "minorErrorCode")
	}
	apiErr.Message = FindText(root, "message")
	if apiErr.Message == "" {
		apiErr.Message = Attr(root, "message")
	}
	return apiErr
}

// IsNotFound reports whether err is an APIError describing a missing resource.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	if !ok {
		return false
	}
	return apiErr.StatusCode == 404 || apiErr.Code == "RESOURCE_NOT_FOUND"
}
