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
	"time"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
	klog "k8s.io/klog/v2"

	"github.com/keremdokuz/libcloud/pkg/common/client"
)

// Task statuses reported by the server.
const (
	TaskSuccess  = "success"
	TaskError    = "error"
	TaskCanceled = "canceled"
	TaskAborted  = "aborted"
)

// DefaultTaskTimeout bounds WaitForTask when no timeout is given.
const DefaultTaskTimeout = 10 * time.Minute

// Task is an asynchronous server side operation.
type Task struct {
	Href      string
	Status    string
	Operation string
	// Error holds the server message when Status is error or aborted.
	Error string
}

// taskOf extracts the first Task element found under el. Most POST responses
// either are a Task or embed one.
func taskOf(el *etree.Element) *Task {
	if el == nil {
		return nil
	}
	taskEl := el
	if taskEl.Tag != "Task" {
		taskEl = client.Find(el, ".//Task")
		if taskEl == nil {
			return nil
		}
	}
	task := &Task{
		Href:      client.Attr(taskEl, "href"),
		Status:    client.Attr(taskEl, "status"),
		Operation: client.Attr(taskEl, "operationName"),
	}
	if errEl := client.Find(taskEl, "Error"); errEl != nil {
		task.Error = client.Attr(errEl, "message")
	}
	return task
}

func (t *Task) done() bool {
	switch t.Status {
	case TaskSuccess, TaskError, TaskCanceled, TaskAborted:
		return true
	}
	return false
}

// WaitForTask polls the task href until the task finishes. A non-success
// terminal status is returned as an error.
func (d *Driver) WaitForTask(ctx context.Context, task *Task, timeout time.Duration) error {
	if task == nil {
		return errors.Errorf("%s: no task to wait for", client.UnexpectedRespErrMsg)
	}
	if timeout == 0 {
		timeout = DefaultTaskTimeout
	}

	current := task
	_, err := client.WaitForState(ctx, []string{TaskSuccess, TaskError, TaskCanceled, TaskAborted}, 0, timeout, func(ctx context.Context) (string, error) {
		if current.done() {
			return current.Status, nil
		}
		root, err := d.get(ctx, current.Href)
		if err != nil {
			return "", err
		}
		refreshed := taskOf(root)
		if refreshed == nil {
			return "", errors.Errorf("%s: %s is not a task", client.UnexpectedRespErrMsg, current.Href)
		}
		current = refreshed
		return current.Status, nil
	})
	if err != nil {
		return err
	}
	if current.Status != TaskSuccess {
		klog.Errorf("vcloud: task %s finished as %s: %s", current.Operation, current.Status, current.Error)
		return errors.Errorf("task %s finished as %s: %s", current.Operation, current.Status, current.Error)
	}
	return nil
}

// postAndWait sends a document, then waits for the returned task.
func (d *Driver) postAndWait(ctx context.Context, pathOrHref string, body *etree.Document, contentType string) error {
	root, err := d.post(ctx, pathOrHref, body, contentType)
	if err != nil {
		return err
	}
	return d.WaitForTask(ctx, taskOf(root), 0)
}

// putAndWait replaces a document, then waits for the returned task.
func (d *Driver) putAndWait(ctx context.Context, pathOrHref string, body *etree.Document, contentType string) error {
	root, err := d.put(ctx, pathOrHref, body, contentType)
	if err != nil {
		return err
	}
	return d.WaitForTask(ctx, taskOf(root), 0)
}
