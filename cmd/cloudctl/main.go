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

// cloudctl drives the provider APIs from the command line.

package main

import (
	goflag "flag"
	"fmt"
	"os"

	klog "k8s.io/klog/v2"

	"github.com/keremdokuz/libcloud/pkg/cli"
)

var version string

func main() {
	command := cli.NewRootCommand()

	klog.InitFlags(nil)
	command.PersistentFlags().AddGoFlagSet(goflag.CommandLine)
	defer klog.Flush()

	if version != "" {
		command.Version = version
	}

	if err := command.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
