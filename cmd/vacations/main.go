// Copyright 2010-2024 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// The vacations command compiles the yearly clinical plan of dental students into a constraint
// model, solves it and exports the assignments.
package main

import (
	"context"
	"flag"

	log "github.com/golang/glog"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vacations",
		Short:         "Clinical half-day planner for dental students",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			// glog reads its flags from the Go flag set, which cobra has already filled.
			return flag.CommandLine.Parse(nil)
		},
	}
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	root.AddCommand(
		newSolveCmd(),
		newCheckCmd(),
		newSlotsCmd(),
	)
	return root
}

func main() {
	defer log.Flush()
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Exitf("vacations returned with error: %v", err)
	}
}
