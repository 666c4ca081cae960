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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/dentaplan/vacations/internal/config"
	"github.com/dentaplan/vacations/internal/csvio"
	"github.com/dentaplan/vacations/internal/report"
	"github.com/dentaplan/vacations/solve"
	"github.com/dentaplan/vacations/vacation"
	log "github.com/golang/glog"
	"github.com/spf13/cobra"
)

// loadInstance reads the configuration at path and the instance it points to.
func loadInstance(path string) (*config.Config, *vacation.Instance, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	weeks, err := cfg.Weeks()
	if err != nil {
		return nil, nil, fmt.Errorf("calendar: %w", err)
	}
	inst, err := csvio.LoadInstance(csvio.Paths{
		Disciplines: cfg.Data.Disciplines,
		Students:    cfg.Data.Students,
		Stages:      cfg.Data.Stages,
		Calendar:    cfg.Data.Calendar,
	}, weeks)
	if err != nil {
		return nil, nil, fmt.Errorf("loading data: %w", err)
	}
	if err := cfg.Apply(inst); err != nil {
		return nil, nil, err
	}
	return cfg, inst, nil
}

func newSolveCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Build and solve the plan, then export assignments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSolve(cmd.Context(), cmd.OutOrStdout(), path)
		},
	}
	cmd.Flags().StringVar(&path, "config", "", "configuration file (YAML)")
	return cmd
}

func runSolve(ctx context.Context, out io.Writer, path string) error {
	cfg, inst, err := loadInstance(path)
	if err != nil {
		return err
	}
	opts, err := cfg.SolveOptions()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	o := &solve.Orchestrator{
		Options: opts,
		Metrics: solve.NewMetrics(),
		Progress: func(e solve.Event) {
			log.Infof("%s: %d solutions, best %v, %v elapsed", e.Kind, e.Solutions, e.Objective, e.Elapsed.Round(time.Millisecond))
		},
	}
	r := o.Run(ctx, inst)

	if r.Status.HasSolution() && cfg.Data.Output != "" {
		if err := csvio.ExportAssignments(cfg.Data.Output, r.Compiled, r.Assignments); err != nil {
			return err
		}
	}
	if cfg.Data.Report != "" {
		if err := report.Write(cfg.Data.Report, r); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	if cfg.Data.Metrics != "" {
		if err := o.Metrics.WriteToTextfile(cfg.Data.Metrics); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	fmt.Fprintf(out, "run %s: %v\n", r.RunID, r.Status)
	for _, d := range r.Diagnostics {
		fmt.Fprintf(out, "  diagnostic: %v\n", d)
	}
	switch r.Status {
	case solve.StatusOptimal, solve.StatusFeasible:
		fmt.Fprintf(out, "  score %v of %d (quality %.1f), bound %v, %d assignments\n",
			r.Objective, r.TheoreticalMax, r.Quality, r.Bound, len(r.Assignments))
		return nil
	case solve.StatusInfeasible:
		return fmt.Errorf("no plan satisfies the constraints; suspected families: %v", r.Suspects)
	case solve.StatusTimeout:
		return fmt.Errorf("no plan found before the search stopped; bound %v", r.Bound)
	}
	if r.Err == nil {
		return errors.New("run failed")
	}
	return r.Err
}

func newCheckCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the data and build the model without solving",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, inst, err := loadInstance(path)
			if err != nil {
				return err
			}
			opts, err := cfg.BuildOptions()
			if err != nil {
				return err
			}
			c, err := vacation.Build(inst, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			st := c.Model.Stats()
			fmt.Fprintf(out, "%d slots, %d decision variables, %d variables, %d constraints\n",
				c.Table.Len(), c.Vars.Len(), st.Variables, st.Constraints)
			for _, f := range c.SortedFamilyCounts() {
				fmt.Fprintf(out, "  %-13s %d\n", f, c.FamilyCounts[f])
			}
			fmt.Fprintf(out, "theoretical maximum %d\n", c.Max.Total)
			for _, d := range c.Diagnostics {
				fmt.Fprintf(out, "  diagnostic: %v\n", d)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "config", "", "configuration file (YAML)")
	return cmd
}

func newSlotsCmd() *cobra.Command {
	var first, weeks int
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the slot table of a rotation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rotation, err := vacation.Rotation(first, weeks)
			if err != nil {
				return err
			}
			table, err := vacation.NewSlotTable(rotation)
			if err != nil {
				return err
			}
			for i, s := range table.Slots() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%v\n", i, s)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&first, "first-week", 34, "first calendar week of the rotation")
	cmd.Flags().IntVar(&weeks, "weeks", vacation.WeeksPerYear, "number of weeks")
	return cmd
}
