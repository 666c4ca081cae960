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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSlotsCommand(t *testing.T) {
	got, err := execute(t, "slots", "--first-week", "52", "--weeks", "1")
	if err != nil {
		t.Fatalf("slots returned with unexpected error %v", err)
	}
	lines := strings.Split(strings.TrimSpace(got), "\n")
	want := []string{"0\tw52/monday/morning", "9\tw52/friday/afternoon"}
	if diff := cmp.Diff(want, []string{lines[0], lines[len(lines)-1]}); diff != "" {
		t.Errorf("slots returned with unexpected diff (-want+got):\n%s", diff)
	}
	if len(lines) != 10 {
		t.Errorf("slots printed %d lines, want 10", len(lines))
	}

	if _, err := execute(t, "slots", "--weeks", "53"); err == nil {
		t.Error("slots --weeks 53 returned no error")
	}
}

func writePlan(t *testing.T) (dir, config string) {
	t.Helper()
	dir = t.TempDir()
	files := map[string]string{
		"disciplines.csv": "id,name,capacity,open,pair_work,levels,quotas\n1,Paro,1,,,DFASO1,DFASO1:1\n",
		"students.csv":    "id,code,level,partner,preferred_day,period\n1,A01,DFASO1,,,\n2,A02,DFASO1,,,\n",
		"stages.csv":      "level,period,start_week,end_week\nDFASO2,1,3,4\n",
		"calendar.csv":    "level,week,weekday,half\nDFASO1,10,fri,pm\n",
		"plan.yaml": `
calendar:
  first_week: 10
  num_weeks: 1
data:
  disciplines: ` + filepath.Join(dir, "disciplines.csv") + `
  students: ` + filepath.Join(dir, "students.csv") + `
  stages: ` + filepath.Join(dir, "stages.csv") + `
  calendar: ` + filepath.Join(dir, "calendar.csv") + `
  output: ` + filepath.Join(dir, "assignments.csv") + `
  report: ` + filepath.Join(dir, "report.json") + `
  metrics: ` + filepath.Join(dir, "metrics.prom") + `
`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("WriteFile() returned with unexpected error %v", err)
		}
	}
	return dir, filepath.Join(dir, "plan.yaml")
}

func TestCheckCommand(t *testing.T) {
	_, config := writePlan(t)
	got, err := execute(t, "check", "--config", config)
	if err != nil {
		t.Fatalf("check returned with unexpected error %v", err)
	}
	for _, want := range []string{"10 slots, 18 decision variables", "capacity", "quota", "theoretical maximum"} {
		if !strings.Contains(got, want) {
			t.Errorf("check output %q does not contain %q", got, want)
		}
	}
}

func TestSolveCommand(t *testing.T) {
	dir, config := writePlan(t)
	got, err := execute(t, "solve", "--config", config)
	if err != nil {
		t.Fatalf("solve returned with unexpected error %v", err)
	}
	if !strings.Contains(got, "OPTIMAL") {
		t.Errorf("solve output %q does not report an optimal run", got)
	}

	csv, err := os.ReadFile(filepath.Join(dir, "assignments.csv"))
	if err != nil {
		t.Fatalf("ReadFile() returned with unexpected error %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(csv)), "\n")
	if len(lines) != 3 || lines[0] != "student,code,discipline,week,weekday,half" {
		t.Fatalf("assignments = %q, want a header and one row per student", csv)
	}
	for _, prefix := range []string{"1,A01,1,10,", "2,A02,1,10,"} {
		if !strings.Contains(string(csv), "\n"+prefix) {
			t.Errorf("assignments = %q, want a row starting with %q", csv, prefix)
		}
	}
	for _, name := range []string{"report.json", "metrics.prom"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestSolveCommand_MissingData(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "plan.yaml")
	body := "data:\n  disciplines: " + filepath.Join(dir, "none.csv") + "\n  students: " + filepath.Join(dir, "none.csv") + "\n"
	if err := os.WriteFile(config, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile() returned with unexpected error %v", err)
	}
	if _, err := execute(t, "solve", "--config", config); err == nil {
		t.Error("solve returned no error for missing data files")
	}
}
