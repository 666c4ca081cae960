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

// Package config loads the planner configuration from a YAML file with VACATIONS_* environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dentaplan/vacations/solve"
	"github.com/dentaplan/vacations/vacation"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. VACATIONS_SOLVER_TIME_LIMIT.
const EnvPrefix = "VACATIONS"

// Config is the complete planner configuration.
type Config struct {
	Solver      SolverConfig
	Calendar    CalendarConfig
	Quota       QuotaConfig
	Weights     vacation.Weights
	Data        DataConfig
	Diagnostics DiagnosticsConfig
	// Disabled lists constraint families left out of the model.
	Disabled []string
	// Disciplines holds the modifiers of each discipline, by discipline id.
	Disciplines map[int]DisciplineConfig
}

type SolverConfig struct {
	TimeLimit       time.Duration
	Workers         int
	LogSearch       bool
	Heartbeat       time.Duration
	ProbeInfeasible bool
	ProbeTimeLimit  time.Duration
}

// CalendarConfig describes the rotation: NumWeeks consecutive weeks from FirstWeek, wrapping
// after week 52.
type CalendarConfig struct {
	FirstWeek int
	NumWeeks  int
}

type QuotaConfig struct {
	Mode                 string
	SmoothingThreshold   int
	SmoothingWideDelta   int
	SmoothingNarrowDelta int
}

// DataConfig holds the input and output paths.
type DataConfig struct {
	Disciplines string
	Students    string
	Stages      string
	Calendar    string
	Output      string
	Report      string
	Metrics     string
}

type DiagnosticsConfig struct {
	Escalate bool
}

// DisciplineConfig is the raw form of vacation.Modifiers.
type DisciplineConfig struct {
	WeeklyCap      int                    `mapstructure:"weekly_cap"`
	DayPairs       []string               `mapstructure:"day_pairs"`
	Diversity      string                 `mapstructure:"diversity"`
	Frequency      int                    `mapstructure:"frequency"`
	Semester       map[string]SplitConfig `mapstructure:"semester"`
	Continuity     *ContinuityConfig      `mapstructure:"continuity"`
	Substitution   *SubstitutionConfig    `mapstructure:"substitution"`
	Priority       []string               `mapstructure:"priority"`
	FillToCapacity bool                   `mapstructure:"fill_to_capacity"`
	DayPreference  bool                   `mapstructure:"day_preference"`
	SameDay        bool                   `mapstructure:"same_day"`
	AdjacentDays   bool                   `mapstructure:"adjacent_days"`
}

type SplitConfig struct {
	First  int `mapstructure:"first"`
	Second int `mapstructure:"second"`
}

type ContinuityConfig struct {
	Window int `mapstructure:"window"`
	Limit  int `mapstructure:"limit"`
}

type SubstitutionConfig struct {
	From    string `mapstructure:"from"`
	To      string `mapstructure:"to"`
	Percent int    `mapstructure:"percent"`
}

// Load reads path, if not empty, over the defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	cfg := &Config{}

	cfg.Solver = SolverConfig{
		TimeLimit:       v.GetDuration("solver.time_limit"),
		Workers:         v.GetInt("solver.workers"),
		LogSearch:       v.GetBool("solver.log_search"),
		Heartbeat:       v.GetDuration("solver.heartbeat"),
		ProbeInfeasible: v.GetBool("solver.probe_infeasible"),
		ProbeTimeLimit:  v.GetDuration("solver.probe_time_limit"),
	}

	cfg.Calendar = CalendarConfig{
		FirstWeek: v.GetInt("calendar.first_week"),
		NumWeeks:  v.GetInt("calendar.num_weeks"),
	}

	cfg.Quota = QuotaConfig{
		Mode:                 v.GetString("quota.mode"),
		SmoothingThreshold:   v.GetInt("quota.smoothing_threshold"),
		SmoothingWideDelta:   v.GetInt("quota.smoothing_wide_delta"),
		SmoothingNarrowDelta: v.GetInt("quota.smoothing_narrow_delta"),
	}

	cfg.Weights = vacation.Weights{
		QuotaSatisfied: v.GetInt64("weights.quota_satisfied"),
		QuotaExcess:    v.GetInt64("weights.quota_excess"),
		Success:        v.GetInt64("weights.success"),
		Assigned:       v.GetInt64("weights.assigned"),
		DayPreference:  v.GetInt64("weights.day_preference"),
		Priority: [3]int64{
			v.GetInt64("weights.priority_first"),
			v.GetInt64("weights.priority_second"),
			v.GetInt64("weights.priority_third"),
		},
		PairedDay:   v.GetInt64("weights.paired_day"),
		SameDay:     v.GetInt64("weights.same_day"),
		AdjacentDay: v.GetInt64("weights.adjacent_day"),
	}

	cfg.Data = DataConfig{
		Disciplines: v.GetString("data.disciplines"),
		Students:    v.GetString("data.students"),
		Stages:      v.GetString("data.stages"),
		Calendar:    v.GetString("data.calendar"),
		Output:      v.GetString("data.output"),
		Report:      v.GetString("data.report"),
		Metrics:     v.GetString("data.metrics"),
	}

	cfg.Diagnostics = DiagnosticsConfig{Escalate: v.GetBool("diagnostics.escalate")}
	cfg.Disabled = v.GetStringSlice("disabled")

	var raw map[string]DisciplineConfig
	if err := v.UnmarshalKey("disciplines", &raw); err != nil {
		return nil, fmt.Errorf("disciplines: %w", err)
	}
	cfg.Disciplines = make(map[int]DisciplineConfig, len(raw))
	for k, d := range raw {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("disciplines: id %q is not a number", k)
		}
		cfg.Disciplines[id] = d
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("solver.time_limit", "60s")
	v.SetDefault("solver.workers", 8)
	v.SetDefault("solver.log_search", false)
	v.SetDefault("solver.heartbeat", "5s")
	v.SetDefault("solver.probe_infeasible", true)
	v.SetDefault("solver.probe_time_limit", "10s")

	v.SetDefault("calendar.first_week", 34)
	v.SetDefault("calendar.num_weeks", vacation.WeeksPerYear)

	v.SetDefault("quota.mode", "soft")
	v.SetDefault("quota.smoothing_threshold", 10)
	v.SetDefault("quota.smoothing_wide_delta", 5)
	v.SetDefault("quota.smoothing_narrow_delta", 2)

	w := vacation.DefaultWeights()
	v.SetDefault("weights.quota_satisfied", w.QuotaSatisfied)
	v.SetDefault("weights.quota_excess", w.QuotaExcess)
	v.SetDefault("weights.success", w.Success)
	v.SetDefault("weights.assigned", w.Assigned)
	v.SetDefault("weights.day_preference", w.DayPreference)
	v.SetDefault("weights.priority_first", w.Priority[0])
	v.SetDefault("weights.priority_second", w.Priority[1])
	v.SetDefault("weights.priority_third", w.Priority[2])
	v.SetDefault("weights.paired_day", w.PairedDay)
	v.SetDefault("weights.same_day", w.SameDay)
	v.SetDefault("weights.adjacent_day", w.AdjacentDay)

	v.SetDefault("data.disciplines", "disciplines.csv")
	v.SetDefault("data.students", "students.csv")
	v.SetDefault("data.stages", "stages.csv")
	v.SetDefault("data.calendar", "calendar.csv")
	v.SetDefault("data.output", "assignments.csv")
	v.SetDefault("data.report", "")
	v.SetDefault("data.metrics", "")

	v.SetDefault("diagnostics.escalate", false)
}

// Weeks returns the rotation described by the calendar section.
func (c *Config) Weeks() ([]int, error) {
	return vacation.Rotation(c.Calendar.FirstWeek, c.Calendar.NumWeeks)
}

// BuildOptions converts the quota, weights, diagnostics and disabled sections.
func (c *Config) BuildOptions() (vacation.Options, error) {
	mode, err := vacation.ParseQuotaMode(c.Quota.Mode)
	if err != nil {
		return vacation.Options{}, err
	}
	opts := vacation.Options{
		QuotaMode:            mode,
		Weights:              c.Weights,
		SmoothingThreshold:   c.Quota.SmoothingThreshold,
		SmoothingWideDelta:   c.Quota.SmoothingWideDelta,
		SmoothingNarrowDelta: c.Quota.SmoothingNarrowDelta,
		EscalateDiagnostics:  c.Diagnostics.Escalate,
	}
	for _, name := range c.Disabled {
		f, err := vacation.ParseFamily(name)
		if err != nil {
			return vacation.Options{}, err
		}
		opts = opts.Without(f)
	}
	return opts, nil
}

// SolveOptions converts the whole configuration into orchestrator options.
func (c *Config) SolveOptions() (solve.Options, error) {
	build, err := c.BuildOptions()
	if err != nil {
		return solve.Options{}, err
	}
	return solve.Options{
		Build:           build,
		TimeLimit:       c.Solver.TimeLimit,
		Workers:         int32(c.Solver.Workers),
		LogSearch:       c.Solver.LogSearch,
		Heartbeat:       c.Solver.Heartbeat,
		ProbeInfeasible: c.Solver.ProbeInfeasible,
		ProbeTimeLimit:  c.Solver.ProbeTimeLimit,
	}, nil
}

// Apply sets the modifiers of the disciplines of inst from the disciplines section. Every
// configured id must exist in inst.
func (c *Config) Apply(inst *vacation.Instance) error {
	byID := make(map[int]*vacation.Discipline, len(inst.Disciplines))
	for i := range inst.Disciplines {
		byID[inst.Disciplines[i].ID] = &inst.Disciplines[i]
	}
	var errs []error
	for id, dc := range c.Disciplines {
		d, ok := byID[id]
		if !ok {
			errs = append(errs, &vacation.DataError{Entity: "config", ID: strconv.Itoa(id), Field: "disciplines", Err: errors.New("unknown discipline")})
			continue
		}
		m, err := dc.Modifiers()
		if err != nil {
			errs = append(errs, &vacation.DataError{Entity: "config", ID: strconv.Itoa(id), Field: "disciplines", Err: err})
			continue
		}
		d.Modifiers = m
	}
	return errors.Join(errs...)
}

// Modifiers parses dc.
func (dc DisciplineConfig) Modifiers() (vacation.Modifiers, error) {
	m := vacation.Modifiers{
		WeeklyCap:      dc.WeeklyCap,
		Frequency:      dc.Frequency,
		FillToCapacity: dc.FillToCapacity,
		DayPreference:  dc.DayPreference,
		SameDay:        dc.SameDay,
		AdjacentDays:   dc.AdjacentDays,
	}
	var err error
	if m.Diversity, err = vacation.ParseDiversity(dc.Diversity); err != nil {
		return m, err
	}
	for _, p := range dc.DayPairs {
		first, second, ok := strings.Cut(p, "/")
		if !ok {
			return m, fmt.Errorf("day pair %q: want first/second", p)
		}
		var pair vacation.DayPair
		if pair.First, err = vacation.ParseWeekday(first); err != nil {
			return m, err
		}
		if pair.Second, err = vacation.ParseWeekday(second); err != nil {
			return m, err
		}
		m.DayPairs = append(m.DayPairs, pair)
	}
	if len(dc.Semester) > 0 {
		m.Semester = make(map[vacation.Level]vacation.Split, len(dc.Semester))
		for name, s := range dc.Semester {
			l, err := vacation.ParseLevel(name)
			if err != nil {
				return m, err
			}
			m.Semester[l] = vacation.Split{First: s.First, Second: s.Second}
		}
	}
	if dc.Continuity != nil {
		m.Continuity = &vacation.Continuity{Window: dc.Continuity.Window, Limit: dc.Continuity.Limit}
	}
	if s := dc.Substitution; s != nil {
		from, err := vacation.ParseLevel(s.From)
		if err != nil {
			return m, err
		}
		to, err := vacation.ParseLevel(s.To)
		if err != nil {
			return m, err
		}
		m.Substitution = &vacation.Substitution{From: from, To: to, Percent: s.Percent}
	}
	for _, name := range dc.Priority {
		l, err := vacation.ParseLevel(name)
		if err != nil {
			return m, err
		}
		m.Priority = append(m.Priority, l)
	}
	return m, nil
}
