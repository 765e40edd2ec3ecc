/*
 * Copyright (C) 2019-Present Pivotal Software, Inc. All rights reserved.
 *
 * This program and the accompanying materials are made available under the terms
 * of the Apache License, Version 2.0 (the "License”); you may not use this file
 * except in compliance with the License. You may obtain a copy of the License at:
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software distributed
 * under the License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR
 * CONDITIONS OF ANY KIND, either express or implied. See the License for the
 * specific language governing permissions and limitations under the License.
 */

package simulator

import "contagion/pkg/model"

// TownSeries is the append-only day-by-day record of one town's aggregate
// state counts, the persisted output of a run.
type TownSeries struct {
	Name      string  `json:"name"`
	Size      int     `json:"size"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`

	SimulationDays []int `json:"simulation_days"`
	Susceptible    []int `json:"susceptible"`
	Exposed        []int `json:"exposed"`
	Infectious     []int `json:"infectious"`
	Hospitalized   []int `json:"hospitalized"`
	Recovered      []int `json:"recovered"`
	NewCases       []int `json:"new_cases"`
}

func (ts *TownSeries) append(day int, c model.Census) {
	ts.SimulationDays = append(ts.SimulationDays, day)
	ts.Susceptible = append(ts.Susceptible, c.Susceptible)
	ts.Exposed = append(ts.Exposed, c.Exposed)
	ts.Infectious = append(ts.Infectious, c.Infectious)
	ts.Hospitalized = append(ts.Hospitalized, c.Hospitalized)
	ts.Recovered = append(ts.Recovered, c.Recovered)
	ts.NewCases = append(ts.NewCases, c.NewCases)
}

// Census reconstructs the aggregate counts recorded for one day.
func (ts *TownSeries) Census(day int) model.Census {
	return model.Census{
		Susceptible:  ts.Susceptible[day],
		Exposed:      ts.Exposed[day],
		Infectious:   ts.Infectious[day],
		Hospitalized: ts.Hospitalized[day],
		Recovered:    ts.Recovered[day],
		NewCases:     ts.NewCases[day],
	}
}

// Days reports how many days have been recorded.
func (ts *TownSeries) Days() int {
	return len(ts.SimulationDays)
}

// Result is the complete Day Snapshot sequence of a finished run, one series
// per town.
type Result struct {
	Towns []*TownSeries `json:"towns"`

	byName map[string]*TownSeries
}

func newResult(towns []*model.Town) *Result {
	r := &Result{
		Towns:  make([]*TownSeries, 0, len(towns)),
		byName: make(map[string]*TownSeries, len(towns)),
	}

	for _, town := range towns {
		series := &TownSeries{
			Name:      town.Name(),
			Size:      town.Size(),
			Longitude: town.Longitude(),
			Latitude:  town.Latitude(),
		}
		r.Towns = append(r.Towns, series)
		r.byName[town.Name()] = series
	}

	return r
}

// Town returns the recorded series for one town, or nil if the town was not
// part of the run.
func (r *Result) Town(name string) *TownSeries {
	return r.byName[name]
}
