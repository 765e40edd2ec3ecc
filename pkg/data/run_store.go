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

package data

import (
	"time"

	"github.com/bvinc/go-sqlite-lite/sqlite3"

	"contagion/pkg/model"
	"contagion/pkg/simulator"
)

// RunStore persists finished runs: one simulation_runs row holding the full
// configuration surface, plus the per-town per-day state counts.
type RunStore interface {
	Store(result *simulator.Result, scenario Scenario, virus model.VirusConfig) (simulationRunId int64, err error)
}

type storer struct {
	conn *sqlite3.Conn
}

func NewRunStore(conn *sqlite3.Conn) RunStore {
	return &storer{conn: conn}
}

func (s *storer) Store(result *simulator.Result, scenario Scenario, virus model.VirusConfig) (simulationRunId int64, err error) {
	if err := s.conn.Exec(Schema); err != nil {
		return -1, err
	}

	simulationRunId, err = s.simulationRun(scenario, virus)
	if err != nil {
		return simulationRunId, err
	}

	err = s.conn.WithTx(func() error {
		return s.townDays(simulationRunId, result)
	})
	if err != nil {
		return simulationRunId, err
	}

	return simulationRunId, nil
}

func (s *storer) simulationRun(scenario Scenario, virus model.VirusConfig) (simulationRunId int64, err error) {
	runStmt, err := s.conn.Prepare(`insert into simulation_runs(
									   recorded
									 , virus
									 , seed
									 , simulation_days
									 , n_processes
									 , min_inhabitants
									 , mean_periodic_interactions
									 , mean_stochastic_interactions
									 , transmission_probability
									 , infectious_start
									 , infectious_days_mean
									 , infectious_days_std
									 , hospitalization_start
									 , hospitalization_percentage)
									values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return -1, err
	}
	defer runStmt.Close()

	err = runStmt.Exec(
		time.Now().Format(time.RFC3339),
		virus.Name,
		scenario.Seed,
		scenario.SimulationDays,
		scenario.NProcesses,
		scenario.MinInhabitants,
		scenario.MeanPeriodicInteractions,
		scenario.MeanStochasticInteractions,
		virus.TransmissionProbability,
		virus.InfectiousStart,
		virus.InfectiousDaysMean,
		virus.InfectiousDaysStd,
		virus.HospitalizationStart,
		virus.HospitalizationPercentage,
	)
	if err != nil {
		return -1, err
	}

	return s.conn.LastInsertRowID(), nil
}

func (s *storer) townDays(simulationRunId int64, result *simulator.Result) error {
	townStmt, err := s.conn.Prepare(`insert into towns(name, size, longitude, latitude, simulation_run_id)
									values (?, ?, ?, ?, ?);`)
	if err != nil {
		return err
	}
	defer townStmt.Close()

	dayStmt, err := s.conn.Prepare(`insert into town_days(
            day
          , susceptible
          , exposed
          , infectious
          , hospitalized
          , recovered
          , new_cases
          , town_id
          , simulation_run_id
        ) values (?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return err
	}
	defer dayStmt.Close()

	for _, series := range result.Towns {
		err = townStmt.Exec(series.Name, series.Size, series.Longitude, series.Latitude, simulationRunId)
		if err != nil {
			return err
		}

		townId := s.conn.LastInsertRowID()

		for d, day := range series.SimulationDays {
			err = dayStmt.Exec(
				day,
				series.Susceptible[d],
				series.Exposed[d],
				series.Infectious[d],
				series.Hospitalized[d],
				series.Recovered[d],
				series.NewCases[d],
				townId,
				simulationRunId,
			)
			if err != nil {
				return err
			}
		}
	}

	return nil
}
