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

package serve

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"contagion/pkg/data"
	"contagion/pkg/model"
	"contagion/pkg/simulator"
)

// RunRequest carries a complete scenario inline: the configuration, the
// town records, and the migration matrix in town order. An empty body runs
// the built-in two-town demonstration scenario.
type RunRequest struct {
	Scenario data.Scenario     `json:"scenario"`
	Towns    []data.TownRecord `json:"towns"`
	Matrix   [][]float64       `json:"matrix"`
}

var logger = newHandlerLogger()

func newHandlerLogger() *zap.SugaredLogger {
	unsugared, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	return unsugared.Named("contagion.serve").Sugar()
}

func RunHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	req := RunRequest{Scenario: data.DefaultScenario()}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.Towns) == 0 {
		req.Towns, req.Matrix = demoTowns()
		req.Scenario.MinInhabitants = 0
		req.Scenario.SimulationDays = 60
	}

	if len(req.Matrix) != len(req.Towns) {
		http.Error(w, "matrix must have one row per town", http.StatusBadRequest)
		return
	}

	names := make([]string, 0, len(req.Towns))
	for _, record := range req.Towns {
		names = append(names, record.Name)
	}

	records, names, flows, err := data.ApplyFloor(req.Towns, names, req.Matrix, req.Scenario.MinInhabitants)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	virus, err := req.Scenario.VirusConfig()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	matrix, err := model.NewMatrix(names, flows)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	towns := data.BuildTowns(records, virus, req.Scenario.ContactConfig(), req.Scenario.Seed)

	scheduler, err := simulator.NewScheduler(towns, matrix, simulator.Config{
		Days:    req.Scenario.SimulationDays,
		Workers: req.Scenario.NProcesses,
		Seed:    req.Scenario.Seed,
	}, logger)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := scheduler.Run(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.Errorw("encoding run response", "error", err)
	}
}

func demoTowns() ([]data.TownRecord, [][]float64) {
	towns := []data.TownRecord{
		{Name: "Alphaville", Population: 10000, Longitude: 14.42, Latitude: 50.09, Infected: 10},
		{Name: "Betaburg", Population: 5000, Longitude: 16.61, Latitude: 49.19},
	}

	matrix := [][]float64{
		{0, 50},
		{20, 0},
	}

	return towns, matrix
}
