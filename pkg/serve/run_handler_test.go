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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sclevine/spec"
	"github.com/sclevine/spec/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contagion/pkg/data"
	"contagion/pkg/simulator"
)

func TestRunHandler(t *testing.T) {
	spec.Run(t, "RunHandler", testRunHandler, spec.Report(report.Terminal{}))
}

func postRun(t *testing.T, body *bytes.Buffer) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest("POST", "/run", body)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/run", RunHandler)

	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, req)

	return recorder
}

func testRunHandler(t *testing.T, describe spec.G, it spec.S) {
	describe("with an empty body", func() {
		var recorder *httptest.ResponseRecorder

		it.Before(func() {
			recorder = postRun(t, new(bytes.Buffer))
		})

		it("has status 200 OK", func() {
			assert.Equal(t, http.StatusOK, recorder.Code)
		})

		it("sets the content-type to JSON", func() {
			assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
		})

		it("runs the demonstration scenario", func() {
			var result simulator.Result
			err := json.NewDecoder(recorder.Result().Body).Decode(&result)
			require.NoError(t, err)

			require.Len(t, result.Towns, 2)
			assert.Equal(t, "Alphaville", result.Towns[0].Name)
			assert.Equal(t, "Betaburg", result.Towns[1].Name)
			assert.Equal(t, 60, result.Towns[0].Days())
		})
	})

	describe("with an inline scenario", func() {
		var recorder *httptest.ResponseRecorder

		it.Before(func() {
			runRequest := &RunRequest{
				Scenario: data.DefaultScenario(),
				Towns: []data.TownRecord{
					{Name: "Alphaville", Population: 500, Infected: 5},
					{Name: "Betaburg", Population: 300},
				},
				Matrix: [][]float64{
					{0, 10},
					{5, 0},
				},
			}
			runRequest.Scenario.MinInhabitants = 0
			runRequest.Scenario.SimulationDays = 20

			reqBody := new(bytes.Buffer)
			require.NoError(t, json.NewEncoder(reqBody).Encode(runRequest))

			recorder = postRun(t, reqBody)
		})

		it("has status 200 OK", func() {
			assert.Equal(t, http.StatusOK, recorder.Code)
		})

		it("simulates the submitted towns for the requested days", func() {
			var result simulator.Result
			require.NoError(t, json.NewDecoder(recorder.Result().Body).Decode(&result))

			require.Len(t, result.Towns, 2)
			for _, series := range result.Towns {
				assert.Equal(t, 20, series.Days())
				assert.Equal(t, series.Size, series.Census(0).Total())
			}
		})
	})

	describe("with bad input", func() {
		it("rejects malformed JSON", func() {
			recorder := postRun(t, bytes.NewBufferString("{nope"))
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})

		it("rejects a matrix that does not match the towns", func() {
			runRequest := &RunRequest{
				Scenario: data.DefaultScenario(),
				Towns: []data.TownRecord{
					{Name: "Alphaville", Population: 500, Infected: 5},
				},
				Matrix: [][]float64{
					{0, 10},
					{5, 0},
				},
			}
			runRequest.Scenario.MinInhabitants = 0

			reqBody := new(bytes.Buffer)
			require.NoError(t, json.NewEncoder(reqBody).Encode(runRequest))

			recorder := postRun(t, reqBody)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})

		it("rejects an unknown virus preset", func() {
			runRequest := &RunRequest{
				Scenario: data.DefaultScenario(),
				Towns: []data.TownRecord{
					{Name: "Alphaville", Population: 500, Infected: 5},
				},
				Matrix: [][]float64{{0}},
			}
			runRequest.Scenario.Virus = "common cold"
			runRequest.Scenario.MinInhabitants = 0

			reqBody := new(bytes.Buffer)
			require.NoError(t, json.NewEncoder(reqBody).Encode(runRequest))

			recorder := postRun(t, reqBody)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	})
}
