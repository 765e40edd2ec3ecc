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
	"path/filepath"
	"testing"
	"time"

	"github.com/bvinc/go-sqlite-lite/sqlite3"
	"github.com/sclevine/spec"
	"github.com/sclevine/spec/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contagion/pkg/model"
	"contagion/pkg/simulator"
)

func TestRunStore(t *testing.T) {
	spec.Run(t, "RunStore", testStorer, spec.Report(report.Terminal{}))
}

func storedResult() *simulator.Result {
	return &simulator.Result{
		Towns: []*simulator.TownSeries{
			{
				Name:           "Alphaville",
				Size:           100,
				Longitude:      14.42,
				Latitude:       50.09,
				SimulationDays: []int{0, 1},
				Susceptible:    []int{90, 85},
				Exposed:        []int{0, 5},
				Infectious:     []int{10, 10},
				Hospitalized:   []int{0, 0},
				Recovered:      []int{0, 0},
				NewCases:       []int{0, 5},
			},
			{
				Name:           "Betaburg",
				Size:           50,
				Longitude:      16.61,
				Latitude:       49.19,
				SimulationDays: []int{0, 1},
				Susceptible:    []int{50, 50},
				Exposed:        []int{0, 0},
				Infectious:     []int{0, 0},
				Hospitalized:   []int{0, 0},
				Recovered:      []int{0, 0},
				NewCases:       []int{0, 0},
			},
		},
	}
}

func testStorer(t *testing.T, describe spec.G, it spec.S) {
	var subject RunStore
	var scenario Scenario
	var virus model.VirusConfig

	it.Before(func() {
		scenario = DefaultScenario()
		scenario.SimulationDays = 2

		var err error
		virus, err = scenario.VirusConfig()
		require.NoError(t, err)
	})

	describe("Store()", func() {
		var conn *sqlite3.Conn
		var simulationRunId int64
		var err error

		it.Before(func() {
			dbPath := filepath.Join(t.TempDir(), "contagion_test.db")

			conn, err = sqlite3.Open(dbPath)
			assert.NoError(t, err)
			assert.NotNil(t, conn)

			subject = NewRunStore(conn)

			simulationRunId, err = subject.Store(storedResult(), scenario, virus)
			assert.NoError(t, err)
		})

		it("returns the simulation_run ID", func() {
			assert.Equal(t, int64(1), simulationRunId)
		})

		describe("simulation run metadata", func() {
			var recorded, virusName string
			var count int
			var days, seed int64

			it.Before(func() {
				singleQuery(t, conn, `select recorded, virus, simulation_days, seed from simulation_runs`, &recorded, &virusName, &days, &seed)
				singleQuery(t, conn, `select count(1) from simulation_runs`, &count)
			})

			it("inserts a record", func() {
				assert.Equal(t, 1, count)
			})

			it("records a timestamp", func() {
				_, parseErr := time.Parse(time.RFC3339, recorded)
				assert.NoError(t, parseErr)
			})

			it("records the virus name", func() {
				assert.Equal(t, "SARS-CoV2", virusName)
			})

			it("records the day count and seed", func() {
				assert.Equal(t, int64(2), days)
				assert.Equal(t, int64(42), seed)
			})
		})

		describe("virus parameters", func() {
			var transmission, hospPercentage float64

			it.Before(func() {
				singleQuery(t, conn, `select transmission_probability, hospitalization_percentage from simulation_runs`, &transmission, &hospPercentage)
			})

			it("records the resolved preset values", func() {
				assert.Equal(t, 0.02, transmission)
				assert.Equal(t, 0.05, hospPercentage)
			})
		})

		describe("town records", func() {
			var townCount, size int
			var name string
			var longitude float64

			it.Before(func() {
				singleQuery(t, conn, `select count(1) from towns`, &townCount)
				singleQuery(t, conn, `select name, size, longitude from towns order by id limit 1`, &name, &size, &longitude)
			})

			it("inserts one row per town", func() {
				assert.Equal(t, 2, townCount)
			})

			it("records the town's identity", func() {
				assert.Equal(t, "Alphaville", name)
				assert.Equal(t, 100, size)
				assert.Equal(t, 14.42, longitude)
			})
		})

		describe("town day records", func() {
			var dayCount, susceptible, exposed, newCases int

			it.Before(func() {
				singleQuery(t, conn, `select count(1) from town_days`, &dayCount)
				singleQuery(t, conn, `
					select susceptible, exposed, new_cases
					from town_days
					join towns on towns.id = town_days.town_id
					where towns.name = 'Alphaville' and day = 1`,
					&susceptible, &exposed, &newCases,
				)
			})

			it("inserts one row per town per day", func() {
				assert.Equal(t, 4, dayCount)
			})

			it("records the day's counts", func() {
				assert.Equal(t, 85, susceptible)
				assert.Equal(t, 5, exposed)
				assert.Equal(t, 5, newCases)
			})
		})

		describe("canned queries", func() {
			it("replays the series per town in name and day order", func() {
				stmt, err := conn.Prepare(TownSeriesQuery, simulationRunId)
				require.NoError(t, err)
				defer stmt.Close()

				var names []string
				var days []int
				for {
					hasRow, err := stmt.Step()
					require.NoError(t, err)
					if !hasRow {
						break
					}

					var name string
					var day, s, e, i, h, r, n int
					require.NoError(t, stmt.Scan(&name, &day, &s, &e, &i, &h, &r, &n))
					names = append(names, name)
					days = append(days, day)
				}

				assert.Equal(t, []string{"Alphaville", "Alphaville", "Betaburg", "Betaburg"}, names)
				assert.Equal(t, []int{0, 1, 0, 1}, days)
			})

			it("sums national totals by day", func() {
				stmt, err := conn.Prepare(NationalTotalsQuery, simulationRunId)
				require.NoError(t, err)
				defer stmt.Close()

				hasRow, err := stmt.Step()
				require.NoError(t, err)
				require.True(t, hasRow)

				var day, susceptible, exposed, infectious, hospitalized, recovered, newCases int
				require.NoError(t, stmt.Scan(&day, &susceptible, &exposed, &infectious, &hospitalized, &recovered, &newCases))

				assert.Equal(t, 0, day)
				assert.Equal(t, 140, susceptible)
				assert.Equal(t, 10, infectious)
			})

			it("finds each town's infectious peak", func() {
				stmt, err := conn.Prepare(PeakInfectiousQuery, simulationRunId)
				require.NoError(t, err)
				defer stmt.Close()

				peaks := map[string]int{}
				for {
					hasRow, err := stmt.Step()
					require.NoError(t, err)
					if !hasRow {
						break
					}

					var name string
					var peak int
					require.NoError(t, stmt.Scan(&name, &peak))
					peaks[name] = peak
				}

				assert.Equal(t, map[string]int{"Alphaville": 10, "Betaburg": 0}, peaks)
			})
		})

		describe("a second run in the same database", func() {
			it("gets its own run ID and rows", func() {
				secondId, err := subject.Store(storedResult(), scenario, virus)
				require.NoError(t, err)
				assert.Equal(t, simulationRunId+1, secondId)

				var townCount int
				singleQuery(t, conn, `select count(1) from towns`, &townCount)
				assert.Equal(t, 4, townCount)
			})
		})
	})
}

func singleQuery(t *testing.T, conn *sqlite3.Conn, sql string, scanDst ...interface{}) {
	selectStmt, err := conn.Prepare(sql)
	require.NoError(t, err)

	hasResult, err := selectStmt.Step()
	require.True(t, hasResult)
	require.NoError(t, err)

	err = selectStmt.Scan(scanDst...)
	require.NoError(t, err)

	err = selectStmt.Close()
	require.NoError(t, err)
}
