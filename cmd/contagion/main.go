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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bvinc/go-sqlite-lite/sqlite3"
	"github.com/logrusorgru/aurora"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"contagion/pkg/data"
	"contagion/pkg/model"
	"contagion/pkg/simulator"
)

var (
	startRunning = time.Now()
	au           = aurora.NewAurora(true)

	scenarioFile = flag.String("scenario", "", "Path to a YAML scenario file. When given, it replaces the parameter flags below.")
	townsFile    = flag.String("towns", "", "Path to the town population CSV (name,population,longitude,latitude,infected). Runs a built-in two-town demo when empty.")
	matrixFile   = flag.String("matrix", "", "Path to the square migration matrix CSV (header row of town names).")

	virusName      = flag.String("virus", "SARS-CoV2", "Virus preset to simulate")
	minInhabitants = flag.Int("minInhabitants", 20000, "Towns at or below this population are dropped from the simulation")
	simulationDays = flag.Int("simulationDays", 120, "Number of days to simulate")
	nProcesses     = flag.Int("nProcesses", 4, "Number of parallel town workers")
	seed           = flag.Int64("seed", 42, "Base random seed; fixed seeds reproduce runs exactly")

	meanPeriodic       = flag.Float64("meanPeriodicInteractions", 2, "Mean recurring (household-like) contacts per individual per day")
	meanStochastic     = flag.Float64("meanStochasticInteractions", 5, "Mean random contacts per individual per day")
	periodicRecurrence = flag.Float64("periodicRecurrence", 1, "Daily probability that a periodic contact actually meets")

	transmissionProbability   = flag.Float64("transmissionProbability", -1, "Override the preset's per-contact transmission probability (negative keeps the preset)")
	infectiousStart           = flag.Float64("infectiousStart", -1, "Override the preset's mean exposed-to-infectious delay in days (negative keeps the preset)")
	infectiousDaysMean        = flag.Float64("infectiousDaysMean", -1, "Override the preset's mean infectious duration in days (negative keeps the preset)")
	infectiousDaysStd         = flag.Float64("infectiousDaysStd", -1, "Override the preset's infectious duration standard deviation (negative keeps the preset)")
	hospitalizationStart      = flag.Float64("hospitalizationStart", -1, "Override the preset's days from infectious onset to the hospitalization decision (negative keeps the preset)")
	hospitalizationPercentage = flag.Float64("hospitalizationPercentage", -1, "Override the preset's hospitalization probability (negative keeps the preset)")

	resultsFile = flag.String("resultsFile", "", "Write the per-town day series to this JSON file")
	dbFile      = flag.String("dbFile", "contagion.db", "SQLite file for stored runs")
	storeRun    = flag.Bool("storeRun", true, "Store run results in the SQLite database")
	showReport  = flag.Bool("showReport", true, "Print the per-town summary report")
)

func main() {
	flag.Parse()

	logger := newLogger(os.Stderr)
	defer logger.Sync()

	scenario, err := buildScenario()
	if err != nil {
		logger.Fatalw("loading scenario", "error", err)
	}

	virus, err := scenario.VirusConfig()
	if err != nil {
		logger.Fatalw("resolving virus configuration", "error", err)
	}

	records, names, flows, err := loadInputs(scenario)
	if err != nil {
		logger.Fatalw("loading input data", "error", err)
	}

	matrix, err := model.NewMatrix(names, flows)
	if err != nil {
		logger.Fatalw("building migration matrix", "error", err)
	}

	towns := data.BuildTowns(records, virus, scenario.ContactConfig(), scenario.Seed)

	scheduler, err := simulator.NewScheduler(towns, matrix, simulator.Config{
		Days:    scenario.SimulationDays,
		Workers: scenario.NProcesses,
		Seed:    scenario.Seed,
	}, logger)
	if err != nil {
		logger.Fatalw("building scheduler", "error", err)
	}

	fmt.Print("Running simulation ... ")

	result, err := scheduler.Run(context.Background())
	if err != nil {
		logger.Fatalw("simulation aborted", "error", err)
	}

	if *storeRun {
		conn, err := sqlite3.Open(*dbFile)
		if err != nil {
			logger.Fatalw("opening run database", "error", err)
		}
		defer conn.Close()

		simulationRunId, err := data.NewRunStore(conn).Store(result, scenario, virus)
		if err != nil {
			logger.Errorw("storing run", "error", err)
		} else {
			fmt.Printf("#%d ", au.Bold(simulationRunId))
		}
	}

	if scenario.ResultsFile != "" {
		if err := data.WriteResults(scenario.ResultsFile, result); err != nil {
			logger.Errorw("writing results file", "error", err)
		}
	}

	if *showReport {
		report(result, os.Stdout)
	}
}

func buildScenario() (data.Scenario, error) {
	if *scenarioFile != "" {
		return data.LoadScenario(*scenarioFile)
	}

	sc := data.DefaultScenario()
	sc.Virus = *virusName
	sc.MinInhabitants = *minInhabitants
	sc.SimulationDays = *simulationDays
	sc.NProcesses = *nProcesses
	sc.Seed = *seed
	sc.MeanPeriodicInteractions = *meanPeriodic
	sc.MeanStochasticInteractions = *meanStochastic
	sc.PeriodicRecurrence = *periodicRecurrence
	sc.PopulationsFile = *townsFile
	sc.MigrationMatrixFile = *matrixFile
	sc.ResultsFile = *resultsFile

	if *transmissionProbability >= 0 {
		sc.TransmissionProbability = transmissionProbability
	}
	if *infectiousStart >= 0 {
		sc.InfectiousStart = infectiousStart
	}
	if *infectiousDaysMean >= 0 {
		sc.InfectiousDaysMean = infectiousDaysMean
	}
	if *infectiousDaysStd >= 0 {
		sc.InfectiousDaysStd = infectiousDaysStd
	}
	if *hospitalizationStart >= 0 {
		sc.HospitalizationStart = hospitalizationStart
	}
	if *hospitalizationPercentage >= 0 {
		sc.HospitalizationPercentage = hospitalizationPercentage
	}

	return sc, nil
}

func loadInputs(scenario data.Scenario) ([]data.TownRecord, []string, [][]float64, error) {
	if scenario.PopulationsFile == "" {
		records, names, flows := demoInputs()
		return records, names, flows, nil
	}

	records, err := data.LoadTowns(scenario.PopulationsFile)
	if err != nil {
		return nil, nil, nil, err
	}

	names, flows, err := data.LoadMigrationMatrix(scenario.MigrationMatrixFile)
	if err != nil {
		return nil, nil, nil, err
	}

	return data.ApplyFloor(records, names, flows, scenario.MinInhabitants)
}

// demoInputs is a small two-town scenario so the binary does something
// sensible with no input files at all.
func demoInputs() ([]data.TownRecord, []string, [][]float64) {
	records := []data.TownRecord{
		{Name: "Alphaville", Population: 10000, Longitude: 14.42, Latitude: 50.09, Infected: 10},
		{Name: "Betaburg", Population: 5000, Longitude: 16.61, Latitude: 49.19},
	}

	return records, []string{"Alphaville", "Betaburg"}, [][]float64{
		{0, 50},
		{20, 0},
	}
}

func report(result *simulator.Result, writer io.Writer) {
	printer := message.NewPrinter(language.AmericanEnglish)

	fmt.Fprintf(writer,
		"%5s      %14s %-10s    %15s %-10s\n\n",
		au.Bold("Done."),
		au.Cyan("Running time:"),
		time.Since(startRunning).String(),
		au.Cyan("Simulated days:"),
		printer.Sprintf("%d", daysSimulated(result)),
	)

	fmt.Fprintln(writer, au.BgGreen(fmt.Sprintf(
		"%-24s %12s %12s %12s %12s %12s %12s %12s",
		"Town", "Population", "Susceptible", "Exposed", "Infectious", "Hospitalized", "Recovered", "Peak Inf.",
	)).Bold())

	for _, series := range result.Towns {
		if series.Days() == 0 {
			continue
		}

		final := series.Census(series.Days() - 1)

		peak := 0
		for d := 0; d < series.Days(); d++ {
			if inf := series.Infectious[d] + series.Hospitalized[d]; inf > peak {
				peak = inf
			}
		}

		fmt.Fprintln(writer, printer.Sprintf(
			"%-24s %12d %12d %12d %12d %12d %12d %12d",
			series.Name,
			series.Size,
			final.Susceptible,
			final.Exposed,
			final.Infectious,
			final.Hospitalized,
			final.Recovered,
			peak,
		))
	}

	fmt.Fprint(writer, "\n")
}

func daysSimulated(result *simulator.Result) int {
	if len(result.Towns) == 0 {
		return 0
	}

	return result.Towns[0].Days()
}

func newLogger(sink io.Writer) *zap.SugaredLogger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(sink),
		zap.InfoLevel,
	)

	return zap.New(core).Named("contagion").Sugar()
}
