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

// language=sql
var Schema = `create table if not exists simulation_runs
(
    id                           integer primary key, -- aliases to rowid

    recorded                     text        not null,

    virus                        text        not null,
    seed                         big integer not null,
    simulation_days              big integer not null,
    n_processes                  big integer not null,
    min_inhabitants              big integer not null,

    mean_periodic_interactions   real        not null,
    mean_stochastic_interactions real        not null,
    transmission_probability     real        not null,
    infectious_start             real        not null,
    infectious_days_mean         real        not null,
    infectious_days_std          real        not null,
    hospitalization_start        real        not null,
    hospitalization_percentage   real        not null
);

create table if not exists towns
(
    id                integer primary key, -- aliases to rowid
    name              text        not null,
    size              big integer not null,
    longitude         real        not null,
    latitude          real        not null,

    simulation_run_id integer     not null references simulation_runs (id)
);
create unique index if not exists town_once_per_run on towns (name, simulation_run_id);

create table if not exists town_days
(
    id                integer primary key, -- aliases to rowid
    day               big integer not null,

    susceptible       big integer not null,
    exposed           big integer not null,
    infectious        big integer not null,
    hospitalized      big integer not null,
    recovered         big integer not null,
    new_cases         big integer not null,

    town_id           integer     not null references towns (id),
    simulation_run_id integer     not null references simulation_runs (id)
);
create unique index if not exists town_day_once_per_run on town_days (town_id, day, simulation_run_id);
`
