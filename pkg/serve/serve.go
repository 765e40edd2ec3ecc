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
	"context"
	"log"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

// ContagionServer runs scenarios on demand over HTTP.
type ContagionServer struct {
	Addr string
	srv  *http.Server
}

func (cs *ContagionServer) Serve() {
	router := chi.NewRouter()
	router.Use(middleware.NoCache)
	router.Use(middleware.Logger)

	router.Mount("/debug", middleware.Profiler())
	router.Method(http.MethodPost, "/run", gziphandler.GzipHandler(http.HandlerFunc(RunHandler)))

	if cs.Addr == "" {
		cs.Addr = "0.0.0.0:3000"
	}

	cs.srv = &http.Server{
		Addr:    cs.Addr,
		Handler: router,
	}

	go func() {
		log.Println("Listening ...")
		log.Fatal(cs.srv.ListenAndServe())
	}()
}

func (cs *ContagionServer) Shutdown() {
	log.Println("Shutting down ...")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := cs.srv.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %s", err.Error())
	}

	log.Println("Done.")
}
