// Copyright 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This binary serves tickets for slices of CRAM files stored in GCS.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xsamtools/xsamtools/api"
)

var (
	port = flag.Int("port", 80, "HTTP service port")

	secure    = flag.Bool("secure", false, "serve in HTTPS-only mode and forward client bearer tokens")
	httpsCert = flag.String("https_cert", "", "HTTPS certificate file")
	httpsKey  = flag.String("https_key", "", "HTTPS key file")

	buckets  = flag.String("buckets", "", "if set, restricts reads to a comma-separated list of buckets")
	endpoint = flag.String("storage_endpoint", api.DefaultStorageEndpoint, "base URL of the data URLs handed out in tickets")
	debug    = flag.Bool("debug", false, "run gin in debug mode")
)

func main() {
	flag.Parse()

	if *secure && (*httpsCert == "" || *httpsKey == "") {
		log.Fatalf("You must specify both -https_cert and -https_key in secure mode.")
	}

	newStorageClient := api.NewPublicClient
	if *secure {
		newStorageClient = api.NewClientFromBearerToken
	}

	if !*debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	server := api.NewServer(newStorageClient)
	server.UseEndpoint(*endpoint)
	if *buckets != "" {
		server.Whitelist(strings.Split(*buckets, ","))
	}
	server.Export(router)

	address := fmt.Sprintf(":%d", *port)
	log.Printf("Serving CRAM tickets on %s", address)
	if *secure {
		if err := http.ListenAndServeTLS(address, *httpsCert, *httpsKey, router); err != nil {
			log.Fatalf("HTTPS server returned an error: %v", err)
		}
	} else {
		if err := http.ListenAndServe(address, router); err != nil {
			log.Fatalf("HTTP server returned an error: %v", err)
		}
	}
}
