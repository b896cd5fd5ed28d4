// Package xsamtools runs the CRAM ticket server on App Engine.
package xsamtools

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/appengine"

	"github.com/xsamtools/xsamtools/api"
)

func init() {
	router := gin.New()
	router.Use(gin.Recovery())

	server := api.NewServer(newAppEngineClient)
	if list := os.Getenv("BUCKET_WHITELIST"); list != "" {
		server.Whitelist(strings.Split(list, ","))
	}
	if endpoint := os.Getenv("STORAGE_ENDPOINT"); endpoint != "" {
		server.UseEndpoint(endpoint)
	}
	server.Export(router)
	http.Handle("/", router)
}

func newAppEngineClient(req *http.Request) (api.Client, http.Header, error) {
	return api.NewClientFromBearerToken(req.WithContext(appengine.NewContext(req)))
}
