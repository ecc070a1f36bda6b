package main

import (
	cmd "github.com/geolit/geolit/cmd/geolit"
	"github.com/geolit/geolit/internal"
)

var log = internal.GetLogger()

func main() {
	log.Info("Starting geolit")
	cmd.Execute()
}
