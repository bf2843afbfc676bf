package main

import (
	"os"

	"taxi-insights-api/cmd/insights/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
