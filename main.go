package main

import (
	"os"

	"github.com/blacktop/threadpost/cmd"
	"github.com/blacktop/threadpost/internal/logutil"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logutil.Errorf("%v", err)
		os.Exit(1)
	}
}
