package main

import (
	"flag"
	"os"

	"github.com/golang/glog"
)

func main() {
	// glog writes to files by default; a CLI wants stderr.
	_ = flag.Set("logtostderr", "true")
	defer glog.Flush()

	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
