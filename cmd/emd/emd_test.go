package main

import (
	"flag"
	"io/ioutil"
	"os"
	"testing"

	"github.com/google/go-cmdtest"
	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
)

var update = flag.Bool("update", false, "update test files with results")

func TestCLI(t *testing.T) {
	ts, err := cmdtest.Read("testdata")
	if err != nil {
		t.Fatal(err)
	}
	// keep the user's own config and identity out of the results
	homedir.DisableCache = true
	os.Setenv("HOME", t.TempDir())
	os.Setenv("EMD_AUTHOR", "tester")
	os.Setenv("EMD_PROGRAM", "emd")
	log.SetOutput(ioutil.Discard)

	ts.Commands["emd"] = cmdtest.InProcessProgram("emd", run)
	ts.Run(t, *update)
}
