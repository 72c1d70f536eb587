package main

import (
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/gwillem/armsim/pkg/robot"
)

type Options struct {
	Config  string `long:"config" default:"armsim.json" description:"Configuration file"`
	LogFile string `long:"log-file" description:"Write debug logs to this file"`

	Setup SetupCommand `command:"setup" description:"Scan for a servo rig and calibrate it"`
	Run   RunCommand   `command:"run" description:"Start the simulator (manual control and programs)"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "armsim - rail arm simulator with a program runner"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

// setupLogging sends logrus output to --log-file, or discards it when the
// terminal is owned by a TUI.
func setupLogging(tui bool) (func(), error) {
	if opts.LogFile == "" {
		if tui {
			logrus.SetOutput(io.Discard)
		}
		return func() {}, nil
	}

	f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	logrus.SetOutput(f)
	logrus.SetFormatter(&logrus.JSONFormatter{})
	if logrus.GetLevel() < logrus.DebugLevel && os.Getenv("LOG_LEVEL") == "" {
		logrus.SetLevel(logrus.DebugLevel)
	}
	return func() { f.Close() }, nil
}

func loadConfig() (*robot.Config, error) {
	return robot.LoadConfigOrDefault(opts.Config)
}
