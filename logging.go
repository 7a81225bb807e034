package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

// logg is the process-wide logger. The zero configuration works for
// tests; main calls initLogger after the environment is loaded.
var logg = logrus.New()

func initLogger() {
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logg.SetLevel(level)
}
