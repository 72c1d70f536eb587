package control

import (
	"os"

	"github.com/sirupsen/logrus"
)

var stdLogger = logrus.StandardLogger()

func init() {
	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err == nil {
		stdLogger.SetLevel(level)
	}
}
