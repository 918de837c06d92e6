// Package obs provides the logging infrastructure shared by every kernel
// component, built on logrus. Error-level entries are routed to stderr and
// everything else to stdout, so container log collectors can apply
// different handling to each stream.
package obs

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
)

// streamSplitter routes formatted log lines to stdout or stderr based on
// their level, without parsing the structured fields themselves.
type streamSplitter struct{}

func (streamSplitter) Write(p []byte) (int, error) {
	if bytes.Contains(p, []byte("level=error")) {
		return os.Stderr.Write(p)
	}
	return os.Stdout.Write(p)
}

// Logger is the process-wide structured logger. Kernel packages log through
// it rather than constructing their own logrus instance, so formatting and
// routing stay consistent across the binary.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(streamSplitter{})
	Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Recover runs fn and logs, rather than propagates, any panic or error it
// produces. Action callbacks, accept loops and keyboard handlers use this to
// honor the "recover at the edges" rule of the error handling design: only
// scheduler tasks are allowed to surface failures to their caller.
func Recover(component string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			Logger.WithField("component", component).Warnf("recovered panic: %v", r)
		}
	}()
	if err := fn(); err != nil {
		Logger.WithField("component", component).Warnf("recovered error: %v", err)
	}
}
