package proxy

import (
	"strings"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(&strings.Builder{})
	return l.WithField("test", true)
}

func newFixedReader(s string) *strings.Reader {
	return strings.NewReader(s)
}
