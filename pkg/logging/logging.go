// Package logging configures the shared logrus logger.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// log is the global logger
var log = logrus.New()

// base is the output without any file tee
var base io.Writer = os.Stderr

func init() {
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true, QuoteEmptyFields: true}
	log.Out = os.Stderr
	log.Level = logrus.InfoLevel
}

// SetLevel sets the log level for the application
func SetLevel(level logrus.Level) {
	log.SetLevel(level)
}

// SetOutput replaces the logger output
func SetOutput(w io.Writer) {
	base = w
	log.SetOutput(w)
}

// TeeToFile additionally writes log lines to a file in dir. Closing the
// returned closer restores the previous output.
func TeeToFile(dir, name string) (io.Closer, error) {
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(base, f))
	return &tee{f: f}, nil
}

type tee struct {
	f *os.File
}

func (t *tee) Close() error {
	log.SetOutput(base)
	return t.f.Close()
}

// GetLogger returns a logger scoped to a component
func GetLogger(component string) *logrus.Entry {
	return log.WithField("component", component)
}
