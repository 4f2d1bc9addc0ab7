// Package xlog centralizes this module's logrus configuration so every
// component logs through the same formatter and field conventions,
// mirroring the teacher's own habit of a small internal helper package
// rather than each file configuring logging itself.
package xlog

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	once sync.Once
	base *logrus.Logger
)

func root() *logrus.Logger {
	once.Do(func() {
		base = logrus.New()
		base.SetOutput(os.Stderr)
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		base.SetLevel(logrus.InfoLevel)
	})
	return base
}

// SetLevel adjusts the process-wide log level, e.g. from a Config field.
func SetLevel(level logrus.Level) { root().SetLevel(level) }

// Component returns a logger entry tagged with component=name, the
// convention every package in this module uses to identify its log lines
// (transport, kex, auth, channel, ssh, sftp).
func Component(name string) *logrus.Entry {
	return root().WithField("component", name)
}
