package badgerstore

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v3"
)

// logger adapts a charmbracelet logger to badger.Logger. Badger terminates
// its messages with newlines, which are trimmed.
type logger struct {
	l *log.Logger
}

func newLogger(l *log.Logger) badger.Logger {
	if l == nil {
		return nil
	}
	return &logger{l: l.WithPrefix("badger")}
}

func trim(format string) string { return strings.TrimSuffix(format, "\n") }

func (b *logger) Errorf(format string, args ...any)   { b.l.Errorf(trim(format), args...) }
func (b *logger) Warningf(format string, args ...any) { b.l.Warnf(trim(format), args...) }
func (b *logger) Infof(format string, args ...any)    { b.l.Debugf(trim(format), args...) }
func (b *logger) Debugf(format string, args ...any)   { b.l.Debugf(trim(format), args...) }
