// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package log

import (
	"bytes"
	"fmt"
	"io"
	stdlog "log"
	"sync"
)

// Logger is a structured logger taking alternating key/value pairs.
type Logger interface {
	Log(level Level, keyvals ...interface{}) error
}

type stdLogger struct {
	log  *stdlog.Logger
	pool *sync.Pool
}

// NewStdLogger returns a Logger writing key=value lines to w.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{
		log: stdlog.New(w, "", stdlog.LstdFlags),
		pool: &sync.Pool{
			New: func() interface{} {
				return new(bytes.Buffer)
			},
		},
	}
}

// Log prints the keyvals to the underlying writer.
func (l *stdLogger) Log(level Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 {
		return nil
	}
	if (len(keyvals) & 1) == 1 {
		keyvals = append(keyvals, "KEYVALS UNPAIRED")
	}

	buf := l.pool.Get().(*bytes.Buffer)
	buf.WriteString(level.String())
	for i := 0; i < len(keyvals); i += 2 {
		_, _ = fmt.Fprintf(buf, " %s=%v", keyvals[i], keyvals[i+1])
	}
	_ = l.log.Output(4, buf.String())
	buf.Reset()
	l.pool.Put(buf)
	return nil
}
