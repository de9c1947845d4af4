// Package nlog is a small leveled logger: a severity character, a
// microsecond timestamp, and the caller's file:line, written through a
// single mutex-guarded writer. It does not rotate log files; a single
// kvstore process has no multi-subsystem log-volume problem to solve.
package nlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

const sevChar = "IWE"

var (
	mu  sync.Mutex
	out io.Writer = os.Stderr
)

// SetOutput redirects all log output.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

func log(sev severity, depth int, format string, args ...any) {
	line := header(sev, depth+2)
	if format == "" {
		line += fmt.Sprintln(args...)
	} else {
		line += fmt.Sprintf(format, args...)
		if n := len(line); n == 0 || line[n-1] != '\n' {
			line += "\n"
		}
	}
	mu.Lock()
	io.WriteString(out, line)
	mu.Unlock()
}

func header(sev severity, depth int) string {
	_, fn, ln, ok := runtime.Caller(depth + 1)
	if !ok {
		fn, ln = "???", 0
	} else {
		fn = filepath.Base(fn)
	}
	now := time.Now()
	return string(sevChar[sev]) + " " + now.Format("15:04:05.000000") + " " + fn + ":" + strconv.Itoa(ln) + " "
}

func InfoDepth(depth int, args ...any)    { log(sevInfo, depth, "", args...) }
func Infoln(args ...any)                  { log(sevInfo, 0, "", args...) }
func Infof(format string, args ...any)    { log(sevInfo, 0, format, args...) }
func Warningln(args ...any)               { log(sevWarn, 0, "", args...) }
func Warningf(format string, args ...any) { log(sevWarn, 0, format, args...) }
func ErrorDepth(depth int, args ...any)   { log(sevErr, depth, "", args...) }
func Errorln(args ...any)                 { log(sevErr, 0, "", args...) }
func Errorf(format string, args ...any)   { log(sevErr, 0, format, args...) }
