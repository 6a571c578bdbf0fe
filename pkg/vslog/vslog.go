// Copyright 2014-2026 the variableserver authors.

// Package vslog is a small multi-sink leveled logger: any number of named
// loggers can be registered, each with its own minimum level and its own
// writer, and every package-level call (Debug, Info, ...) fans out to all
// of them. A session gets its own named logger via AddLogger/DelLogger so
// its traffic can be tailed independently of the daemon's own log.
package vslog

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	golog "log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

var (
	LevelFlag = flag.String("level", "warn", fmt.Sprintf("set log level: %s", strings.Join(Levels(), ", ")))
	Verbose   = flag.Bool("v", true, "log on stderr")
	File      = flag.String("logfile", "", "also log to file")
)

// registry holds the set of named loggers currently receiving output.
type registry struct {
	mu   sync.RWMutex
	byID map[string]*vslogger
}

func (r *registry) add(name string, l *vslogger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[name] = l
}

func (r *registry) del(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, name)
}

func (r *registry) get(name string) (*vslogger, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byID[name]
	return l, ok
}

func (r *registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byID))
	for k := range r.byID {
		out = append(out, k)
	}
	return out
}

// matching returns a snapshot of every registered logger willing to emit
// at level, so callers can range over it without holding the registry
// lock for the duration of formatting and writing each line.
func (r *registry) matching(level Level) []*vslogger {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*vslogger
	for _, l := range r.byID {
		if l.Level <= level {
			out = append(out, l)
		}
	}
	return out
}

func (r *registry) anyWillLog(level Level) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, l := range r.byID {
		if l.Level <= level {
			return true
		}
	}
	return false
}

var reg = &registry{byID: make(map[string]*vslogger)}

// AddLogger registers a named logger that only emits events at level or
// higher. output may be os.Stderr, os.Stdout, an open file, or a *Ring for
// in-memory tailing.
func AddLogger(name string, output io.Writer, level Level, color bool) {
	reg.add(name, &vslogger{
		out:   golog.New(output, "", golog.LstdFlags),
		Level: level,
		Color: color,
	})
}

// DelLogger removes a named logger added via AddLogger.
func DelLogger(name string) { reg.del(name) }

// Loggers returns the names of every currently registered logger.
func Loggers() []string { return reg.names() }

// WillLog reports whether any registered logger would accept a message at
// level, so an expensive-to-format message can be skipped entirely.
func WillLog(level Level) bool { return reg.anyWillLog(level) }

// SetLevel changes the minimum level for a named logger.
func SetLevel(name string, level Level) error {
	l, ok := reg.get(name)
	if !ok {
		return fmt.Errorf("vslog: no such logger %q", name)
	}
	l.Level = level
	return nil
}

// GetLevel returns the minimum level for a named logger.
func GetLevel(name string) (Level, error) {
	l, ok := reg.get(name)
	if !ok {
		return 0, fmt.Errorf("vslog: no such logger %q", name)
	}
	return l.Level, nil
}

// LogAll reads newline-delimited text from r until EOF, logging each line
// under name at level. It runs in its own goroutine and returns
// immediately; a FATAL level terminates the process after the first line.
func LogAll(r io.Reader, level Level, name string) {
	go func() {
		scan := bufio.NewScanner(r)
		for scan.Scan() {
			if line := strings.TrimSpace(scan.Text()); line != "" {
				log(level, name, line)
			}
			if level == FATAL {
				os.Exit(1)
			}
		}
	}()
}

// Init sets up logging from the LevelFlag/Verbose/File flags; call it after
// flag.Parse(). An unset VARSERVER_LOG_LEVEL environment variable leaves
// LevelFlag's value alone; a set one overrides it, letting a supervised
// daemon raise verbosity without touching its command line.
func Init() {
	levelStr := *LevelFlag
	if env := os.Getenv("VARSERVER_LOG_LEVEL"); env != "" {
		levelStr = env
	}

	level, err := ParseLevel(levelStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	color := runtime.GOOS != "windows"

	if *Verbose {
		AddLogger("stdio", os.Stderr, level, color)
	}

	if *File != "" {
		if err := os.MkdirAll(filepath.Dir(*File), 0755); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		f, err := os.OpenFile(*File, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0660)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		AddLogger("file", f, level, false)
	}
}

func Filters(name string) ([]string, error) {
	l, ok := reg.get(name)
	if !ok {
		return nil, fmt.Errorf("vslog: no such logger %q", name)
	}
	return l.filters.list(), nil
}

func AddFilter(name, term string) error {
	l, ok := reg.get(name)
	if !ok {
		return fmt.Errorf("vslog: no such logger %q", name)
	}
	l.filters.add(term)
	return nil
}

func DelFilter(name, term string) error {
	l, ok := reg.get(name)
	if !ok {
		return fmt.Errorf("vslog: no such logger %q", name)
	}
	if !l.filters.remove(term) {
		return fmt.Errorf("vslog: filter %q not set on %q", term, name)
	}
	return nil
}

func log(level Level, name, format string, arg ...interface{}) {
	for _, l := range reg.matching(level) {
		l.log(level, name, format, arg...)
	}
}

func logln(level Level, name string, arg ...interface{}) {
	for _, l := range reg.matching(level) {
		l.logln(level, name, arg...)
	}
}

func Debug(format string, arg ...interface{}) { log(DEBUG, "", format, arg...) }
func Info(format string, arg ...interface{})  { log(INFO, "", format, arg...) }
func Warn(format string, arg ...interface{})  { log(WARN, "", format, arg...) }
func Error(format string, arg ...interface{}) { log(ERROR, "", format, arg...) }

func Fatal(format string, arg ...interface{}) {
	log(FATAL, "", format, arg...)
	os.Exit(1)
}

func Debugln(arg ...interface{}) { logln(DEBUG, "", arg...) }
func Infoln(arg ...interface{})  { logln(INFO, "", arg...) }
func Warnln(arg ...interface{})  { logln(WARN, "", arg...) }
func Errorln(arg ...interface{}) { logln(ERROR, "", arg...) }

func Fatalln(arg ...interface{}) {
	logln(FATAL, "", arg...)
	os.Exit(1)
}
