// Copyright 2014-2026 the variableserver authors.
package vslog

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// sink is anything that can take a fully formatted log line, satisfied by
// *log.Logger and *Ring.
type sink interface {
	Println(...interface{})
}

// filterSet is a small ordered set of substrings; a line containing any of
// them is dropped before it reaches the sink.
type filterSet struct {
	terms []string
}

func (f *filterSet) add(term string) bool {
	for _, t := range f.terms {
		if t == term {
			return false
		}
	}
	f.terms = append(f.terms, term)
	return true
}

func (f *filterSet) remove(term string) bool {
	for i, t := range f.terms {
		if t == term {
			f.terms = append(f.terms[:i], f.terms[i+1:]...)
			return true
		}
	}
	return false
}

func (f *filterSet) list() []string {
	out := make([]string, len(f.terms))
	copy(out, f.terms)
	return out
}

func (f *filterSet) matches(line string) bool {
	for _, t := range f.terms {
		if strings.Contains(line, t) {
			return true
		}
	}
	return false
}

// vslogger pairs a sink with the minimum level it accepts and whether it
// should ANSI-colorize the level tag.
type vslogger struct {
	out   sink
	Level Level
	Color bool

	filters filterSet
}

// callSite walks up skip frames and returns "file.go:line", trimmed to the
// base filename.
func callSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "???"
	}
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		file = file[idx+1:]
	}
	return file + ":" + strconv.Itoa(line)
}

// format builds a complete log line: "[color]LEVEL tag: message[reset]".
// name identifies the message's origin explicitly (a session id, say); an
// empty name falls back to the call site four frames up, which lands on
// the package-level Debug/Info/Warn/Error/Fatal wrapper's caller.
func (l *vslogger) format(level Level, name, body string) string {
	var b strings.Builder

	if l.Color {
		b.WriteString(colorLine)
	}
	b.WriteString(strings.ToUpper(level.String()))
	b.WriteByte(' ')
	if l.Color {
		b.WriteString(colorFor(level))
	}

	if name != "" {
		b.WriteString(name)
	} else {
		b.WriteString(callSite(5))
	}
	b.WriteString(": ")
	b.WriteString(body)

	if l.Color {
		b.WriteString(Reset)
	}
	return b.String()
}

func (l *vslogger) emit(level Level, name, line string) {
	if l.filters.matches(line) {
		return
	}
	l.out.Println(line)
}

func (l *vslogger) log(level Level, name, format string, arg ...interface{}) {
	l.emit(level, name, l.format(level, name, fmt.Sprintf(format, arg...)))
}

func (l *vslogger) logln(level Level, name string, arg ...interface{}) {
	l.emit(level, name, l.format(level, name, fmt.Sprint(arg...)))
}
