// Copyright 2014-2026 the variableserver authors.
package main

import (
	"fmt"
	"strings"

	"github.com/nasa-trick/variableserver/internal/varserver"
)

// Render formats a Frame the way an operator would want to read it at an
// interactive prompt, dispatching on the message id the way the server's
// own frame.go constants name them.
func Render(f *Frame) string {
	switch f.ID {
	case varserver.MsgValue:
		if len(f.Fields) == 0 {
			return "(value) <empty>"
		}
		return fmt.Sprintf("(value @%s) %s", f.Fields[0], strings.Join(f.Fields[1:], "\t"))

	case varserver.MsgSIE:
		return fmt.Sprintf("(sie) %s", strings.Join(f.Fields, "  "))

	case varserver.MsgList:
		return fmt.Sprintf("(list) %s", strings.Join(f.Fields, "  "))

	case varserver.MsgDiagnostic:
		return fmt.Sprintf("! %s", strings.Join(f.Fields, " "))

	case varserver.MsgStdio:
		return fmt.Sprintf("| %s", strings.Join(f.Fields, " "))

	default:
		return fmt.Sprintf("(unknown id=%d) %s", f.ID, strings.Join(f.Fields, "\t"))
	}
}
