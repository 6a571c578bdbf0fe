// Copyright 2014-2026 the variableserver authors.
package varserver

import (
	"bytes"
	"fmt"
	"time"

	"github.com/nasa-trick/variableserver/internal/vsref"
)

// Message ids used in the ASCII reply header and the binary frame header,
// per spec.md §6.
const (
	MsgValue     = 0
	MsgSIE       = 1
	MsgList      = 2
	MsgDiagnostic = 3
	MsgStdio     = 5
)

// WriteData calls prepareForWrite on every reference; if at least one
// becomes write-ready, it emits one frame (ASCII or binary, depending on
// set_binary_format) preceded by a message-id header. Returns an error on
// send failure, which the owning thread treats as terminal.
func (s *Session) WriteData() error {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	any := false
	for _, e := range s.refs {
		e.ref.PrepareForWrite()
		if e.ref.IsWriteReady() {
			any = true
		}
	}
	if !any {
		return nil
	}

	if s.binaryFormat {
		return s.writeBinaryFrame()
	}
	return s.writeAsciiFrame()
}

func (s *Session) writeAsciiFrame() error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%d\t%d", MsgValue, time.Now().UnixNano())

	for _, e := range s.refs {
		if !e.ref.IsWriteReady() {
			// Nothing newly staged for this reference this cycle; emitting
			// a stale value would mean re-reading write_ready without an
			// intervening stageValue/prepareForWrite, which invariant 2
			// forbids. Skip the column entirely instead.
			continue
		}
		buf.WriteByte('\t')
		if err := e.ref.WriteValueAscii(&buf, vsref.AsciiOpts{}); err != nil {
			return err
		}
	}
	buf.WriteByte('\n')

	_, err := s.conn.Write(buf.Bytes())
	if err == nil && s.metrics != nil {
		s.metrics.FramesSentAscii.Inc()
	}
	return err
}

func (s *Session) writeBinaryFrame() error {
	var body bytes.Buffer
	numVars := uint32(0)

	for _, e := range s.refs {
		if !e.ref.IsWriteReady() {
			continue
		}
		if !s.binaryNoNames {
			if err := vsref.WriteName(&body, e.ref.Name()); err != nil {
				return err
			}
		}
		if err := e.ref.WriteValueBinary(&body, s.byteswap); err != nil {
			return err
		}
		numVars++
	}

	var out bytes.Buffer
	if err := vsref.WriteFrameHeader(&out, MsgValue, uint32(body.Len()), numVars); err != nil {
		return err
	}
	out.Write(body.Bytes())

	_, err := s.conn.Write(out.Bytes())
	if err == nil && s.metrics != nil {
		s.metrics.FramesSentBinary.Inc()
	}
	return err
}

// Send forces one immediate copy+write cycle outside the normal copy/write
// mode scheduling, matching trick's var_send command used to pull a single
// reading (see S1/S2 in spec.md §8).
func (s *Session) Send() error {
	if err := s.CopyDataAsync(); err != nil {
		return err
	}
	return s.WriteData()
}

// diagnostic writes a message-id-3 frame carrying free text, used for
// parser errors and resolve failures.
func (s *Session) diagnostic(text string) error {
	if s.metrics != nil {
		s.metrics.ParseErrors.Inc()
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d\t%s\n", MsgDiagnostic, text)
	_, err := s.conn.Write(buf.Bytes())
	return err
}

// VarList replies with a message-id-2 frame listing every subscribed
// variable's name, declared type and units.
func (s *Session) VarList() error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d\t%d", MsgList, len(s.refs))
	for _, e := range s.refs {
		fmt.Fprintf(&buf, "\t%s,%s,%s", e.ref.Name(), e.ref.Type().Kind, e.units)
	}
	buf.WriteByte('\n')

	_, err := s.conn.Write(buf.Bytes())
	return err
}

// SendSIE replies with a message-id-1 metadata frame describing the
// reference list. This is a small static document, not a full
// simulation-wide schema export (schema evolution is out of scope) -- just
// enough that send_sie_* isn't a silent no-op.
func (s *Session) SendSIE() error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d\t%d", MsgSIE, len(s.refs))
	for _, e := range s.refs {
		fmt.Fprintf(&buf, "\t%s:%s[%d]:%s", e.ref.Name(), e.ref.Type().Kind, e.ref.Count(), e.units)
	}
	buf.WriteByte('\n')

	_, err := s.conn.Write(buf.Bytes())
	return err
}

// SendStdioLine forwards one captured subprocess stdout/stderr line to the
// client as a message-id-5 frame, when send_stdio is enabled.
func (s *Session) SendStdioLine(line string) error {
	if !s.sendStdio {
		return nil
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d\t%s\n", MsgStdio, line)
	_, err := s.conn.Write(buf.Bytes())
	return err
}
