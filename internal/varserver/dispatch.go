// Copyright 2014-2026 the variableserver authors.
package varserver

import (
	"fmt"

	"github.com/nasa-trick/variableserver/internal/vscmd"
	"github.com/nasa-trick/variableserver/pkg/vslog"
)

// HandleMessage reads one command from the session's connection and
// dispatches it. It returns (1, nil) on a normally processed command,
// (0, nil) on a parse error (a diagnostic frame was sent, the session
// continues), and (-1, nil) on peer close, matching spec.md §4.4's
// handleMessage return convention. A non-nil error means the connection
// read failed or the diagnostic or value frame itself failed to write, which
// the thread treats as an abnormal exit (ConnectionError).
func (s *Session) HandleMessage() (int, error) {
	line, n := s.conn.ReadLine()
	if n == 0 {
		return -1, nil
	}
	if n < 0 {
		return -1, fmt.Errorf("varserver: connection read failed")
	}
	if line == "" {
		return 1, nil
	}

	cmd, err := vscmd.Parse(line)
	if err != nil {
		if werr := s.diagnostic(fmt.Sprintf("parse error: %v", err)); werr != nil {
			return -1, werr
		}
		return 0, nil
	}

	if err := s.dispatch(cmd); err != nil {
		if werr := s.diagnostic(err.Error()); werr != nil {
			return -1, werr
		}
		return 0, nil
	}

	return 1, nil
}

// dispatch looks up cmd.Verb in the static verb table and invokes the
// matching Session method. Unknown verbs are silently ignored, per
// spec.md §6.
func (s *Session) dispatch(cmd *vscmd.Command) error {
	switch cmd.Verb {
	case "trick.var_add":
		if len(cmd.Args) < 1 {
			return fmt.Errorf("var_add: expected a name argument")
		}
		if err := s.Add(cmd.Args[0].String()); err != nil {
			return err
		}
		if len(cmd.Args) >= 2 {
			s.Units(cmd.Args[0].String(), cmd.Args[1].String())
		}

	case "trick.var_remove":
		if len(cmd.Args) < 1 {
			return fmt.Errorf("var_remove: expected a name argument")
		}
		s.Remove(cmd.Args[0].String())

	case "trick.var_exit":
		s.Exit()

	case "trick.var_units":
		if len(cmd.Args) < 2 {
			return fmt.Errorf("var_units: expected name and units")
		}
		s.Units(cmd.Args[0].String(), cmd.Args[1].String())

	case "trick.var_send":
		return s.Send()

	case "trick.var_pause":
		s.Pause()

	case "trick.var_unpause":
		s.Unpause()

	case "trick.var_set_copy_mode":
		n, err := argInt(cmd, 0)
		if err != nil {
			return err
		}
		s.SetCopyMode(CopyMode(n))

	case "trick.var_set_write_mode":
		n, err := argInt(cmd, 0)
		if err != nil {
			return err
		}
		s.SetWriteMode(WriteMode(n))

	case "trick.var_set_frame_multiple":
		n, err := argInt(cmd, 0)
		if err != nil {
			return err
		}
		s.SetFrameMultiple(uint64(n))

	case "trick.var_set_frame_offset":
		n, err := argInt(cmd, 0)
		if err != nil {
			return err
		}
		s.SetFrameOffset(uint64(n))

	case "trick.var_set_freeze_frame_multiple":
		n, err := argInt(cmd, 0)
		if err != nil {
			return err
		}
		s.SetFreezeFrameMultiple(uint64(n))

	case "trick.var_set_freeze_frame_offset":
		n, err := argInt(cmd, 0)
		if err != nil {
			return err
		}
		s.SetFreezeFrameOffset(uint64(n))

	case "trick.var_set_update_rate":
		f, err := argFloat(cmd, 0)
		if err != nil {
			return err
		}
		s.SetUpdateRate(f)

	case "trick.var_set_binary_format":
		on, err := argBool(cmd, 0)
		if err != nil {
			return err
		}
		nonames := false
		if len(cmd.Args) > 1 {
			nonames, err = cmd.Args[1].Bool()
			if err != nil {
				return err
			}
		}
		s.SetBinaryFormat(on, nonames)

	case "trick.var_set_byteswap":
		on, err := argBool(cmd, 0)
		if err != nil {
			return err
		}
		s.SetByteswap(on)

	case "trick.var_validate_address":
		on, err := argBool(cmd, 0)
		if err != nil {
			return err
		}
		s.SetValidateAddress(on)

	case "trick.var_log_on":
		s.LogOn()

	case "trick.var_log_off":
		s.LogOff()

	case "trick.var_send_stdio":
		on, err := argBool(cmd, 0)
		if err != nil {
			return err
		}
		s.SetSendStdio(on)

	case "trick.var_list":
		return s.VarList()

	case "trick.var_set_client_tag":
		if len(cmd.Args) < 1 {
			return fmt.Errorf("var_set_client_tag: expected a tag argument")
		}
		s.SetClientTag(cmd.Args[0].String())

	default:
		if len(cmd.Verb) >= len("trick.var_send_sie") && cmd.Verb[:len("trick.var_send_sie")] == "trick.var_send_sie" {
			return s.SendSIE()
		}
		vslog.Debug("varserver: ignoring unknown command %q", cmd.Verb)
	}

	return nil
}

func argInt(cmd *vscmd.Command, i int) (int, error) {
	if len(cmd.Args) <= i {
		return 0, fmt.Errorf("%s: expected argument %d", cmd.Verb, i)
	}
	return cmd.Args[i].Int()
}

func argFloat(cmd *vscmd.Command, i int) (float64, error) {
	if len(cmd.Args) <= i {
		return 0, fmt.Errorf("%s: expected argument %d", cmd.Verb, i)
	}
	return cmd.Args[i].Float()
}

func argBool(cmd *vscmd.Command, i int) (bool, error) {
	if len(cmd.Args) <= i {
		return false, fmt.Errorf("%s: expected argument %d", cmd.Verb, i)
	}
	return cmd.Args[i].Bool()
}
