// Copyright 2014-2026 the variableserver authors.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/nasa-trick/variableserver/pkg/vslog"
)

var (
	f_addr = flag.String("addr", "localhost:9001", "variable server host:port to connect to")
	f_e    = flag.String("e", "", "run a single command against the server and exit")
)

func usage() {
	fmt.Println("varclient, an interactive client for the variable server")
	fmt.Println("usage: varclient [option]...")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	vslog.Init()

	conn, err := Dial(*f_addr)
	if err != nil {
		vslog.Fatal("varclient: dial %v: %v", *f_addr, err)
	}
	defer conn.Close()

	if *f_e != "" {
		runAndPrint(conn, *f_e)
		if err := conn.Error(); err != nil && err != io.EOF {
			vslog.Fatal("varclient: %v", err)
		}
		return
	}

	attach(conn)
}

// runAndPrint sends cmd and prints the first frame read after it. The
// variable server protocol has no "more" flag on an immediate command
// reply (var_list, var_send_sie), so only one frame is read. A command the
// server answers with no frame (var_add, var_pause, ...) leaves it blocked
// until some other frame arrives or the connection closes.
func runAndPrint(conn *Conn, cmd string) {
	if err := conn.Send(cmd); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	f, err := conn.ReadFrame()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(Render(f))
}

// attach creates an interactive CLI against the dialed variable server: a
// liner prompt with history and local shortcut commands, backed by a
// background goroutine that prints server-pushed frames (periodic value
// frames from an active subscription) as they arrive, independent of
// whatever command the user is currently typing.
func attach(conn *Conn) {
	fmt.Println("connected; type trick.var_* commands, 'quit' or ^d to exit")
	fmt.Println()

	input := liner.NewLiner()
	defer input.Close()

	input.SetCtrlCAborts(true)

	go func() {
		for f := range conn.Frames() {
			fmt.Println(Render(f))
		}
	}()

	prompt := fmt.Sprintf("varclient:%v$ ", *f_addr)

	for {
		line, err := input.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			continue
		} else if err == io.EOF {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		input.AppendHistory(line)

		if line == "quit" || line == "disconnect" {
			break
		}

		if err := conn.Send(line); err != nil {
			fmt.Fprintln(os.Stderr, err)
			break
		}

		if err := conn.Error(); err != nil {
			vslog.Errorln(err)
			break
		}
	}
}
