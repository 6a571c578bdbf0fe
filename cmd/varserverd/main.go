// Copyright 2014-2026 the variableserver authors.
package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/netutil"

	"github.com/nasa-trick/variableserver/internal/memmgr"
	"github.com/nasa-trick/variableserver/internal/stdiomirror"
	"github.com/nasa-trick/variableserver/internal/varserver"
	"github.com/nasa-trick/variableserver/internal/vsconn"
	"github.com/nasa-trick/variableserver/internal/vsmetrics"
	"github.com/nasa-trick/variableserver/pkg/vslog"
)

var (
	f_port        = flag.Int("port", 9001, "port to listen for variable server clients on")
	f_updateRate  = flag.Float64("rate", 0.1, "default session update rate, in seconds")
	f_maxClients  = flag.Int("max-clients", 64, "maximum number of concurrently connected clients")
	f_metricsAddr = flag.String("metrics-addr", ":9101", "address to serve Prometheus /metrics on")
	f_statusAddr  = flag.String("status-addr", ":9102", "address to serve JSON /status on")
	f_exec        = flag.String("exec", "", "launch this command under a pty and mirror its stdio to send_stdio subscribers")
)

func usage() {
	fmt.Println("varserverd, a standalone Trick-style variable server")
	fmt.Println("usage: varserverd [option]...")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	vslog.Init()

	mm := memmgr.New()
	server := varserver.NewServer(mm)

	metrics := vsmetrics.New(nil)
	server.SetMetrics(metrics)
	server.SetDefaultUpdateRate(*f_updateRate)
	go serveMetrics(server, metrics)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", *f_port))
	if err != nil {
		vslog.Fatal("varserverd: listen: %v", err)
	}
	ln = netutil.LimitListener(ln, *f_maxClients)
	vslog.Info("varserverd: listening on %v (max %d clients)", ln.Addr(), *f_maxClients)

	go acceptLoop(ln, server)

	if *f_exec != "" {
		parts := strings.Fields(*f_exec)
		cmd := exec.Command(parts[0], parts[1:]...)
		if _, err := stdiomirror.Start(cmd, server); err != nil {
			vslog.Error("varserverd: failed to start -exec %q: %v", *f_exec, err)
		}
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	<-shutdown

	vslog.Warn("varserverd: caught signal, shutting down")
	ln.Close()
}

func acceptLoop(ln net.Listener, server *varserver.Server) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			vslog.Warn("varserverd: accept: %v", err)
			return
		}

		tc := vsconn.NewTCPConnection(conn)
		id := server.Accept(tc)
		vslog.Info("varserverd: accepted %v as session %v", conn.RemoteAddr(), id)
	}
}

func serveMetrics(server *varserver.Server, metrics *vsmetrics.Registry) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		vslog.Info("varserverd: metrics listening on %v", *f_metricsAddr)
		if err := http.ListenAndServe(*f_metricsAddr, mux); err != nil {
			vslog.Error("varserverd: metrics server: %v", err)
		}
	}()

	vslog.Info("varserverd: status listening on %v", *f_statusAddr)
	if err := http.ListenAndServe(*f_statusAddr, vsmetrics.StatusHandler(server)); err != nil {
		vslog.Error("varserverd: status server: %v", err)
	}
}
