// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package process

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/spacemonkeygo/monkit/v3/present"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DebugServer serves pprof, monkit and prometheus endpoints.
type DebugServer struct {
	log      *zap.Logger
	listener net.Listener
	server   *http.Server
}

// NewDebugServer listens on addr. gatherer may be nil.
func NewDebugServer(log *zap.Logger, addr string, registry *monkit.Registry, gatherer prometheus.Gatherer) (*DebugServer, error) {
	var mux http.ServeMux
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/mon/", http.StripPrefix("/mon", present.HTTP(registry)))
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "OK")
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return &DebugServer{
		log:      log,
		listener: ln,
		server:   &http.Server{Handler: &mux},
	}, nil
}

// Addr returns the address the server listens on.
func (srv *DebugServer) Addr() net.Addr { return srv.listener.Addr() }

// Run serves until ctx is canceled.
func (srv *DebugServer) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		<-ctx.Done()
		return srv.server.Close()
	})
	group.Go(func() error {
		srv.log.Debug("debug server listening", zap.Stringer("addr", srv.listener.Addr()))
		err := srv.server.Serve(srv.listener)
		if err == http.ErrServerClosed {
			return nil
		}
		return Error.Wrap(err)
	})
	return group.Wait()
}
