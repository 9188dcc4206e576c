package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/unidbmock"
)

func main() {
	if err := mainInner(); err != nil {
		glog.Error(err.Error())
		glog.Flush()
		os.Exit(1)
	}
	glog.Flush()
}

func mainInner() error {
	addr := flag.String("addr", "localhost:8080", "the address to listen on")
	key := flag.String("key", config.DefaultContractKey, "contract key to serve")
	dbPath := flag.String("db", "", "sqlite file to keep rows in (default: memory only)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var backend unidbmock.Backend = unidbmock.NewMemory()
	if *dbPath != "" {
		sq, err := unidbmock.OpenSQLite(ctx, *dbPath)
		if err != nil {
			return err
		}
		backend = sq
	}
	defer backend.Close()

	httpServer := &http.Server{Addr: *addr, Handler: unidbmock.NewServer(*key, backend)}

	errc := make(chan error, 1)
	go func() {
		glog.Infof("unidb-mock: listening on http://%s/%s/data", *addr, *key)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	exit := make(chan os.Signal, 1) // we need to reserve to buffer size 1, so the notifier are not blocked
	signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-exit:
		glog.Infof("unidb-mock: signal caught: %v", sig)
	case err := <-errc:
		return err
	}

	shutdownCtx, stop := context.WithTimeout(ctx, 5*time.Second)
	defer stop()
	return httpServer.Shutdown(shutdownCtx)
}
