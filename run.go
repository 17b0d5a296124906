package main

import (
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

// Run dispatches events until the compositor closes the connection or
// the background, Stop is called, or dispatching fails. In every case
// the caller is expected to tear down and exit cleanly, so failures
// are only logged.
func (app *App) Run() {
	for !app.closed {
		err := app.display.Dispatch()
		if err == nil {
			continue
		}

		switch {
		case app.stopped.Load():
		case errors.Is(err, io.EOF):
			logrus.Info("compositor closed the connection")
		default:
			logrus.WithError(err).Error("dispatch failed")
		}
		return
	}
}

// HandleSignals stops app on SIGINT or SIGTERM. The returned function
// stops listening.
func (app *App) HandleSignals() (stop func()) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case s := <-sig:
			logrus.WithField("signal", s).Info("terminating")
			app.Stop()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sig)
		close(done)
	}
}
