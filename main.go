/*
vkframe opens a window and renders a triangle, or the mesh named in the
configuration, with a free flying camera.
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/vkframe/engine"
	"github.com/spaghettifunk/vkframe/engine/config"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/testbed"
)

func main() {
	configPath := flag.String("config", "vkframe.toml", "path to the TOML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		core.Logger().Error("vkframe stopped with an error", "err", err)
		os.Exit(1)
	}
}

func run(configPath string) (err error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	e, err := engine.New(testbed.NewTestGame(cfg).Game)
	if err != nil {
		return err
	}
	defer func() {
		if serr := e.Shutdown(); serr != nil && err == nil {
			err = serr
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			e.RequestQuit()
		case <-ctx.Done():
		}
	}()

	if err := e.Initialize(ctx); err != nil {
		return err
	}
	return e.Run(ctx)
}
