package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/apipath/blog"
)

func runServe(args []string) error {
	var common commonFlags
	var addr string
	var noWatch bool
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	common.register(fs)
	fs.StringVarP(&addr, "addr", "a", "", "listen address; overrides server.addr")
	fs.BoolVar(&noWatch, "no-watch", false, "do not reload content when files change")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load(blog.EnvDevelopment)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if noWatch {
		cfg.Server.Watch = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := blog.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Start(ctx)
}
