package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/apipath/blog"
)

// commonFlags holds flags shared by build and serve.
type commonFlags struct {
	config string
	env    string
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVarP(&f.config, "config", "c", envOr("BLOG_CONFIG", blog.DefaultConfigFile), "path to the configuration file")
	fs.StringVar(&f.env, "env", "", "build mode (production or development); overrides BLOG_ENV")
}

// load reads the configuration, defaulting the mode to defaultEnv.
func (f *commonFlags) load(defaultEnv string) (blog.Config, error) {
	cfg, err := blog.LoadConfig(f.config, defaultEnv)
	if err != nil {
		return blog.Config{}, err
	}
	if f.env != "" {
		cfg.Env = f.env
	}
	return cfg, nil
}

func runBuild(args []string) error {
	var common commonFlags
	var output string
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	common.register(fs)
	fs.StringVarP(&output, "output", "o", "", "output directory; overrides output.dir")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load(blog.EnvProduction)
	if err != nil {
		return err
	}
	if output != "" {
		cfg.Output.Dir = output
	}

	logger := blog.NewLogger(cfg.Env)
	b, err := blog.NewBuilder(cfg, logger, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	report, err := b.Build(ctx)
	if err != nil {
		return err
	}
	logger.Infof("%d posts, %d pages, %d files, %d images written to %s",
		report.Posts, report.Pages, report.Files, report.Images, cfg.Output.Dir)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
