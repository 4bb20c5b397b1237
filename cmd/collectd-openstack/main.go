package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/signalfx/collectd-openstack/pkg/core/config"
	"github.com/signalfx/collectd-openstack/pkg/core/writer"
	"github.com/signalfx/collectd-openstack/pkg/plugins"
	_ "github.com/signalfx/collectd-openstack/pkg/plugins/all"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var (
	// Version of the binary, set at build time
	Version = "dev"
	// BuiltTime of the binary, set at build time
	BuiltTime string
)

const defaultConfigPath = "/etc/collectd-openstack/agent.yaml"

func init() {
	log.SetFormatter(&prefixed.TextFormatter{})
	log.SetLevel(log.InfoLevel)
	log.SetOutput(os.Stderr)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.WithError(err).Error("collectd-openstack failed")
		cancel()
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "collectd-openstack",
		Usage:   "Poll OpenStack Keystone and Nova and report gauges to collectd",
		Version: fmt.Sprintf("%s (built %s)", Version, BuiltTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   defaultConfigPath,
				Usage:   "path to the agent config file",
				Sources: cli.EnvVars("COLLECTD_OPENSTACK_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "overrides the log level of the config file (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Read every configured plugin on its interval until interrupted",
				Action: doRun,
			},
			{
				Name:   "read",
				Usage:  "Read every configured plugin once and exit",
				Action: doRead,
			},
			{
				Name:  "types",
				Usage: "List the plugin types that can be configured",
				Action: func(_ context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprintln(cmd.Root().Writer, strings.Join(plugins.Types(), "\n"))
					return err
				},
			},
		},
	}
}

// setup loads the config, configures logging and creates the writer
func setup(cmd *cli.Command) (*config.Config, writer.Writer, error) {
	conf, err := config.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, nil, err
	}

	if level := cmd.String("log-level"); level != "" {
		conf.Logging.Level = level
	}
	if err := config.ConfigureLogging(conf.Logging); err != nil {
		return nil, nil, err
	}
	for i := range conf.Plugins {
		log.Debugf("Configured plugin %s", conf.Plugins[i].String())
	}

	w, err := writer.New(conf.Writer)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not create writer")
	}
	return conf, w, nil
}

func doRun(ctx context.Context, cmd *cli.Command) error {
	conf, w, err := setup(cmd)
	if err != nil {
		return err
	}
	defer w.Close()

	manager := plugins.NewManager(w)
	if started := manager.Start(ctx, conf.Plugins); started == 0 {
		return errors.New("no plugins could be started")
	}

	<-ctx.Done()
	log.Info("Shutting down")
	manager.Shutdown()

	for _, s := range manager.Stats() {
		log.WithFields(log.Fields{
			"plugin":   s.Type,
			"reads":    s.ReadCalls,
			"failures": s.ReadFailures,
			"samples":  s.SamplesSent,
		}).Info("Plugin stats")
	}
	return nil
}

func doRead(ctx context.Context, cmd *cli.Command) error {
	conf, w, err := setup(cmd)
	if err != nil {
		return err
	}
	defer w.Close()

	total, err := plugins.NewManager(w).ReadOnce(ctx, conf.Plugins)
	log.WithField("samples", total).Info("Read complete")
	return err
}
