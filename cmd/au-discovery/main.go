package main

import (
	"os"

	"github.com/ehazlett/simplelog"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/samqfs/au-discovery/pkg/option"
	"github.com/samqfs/au-discovery/pkg/version"
)

func main() {
	var opt option.Option
	app := cli.NewApp()
	app.Name = "au-discovery"
	app.Version = version.FriendlyVersion()
	app.Usage = "au-discovery finds the slices and volumes an archiving filesystem may allocate, and tells which are in use."
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			EnvVars:     []string{"AUD_CONFIG"},
			Usage:       "YAML file overriding the default device roots, files and commands",
			Destination: &opt.ConfigFile,
		},
		&cli.StringFlag{
			Name:        "ssh-config",
			EnvVars:     []string{"AUD_SSH_CONFIG"},
			Value:       "~/.ssh/config",
			Usage:       "ssh client config used to reach cluster hosts",
			Destination: &opt.SSHConfig,
		},
		&cli.BoolFlag{
			Name:        "debug",
			EnvVars:     []string{"AUD_DEBUG"},
			Usage:       "enable debug logs",
			Destination: &opt.Debug,
		},
		&cli.BoolFlag{
			Name:        "trace",
			EnvVars:     []string{"AUD_TRACE"},
			Usage:       "Enable trace logs",
			Destination: &opt.Trace,
		},
		&cli.StringFlag{
			Name:        "log-format",
			EnvVars:     []string{"AUD_LOG_FORMAT"},
			Usage:       "Log format",
			Value:       "text",
			Destination: &opt.LogFormat,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			EnvVars:     []string{"AUD_OUTPUT"},
			Usage:       "Output format, one of table, json or yaml",
			Value:       outputTable,
			Destination: &opt.Output,
		},
		&cli.StringFlag{
			Name:        "vendor-filter",
			EnvVars:     []string{"AUD_VENDOR_FILTER"},
			Usage:       "A string of comma-separated values that you want to exclude for device vendor or product filter",
			Destination: &opt.VendorFilter,
		},
		&cli.StringFlag{
			Name:        "path-filter",
			EnvVars:     []string{"AUD_PATH_FILTER"},
			Usage:       "A string of comma-separated glob patterns that you want to exclude for unit path filter",
			Destination: &opt.PathFilter,
		},
		&cli.StringFlag{
			Name:        "label-filter",
			EnvVars:     []string{"AUD_LABEL_FILTER"},
			Usage:       "A string of comma-separated glob patterns that you want to exclude for usage label filter",
			Destination: &opt.LabelFilter,
		},
		&cli.StringFlag{
			Name:        "kind-filter",
			EnvVars:     []string{"AUD_KIND_FILTER"},
			Usage:       "A string of comma-separated unit kinds (slice, svm, vxvm, zvol, osd) that you want to exclude",
			Destination: &opt.KindFilter,
		},
	}

	app.Before = func(c *cli.Context) error {
		initLogs(&opt)
		return nil
	}
	app.Commands = []*cli.Command{
		discoverCommand(&opt),
		haCommand(&opt),
		overlapsCommand(&opt),
		resolveCommand(&opt),
		watchCommand(&opt),
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func initLogs(opt *option.Option) {
	switch opt.LogFormat {
	case "simple":
		logrus.SetFormatter(&simplelog.StandardFormatter{})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{})
	}
	// stdout carries the results
	logrus.SetOutput(os.Stderr)
	logrus.Debugf("au-discovery %s", version.FriendlyVersion())
	if opt.Debug {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.Debugf("Loglevel set to [%v]", logrus.DebugLevel)
	}
	if opt.Trace {
		logrus.SetLevel(logrus.TraceLevel)
		logrus.Tracef("Loglevel set to [%v]", logrus.TraceLevel)
	}
}
