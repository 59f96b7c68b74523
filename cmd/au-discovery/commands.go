package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/samqfs/au-discovery/pkg/au"
	"github.com/samqfs/au-discovery/pkg/discovery"
	"github.com/samqfs/au-discovery/pkg/filter"
	"github.com/samqfs/au-discovery/pkg/option"
	"github.com/samqfs/au-discovery/pkg/resolver"
	"github.com/samqfs/au-discovery/pkg/udev"
)

func newDiscoverer(opt *option.Option) (*discovery.Discoverer, error) {
	cfg, err := option.LoadConfig(opt.ConfigFile)
	if err != nil {
		return nil, err
	}
	d, err := discovery.New(cfg)
	if err != nil {
		return nil, err
	}
	d.SSHConfig = opt.SSHConfig
	return d, nil
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var res []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			res = append(res, item)
		}
	}
	return res
}

func unitFilters(opt *option.Option) ([]*filter.Filter, error) {
	return filter.SetUnitFilters(
		splitList(opt.VendorFilter),
		splitList(opt.PathFilter),
		splitList(opt.LabelFilter),
		splitList(opt.KindFilter),
	)
}

func printFiltered(opt *option.Option, units []*au.Unit) error {
	filters, err := unitFilters(opt)
	if err != nil {
		return err
	}
	return printUnits(os.Stdout, opt.Output, filter.Apply(filters, units))
}

func discover(d *discovery.Discoverer, available bool, kindName string) ([]*au.Unit, error) {
	if kindName == "" {
		if available {
			return d.DiscoverAvailable()
		}
		return d.DiscoverAll()
	}
	kind, err := au.ParseKind(kindName)
	if err != nil {
		return nil, err
	}
	if available {
		return d.DiscoverAvailableByType(kind)
	}
	return d.DiscoverByType(kind)
}

func discoverCommand(opt *option.Option) *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "List the allocatable units of this host",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "available",
				Usage: "only list units nothing else uses",
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "only list units of one kind (slice, svm, vxvm, zvol, osd)",
			},
		},
		Action: func(c *cli.Context) error {
			d, err := newDiscoverer(opt)
			if err != nil {
				return err
			}
			units, err := discover(d, c.Bool("available"), c.String("type"))
			if err != nil {
				return err
			}
			return printFiltered(opt, units)
		},
	}
}

func haCommand(opt *option.Option) *cli.Command {
	return &cli.Command{
		Name:  "ha",
		Usage: "List the units every named cluster host can see",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "host",
				Usage: "cluster host that must see the unit, repeatable",
			},
			&cli.BoolFlag{
				Name:  "available",
				Usage: "only list units nothing else uses",
			},
		},
		Action: func(c *cli.Context) error {
			d, err := newDiscoverer(opt)
			if err != nil {
				return err
			}
			units, err := d.DiscoverHA(c.StringSlice("host"), c.Bool("available"))
			if err != nil {
				return err
			}
			return printFiltered(opt, units)
		},
	}
}

func overlapsCommand(opt *option.Option) *cli.Command {
	return &cli.Command{
		Name:      "overlaps",
		Usage:     "Report the given slices that overlap another slice of their disk",
		ArgsUsage: "<slice path>...",
		Action: func(c *cli.Context) error {
			d, err := newDiscoverer(opt)
			if err != nil {
				return err
			}
			return reportOverlaps(os.Stdout, opt.Output, d.CheckSlicesForOverlaps, c.Args().Slice())
		},
	}
}

const (
	exitOverlaps  = 2
	exitUnchecked = 3
)

// reportOverlaps prints the overlapping slices. Slices that could not be
// checked are logged and do not hide the others; the exit code is 2 when a
// slice overlaps, else 3 when one could not be checked.
func reportOverlaps(w io.Writer, format string, check func([]string) ([]string, error), paths []string) error {
	overlapping, err := check(paths)
	if err != nil && au.IsKind(err, au.ErrArgument) {
		return err
	}
	if err != nil {
		logrus.Warnf("some slices could not be checked: %v", err)
	}
	if perr := printPaths(w, format, overlapping); perr != nil {
		return perr
	}
	switch {
	case len(overlapping) > 0:
		return cli.Exit("", exitOverlaps)
	case err != nil:
		return cli.Exit("", exitUnchecked)
	}
	return nil
}

func resolveCommand(opt *option.Option) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Rewrite the device paths of a shared filesystem's disks to this host's paths",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "disks",
				Usage:    "YAML list of disks with their device identity",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			disks, err := loadDisks(c.String("disks"))
			if err != nil {
				return err
			}
			d, err := newDiscoverer(opt)
			if err != nil {
				return err
			}
			if err := d.ResolveDiskPaths(disks, nil); err != nil {
				return err
			}
			return printDisks(os.Stdout, opt.Output, disks)
		},
	}
}

func loadDisks(path string) ([]*resolver.Disk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read disks %s", path)
	}
	var disks []*resolver.Disk
	if err := yaml.Unmarshal(data, &disks); err != nil {
		return nil, errors.Wrapf(err, "failed to parse disks %s", path)
	}
	return disks, nil
}

func watchCommand(opt *option.Option) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Print the available units again whenever a disk comes or goes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "udev-rules",
				EnvVars:     []string{"AUD_UDEV_RULES"},
				Usage:       "JSON file of udev matching rules",
				Destination: &opt.UdevRules,
			},
			&cli.DurationFlag{
				Name:    "rescan-interval",
				EnvVars: []string{"AUD_RESCAN_INTERVAL"},
				Usage:   "also rediscover on this interval, 0 disables",
			},
			&cli.DurationFlag{
				Name:  "settle",
				Value: 2 * time.Second,
				Usage: "quiet period after the last event before discovery runs",
			},
		},
		Action: func(c *cli.Context) error {
			d, err := newDiscoverer(opt)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rediscover := func(context.Context) {
				units, err := d.DiscoverAvailable()
				if err != nil {
					logrus.Errorf("failed to rediscover units: %v", err)
					return
				}
				if err := printFiltered(opt, units); err != nil {
					logrus.Errorf("failed to print units: %v", err)
				}
			}
			rediscover(ctx)

			if interval := c.Duration("rescan-interval"); interval > 0 {
				go rescan(ctx, interval, rediscover)
			}

			w := udev.NewWatcher(rediscover, opt.UdevRules)
			w.Settle = c.Duration("settle")
			return w.Monitor(ctx)
		},
	}
}

func rescan(ctx context.Context, interval time.Duration, rediscover func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Prepare to stop scanner.")
			return
		case <-ticker.C:
			logrus.Debug("scanner waked up, do scan...")
			rediscover(ctx)
		}
	}
}
