package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/samqfs/au-discovery/pkg/au"
	"github.com/samqfs/au-discovery/pkg/resolver"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func encode(w io.Writer, format string, v interface{}) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown output format %q", format)
}

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	return t
}

func printUnits(w io.Writer, format string, units []*au.Unit) error {
	if format != outputTable && format != "" {
		if units == nil {
			units = []*au.Unit{}
		}
		return encode(w, format, units)
	}
	t := newTable(w, table.Row{"Path", "Kind", "Capacity", "Label", "Redundancy", "Vendor", "Product", "Device ID"})
	for _, u := range units {
		var vendor, product, id string
		if u.Identity != nil {
			vendor, product, id = u.Identity.Vendor, u.Identity.Product, u.Identity.DeviceID
		}
		t.AppendRow(table.Row{u.Path, u.Kind.String(), humanize.IBytes(u.Capacity), u.UsageLabel, u.Redundancy, vendor, product, id})
	}
	t.Render()
	return nil
}

func printDisks(w io.Writer, format string, disks []*resolver.Disk) error {
	if format != outputTable && format != "" {
		return encode(w, format, disks)
	}
	t := newTable(w, table.Row{"Path", "Name", "Device ID"})
	for _, d := range disks {
		var id string
		if d.Identity != nil {
			id = d.Identity.DeviceID
		}
		t.AppendRow(table.Row{d.Path, d.Name, id})
	}
	t.Render()
	return nil
}

func printPaths(w io.Writer, format string, paths []string) error {
	if format != outputTable && format != "" {
		if paths == nil {
			paths = []string{}
		}
		return encode(w, format, paths)
	}
	for _, p := range paths {
		if _, err := fmt.Fprintln(w, p); err != nil {
			return err
		}
	}
	return nil
}
