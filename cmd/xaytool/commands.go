package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/Faultbox/xaytool/internal/batch"
	"github.com/Faultbox/xaytool/internal/config"
	"github.com/Faultbox/xaytool/internal/server"
	"github.com/Faultbox/xaytool/pkg/export"
	"github.com/Faultbox/xaytool/pkg/formats"
)

var errUsage = errors.New("invalid usage")

func cmdInfo(args []string, out io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: xaytool info <file.xay>...", errUsage)
	}

	for i, path := range args {
		x, err := formats.ParseXAYFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		printInfo(out, path, x)
	}
	return nil
}

func printInfo(out io.Writer, path string, x *formats.XAY) {
	h := x.Header
	m := x.Assemble(formats.MeshName(path), formats.ColorLinear)
	min, max := m.Bounds()

	fmt.Fprintf(out, "File:     %s\n", path)
	fmt.Fprintf(out, "Version:  %d\n", h.Version)
	fmt.Fprintf(out, "Vertices: %d\n", h.VertexCount)
	fmt.Fprintf(out, "Faces:    %d (%d-bit indices)\n", h.FaceCount, h.IndexSize()*8)
	fmt.Fprintf(out, "UVs:      %d channel(s)\n", x.UVChannelCount())
	fmt.Fprintf(out, "Colors:   %v\n", h.HasVertexColors)
	fmt.Fprintf(out, "Bounds:   (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n",
		min[0], min[1], min[2], max[0], max[1], max[2])

	fmt.Fprintf(out, "Sections: %d\n", len(x.Sections))
	counts := make([]int, len(x.Sections)+1)
	for _, slot := range m.FaceMaterials {
		counts[slot]++
	}
	for i, s := range x.Sections {
		fmt.Fprintf(out, "  [%d] %-24q first face %d\n", i, s.Name, s.FirstFace)
	}
	fmt.Fprintf(out, "Faces per material slot: %v\n", counts)
}

// dumpConfig prints nested data without pointer addresses so dumps are stable.
var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func cmdDump(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("dump", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	limit := flags.Int("n", 8, "Limit vertex, face, UV and color lists to N entries (0 = all)")
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("%w: xaytool dump [-n N] <file.xay>", errUsage)
	}

	x, err := formats.ParseXAYFile(flags.Arg(0))
	if err != nil {
		return fmt.Errorf("%s: %w", flags.Arg(0), err)
	}

	dumpConfig.Fdump(out, truncateXAY(x, *limit))
	return nil
}

// truncateXAY returns a shallow copy of x with every list cut to n entries.
func truncateXAY(x *formats.XAY, n int) *formats.XAY {
	if n <= 0 {
		return x
	}
	t := *x
	if len(t.Vertices) > n {
		t.Vertices = t.Vertices[:n]
	}
	if len(t.Faces) > n {
		t.Faces = t.Faces[:n]
	}
	if len(t.Colors) > n {
		t.Colors = t.Colors[:n]
	}
	if t.ExtraUVs != nil {
		t.ExtraUVs = make([][][2]float32, len(x.ExtraUVs))
		for i, uvs := range x.ExtraUVs {
			if len(uvs) > n {
				uvs = uvs[:n]
			}
			t.ExtraUVs[i] = uvs
		}
	}
	return &t
}

func cmdVerify(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	inputs, err := collectInputs(args)
	if err != nil {
		return err
	}

	e, err := export.ForFormat(cfg.Convert.Format)
	if err != nil {
		return err
	}

	results := batch.Run(ctx, batch.Config{
		Exporter: e,
		Workers:  cfg.Convert.Workers,
		Strict:   true,
		DryRun:   true,
	}, inputs)

	for _, r := range results {
		switch {
		case r.Err == nil:
			fmt.Fprintf(out, "OK       %s (%d vertices, %d faces)\n", r.Input, r.Vertices, r.Faces)
		case r.NotXAY():
			fmt.Fprintf(out, "NOT XAY  %s\n", r.Input)
		case formats.IsCorrupt(r.Err):
			fmt.Fprintf(out, "CORRUPT  %s: %v\n", r.Input, r.Err)
		default:
			fmt.Fprintf(out, "FAILED   %s: %v\n", r.Input, r.Err)
		}
	}

	s := batch.Summarize(results)
	fmt.Fprintf(out, "\n%d ok, %d not XAY, %d corrupt or unreadable\n", s.Converted, s.NotXAY, s.Failed)
	if s.Failed > 0 {
		return fmt.Errorf("%d file(s) failed verification", s.Failed)
	}
	return nil
}

func cmdConvert(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	inputs, err := collectInputs(args)
	if err != nil {
		return err
	}

	e, err := export.ForFormat(cfg.Convert.Format)
	if err != nil {
		return err
	}

	results := batch.Run(ctx, batch.Config{
		Exporter:  e,
		OutputDir: cfg.Convert.OutputDir,
		Workers:   cfg.Convert.Workers,
		Strict:    cfg.Convert.Strict,
		Overwrite: cfg.Convert.Overwrite,
	}, inputs)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "FAILED   %s: %v\n", r.Input, r.Err)
			continue
		}
		fmt.Fprintf(out, "%-8s %s -> %s\n", strings.ToUpper(e.Name()), r.Input, r.Output)
	}

	s := batch.Summarize(results)
	fmt.Fprintf(out, "\nConverted %d of %d file(s)\n", s.Converted, len(results))
	if s.Converted != len(results) {
		return fmt.Errorf("%d file(s) failed", len(results)-s.Converted)
	}
	return nil
}

func cmdConfig(cfg *config.Config, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "show" {
		return cfg.Encode(out)
	}
	if args[0] != "init" || len(args) > 2 {
		return fmt.Errorf("%w: xaytool config [show | init [path]]", errUsage)
	}

	path := config.UserConfigPath()
	if len(args) == 2 {
		path = args[1]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	if len(args) == 2 {
		if err := cfg.SaveTo(path); err != nil {
			return err
		}
	} else if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}

func cmdServe(ctx context.Context, cfg *config.Config) error {
	return server.New(cfg.Server, cfg.Convert.Strict).ListenAndServe(ctx)
}

// collectInputs expands directories into the .xay files below them.
// Files named explicitly are kept whatever their extension.
func collectInputs(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: no input files", errUsage)
	}

	var inputs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			inputs = append(inputs, arg)
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".xay") {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		inputs = append(inputs, found...)
	}

	if len(inputs) == 0 {
		return nil, fmt.Errorf("no .xay files found in %s", strings.Join(args, ", "))
	}
	return inputs, nil
}
