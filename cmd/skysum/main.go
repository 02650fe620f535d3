// Command skysum runs the fine-grid stage on a synthetic sky and prints
// the resulting limits.
//
// Usage:
//
//	skysum [flags]
//
// The search settings come from a JSON file (-config) or the built-in
// defaults. The detector data is synthesized: white noise, an optional
// injected source and optional instrumental lines.
//
// Examples:
//
//	skysum -write-defaults > search.json
//	skysum -config search.json -inject-amp 0.5 -inject-bin 200
//	skysum -segments 48 -lines 120,121 -metrics-addr :9100
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cwbudde/algo-skypower/dataset"
	"github.com/cwbudde/algo-skypower/dsp/window"
	"github.com/cwbudde/algo-skypower/internal/config"
	"github.com/cwbudde/algo-skypower/internal/metrics"
	"github.com/cwbudde/algo-skypower/internal/monitoring"
	"github.com/cwbudde/algo-skypower/internal/synth"
	"github.com/cwbudde/algo-skypower/search"
)

type options struct {
	configPath    string
	writeDefaults bool
	quiet         bool
	windowInfo    bool
	metricsAddr   string

	grid synth.GridConfig

	segments  int
	noise     float64
	seed      uint64
	lines     string
	lineAmp   float64
	injectBin float64
	injectAmp float64
	injectLon float64
	injectLat float64
	radius    float64
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("skysum", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "search configuration JSON file")
	fs.BoolVar(&o.writeDefaults, "write-defaults", false, "print the default configuration and exit")
	fs.BoolVar(&o.quiet, "quiet", false, "suppress progress messages")
	fs.BoolVar(&o.windowInfo, "window-info", false, "print properties of the configured window")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address until interrupted")
	fs.IntVar(&o.grid.Longitudes, "nlon", 24, "fine grid longitudes")
	fs.IntVar(&o.grid.Latitudes, "nlat", 12, "fine grid latitudes")
	fs.IntVar(&o.grid.Bands, "bands", 2, "frequency bands (latitude stripes)")
	fs.IntVar(&o.grid.PatchSize, "patch", 3, "patch side in fine points")
	fs.IntVar(&o.segments, "segments", 24, "segments per dataset")
	fs.Float64Var(&o.noise, "noise", 1, "time-domain noise standard deviation")
	fs.Uint64Var(&o.seed, "seed", 1, "noise seed")
	fs.StringVar(&o.lines, "lines", "", "comma separated spectrum indices carrying instrumental lines")
	fs.Float64Var(&o.lineAmp, "line-amp", 0.5, "instrumental line amplitude")
	fs.Float64Var(&o.injectBin, "inject-bin", 100, "injected source bin relative to first_bin")
	fs.Float64Var(&o.injectAmp, "inject-amp", 0, "injected source amplitude (0 disables)")
	fs.Float64Var(&o.injectLon, "inject-lon", 2, "injected source longitude in radians")
	fs.Float64Var(&o.injectLat, "inject-lat", 0.4, "injected source latitude in radians")
	fs.Float64Var(&o.radius, "radius", 0.3, "radius in radians of the points reported around the injection")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: skysum [flags]\n\n")
		fmt.Fprintf(stderr, "Runs the fine-grid stage on a synthetic sky and prints the limits.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

func parseLines(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("invalid line index %q: %w", f, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	if o.writeDefaults {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(config.Defaults())
	}

	sc := &config.SearchConfig{}
	if o.configPath != "" {
		if sc, err = config.Load(o.configPath); err != nil {
			return err
		}
	}
	cfg, err := sc.Stage()
	if err != nil {
		return err
	}

	if o.quiet {
		monitoring.SetLogger(nil)
	} else {
		monitoring.SetLogger(log.New(stderr, "skysum: ", log.LstdFlags).Printf)
	}

	if o.windowInfo {
		if err := printWindow(stdout, cfg.Window); err != nil {
			return err
		}
	}

	lines, err := parseLines(o.lines)
	if err != nil {
		return err
	}
	fine, patches, err := synth.Grid(o.grid)
	if err != nil {
		return err
	}
	dc := synth.DatasetConfig{
		Name:          "synthetic",
		Layout:        cfg.Layout,
		Segments:      o.segments,
		CoherenceTime: cfg.CoherenceTime,
		Noise:         o.noise,
		Seed:          o.seed,
		Window:        cfg.Window,
		Antenna:       synth.Antenna{Rotation: 0.26},
		Lines:         lines,
		LineAmplitude: o.lineAmp,
		Complex:       true,
	}
	if o.injectAmp != 0 {
		dc.Injection = &synth.Injection{
			Bin:       o.injectBin,
			Amplitude: o.injectAmp,
			Longitude: o.injectLon,
			Latitude:  o.injectLat,
		}
	}
	d, err := synth.Dataset(dc, patches.Len())
	if err != nil {
		return err
	}

	var (
		reg *prometheus.Registry
		srv *http.Server
	)
	if o.metricsAddr != "" {
		reg = prometheus.NewRegistry()
		cfg.Metrics = metrics.New(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		srv = &http.Server{Addr: o.metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				monitoring.Logf("metrics server: %v", err)
			}
		}()
	}

	st, err := search.New(cfg, fine, patches, []*dataset.Dataset{d})
	if err != nil {
		return err
	}
	res, err := st.Run()
	if err != nil {
		return err
	}

	if err := printResult(stdout, res, fine); err != nil {
		return err
	}
	if dc.Injection != nil {
		if err := printNear(stdout, res, o.injectLon, o.injectLat, o.radius); err != nil {
			return err
		}
	}

	if srv != nil {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		monitoring.Logf("serving metrics on %s, interrupt to exit", o.metricsAddr)
		<-ctx.Done()
		return srv.Shutdown(context.Background())
	}
	return nil
}

func printWindow(w io.Writer, t window.Type) error {
	info := window.Info(t)
	a, err := window.Analyze(window.Generate(t, 1024, window.WithPeriodic()))
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Window\tCoherent Gain\tENBW [bins]\tScallop\tScallop [dB]\n")
	fmt.Fprintf(tw, "------\t-------------\t-----------\t-------\t------------\n")
	fmt.Fprintf(tw, "%s\t%.6f\t%.4f\t%.4f\t%.4f\n\n",
		info.Name, a.CoherentGain, a.ENBW, a.ScallopAmplitude, a.ScallopLossdB)
	return tw.Flush()
}
