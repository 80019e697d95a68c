/*
Example command line stabilizer.  Stabilize a single video file with the
light preset

	go run vidstab.go -i shaky.mp4 -o steady.mp4

or stabilize several files with two parallel pipelines on cores 4-7

	go run vidstab.go -p gimbal -w 2 -cpus 4-7 a.mp4=a-out.mp4 b.mp4=b-out.mp4

Settings may also be given in the environment or a .env file with the
VIDSTAB_PRESET, VIDSTAB_CONFIG and VIDSTAB_CODECS variables.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	vidstab "github.com/swdee/go-vidstab"
	"github.com/swdee/go-vidstab/cv"
	"github.com/swdee/go-vidstab/preprocess"
	"github.com/swdee/go-vidstab/trajectory"
)

// config holds the resolved command line settings
type config struct {
	input    string
	output   string
	preset   string
	file     string
	codecs   string
	plot     string
	metrics  string
	cpus     string
	resize   string
	workers  int
	annotate bool
	verbose  bool
	jobs     []vidstab.Job
}

// parseFlags reads the command line, falling back to the environment for
// settings not given as flags
func parseFlags(args []string, getenv func(string) string) (config, error) {

	var c config

	fs := flag.NewFlagSet("vidstab", flag.ContinueOnError)

	fs.StringVar(&c.input, "i", "", "Input video file")
	fs.StringVar(&c.output, "o", "", "Output video file")
	fs.StringVar(&c.preset, "p", getenv("VIDSTAB_PRESET"),
		"Preset to start from, one of "+strings.Join(vidstab.Presets(), ", "))
	fs.StringVar(&c.file, "c", getenv("VIDSTAB_CONFIG"), "JSON parameter file used instead of -p, its preset field names the preset it builds on")
	fs.StringVar(&c.codecs, "codecs", getenv("VIDSTAB_CODECS"),
		"Comma delimited list of output codecs to try in order, eg: avc1,mp4v,MJPG")
	fs.StringVar(&c.plot, "plot", "", "Save a PNG plot of the camera trajectory, single input only")
	fs.StringVar(&c.metrics, "metrics", "", "Serve Prometheus metrics on this address, eg: localhost:9090")
	fs.StringVar(&c.cpus, "cpus", "", "Restrict processing to these CPU cores, eg: 4-7")
	fs.StringVar(&c.resize, "r", "stretch", "How frames are fitted to the output size, stretch or letterbox")
	fs.IntVar(&c.workers, "w", 1, "Number of videos to process in parallel")
	fs.BoolVar(&c.annotate, "d", false, "Draw the debug overlay on output frames")
	fs.BoolVar(&c.verbose, "v", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return c, err
	}

	if c.input != "" || c.output != "" {
		if c.input == "" || c.output == "" {
			return c, errors.New("both -i and -o must be given")
		}

		c.jobs = append(c.jobs, vidstab.Job{Input: c.input, Output: c.output})
	}

	for _, arg := range fs.Args() {
		in, out, ok := strings.Cut(arg, "=")

		if !ok || in == "" || out == "" {
			return c, fmt.Errorf("job %q must be in the form input=output", arg)
		}

		c.jobs = append(c.jobs, vidstab.Job{Input: in, Output: out})
	}

	if len(c.jobs) == 0 {
		return c, errors.New("no input video given")
	}

	if c.plot != "" && len(c.jobs) > 1 {
		return c, errors.New("-plot only supports a single input")
	}

	if c.workers < 1 {
		return c, fmt.Errorf("workers must be at least 1, got %d", c.workers)
	}

	return c, nil
}

// params resolves the stabilizer parameters from the preset or parameter
// file, then applies the codec list
func (c config) params() (vidstab.Params, error) {

	p := vidstab.DefaultParams()
	var err error

	if c.preset != "" {
		if p, err = vidstab.Preset(c.preset); err != nil {
			return p, err
		}
	}

	if c.file != "" {
		if p, err = vidstab.LoadParams(c.file); err != nil {
			return p, err
		}
	}

	if c.codecs != "" {
		p.Codecs = nil

		for _, codec := range strings.Split(c.codecs, ",") {
			if codec = strings.TrimSpace(codec); codec != "" {
				p.Codecs = append(p.Codecs, codec)
			}
		}
	}

	if c.plot != "" {
		p.KeepTrajectory = true
	}

	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("invalid params: %w", err)
	}

	return p, nil
}

func main() {

	// a missing .env file is not an error
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := parseFlags(os.Args[1:], os.Getenv)

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}

		log.Fatalf("Error parsing flags: %v", err)
	}

	if cfg.verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	params, err := cfg.params()

	if err != nil {
		log.Fatalf("Error loading parameters: %v", err)
	}

	resize, err := preprocess.ParseMode(cfg.resize)

	if err != nil {
		log.Fatalf("Error parsing resize mode: %v", err)
	}

	if cfg.cpus != "" {
		cores, err := vidstab.ParseCPUList(cfg.cpus)

		if err != nil {
			log.Fatalf("Error parsing CPU list: %v", err)
		}

		if err := vidstab.PinWorkers(vidstab.CPUCoreMask(cores)); err != nil {
			log.Printf("Running frame workers unpinned: %v", err)
		}
	}

	reg := prometheus.NewRegistry()
	metrics, err := vidstab.NewMetrics(reg)

	if err != nil {
		log.Fatalf("Error registering metrics: %v", err)
	}

	if cfg.metrics != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

			log.WithField("addr", cfg.metrics).Info("Serving metrics")

			if err := http.ListenAndServe(cfg.metrics, mux); err != nil {
				log.WithField("error", err.Error()).Error("Metrics server stopped")
			}
		}()
	}

	pool, err := vidstab.NewPool(min(cfg.workers, len(cfg.jobs)), func(i int) (*vidstab.Pipeline, error) {

		backend, err := cv.NewBackend(params, cv.Options{
			Annotate: cfg.annotate,
			Resize:   resize,
		})

		if err != nil {
			return nil, err
		}

		return vidstab.NewPipeline(params, backend,
			vidstab.WithLogger(log.WithField("worker", i)),
			vidstab.WithMetrics(metrics))
	})

	if err != nil {
		log.Fatalf("Error creating pipelines: %v", err)
	}

	defer pool.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed := 0

	for _, jr := range pool.Run(ctx, cfg.jobs) {

		if jr.Err != nil {
			failed++
			log.WithFields(logrus.Fields{
				"input": jr.Job.Input,
				"kind":  vidstab.KindOf(jr.Err).String(),
			}).Errorf("Stabilization failed: %v", jr.Err)
			continue
		}

		res := jr.Result

		log.WithFields(logrus.Fields{
			"input":    res.Input,
			"output":   res.Output,
			"codec":    res.Codec,
			"frames":   res.FramesWritten,
			"degraded": res.Degraded(),
			"coverage": fmt.Sprintf("%.2f", res.MinCoverage),
			"took":     res.Duration,
		}).Info("Stabilized")

		if cfg.plot != "" && res.Path != nil {
			if err := trajectory.SavePlot(res.Path.Raw, res.Path.Smoothed, cfg.plot); err != nil {
				log.Errorf("Error saving trajectory plot: %v", err)
			}
		}
	}

	if failed > 0 {
		pool.Close()
		os.Exit(1)
	}
}
