package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	avi "github.com/SaveTheRbtz/avi-index-go"
)

type report struct {
	File   string `yaml:"file"`
	Size   int    `yaml:"size"`
	Error  string `yaml:"error,omitempty"`
	Issues string `yaml:"issues,omitempty"`

	Width       uint32        `yaml:"width"`
	Height      uint32        `yaml:"height"`
	Streams     uint32        `yaml:"streams"`
	TotalFrames uint32        `yaml:"total_frames"`
	Duration    time.Duration `yaml:"duration"`

	Frames      int `yaml:"frames"`
	VideoFrames int `yaml:"video_frames"`
	Keyframes   int `yaml:"keyframes"`
	AudioFrames int `yaml:"audio_frames"`

	// index entry of the keyframe decoding of -at has to start from
	NearestKeyframe *int64 `yaml:"nearest_keyframe,omitempty"`
}

func (r *report) text() string {
	if r.Error != "" {
		return fmt.Sprintf("%s: %s\n", r.File, r.Error)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %dx%d, %d streams, %s\n", r.File, r.Width, r.Height, r.Streams, r.Duration)
	fmt.Fprintf(&b, "  frames: %d (video %d, keyframes %d, audio %d), header says %d\n",
		r.Frames, r.VideoFrames, r.Keyframes, r.AudioFrames, r.TotalFrames)
	if r.NearestKeyframe != nil {
		fmt.Fprintf(&b, "  nearest keyframe: index entry %d\n", *r.NearestKeyframe)
	}
	if r.Issues != "" {
		fmt.Fprintf(&b, "  issues: %s\n", r.Issues)
	}
	return b.String()
}

func readInput(name string) ([]byte, error) {
	var input io.ReadCloser
	if name == "-" {
		input = os.Stdin
	} else {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		input = f
	}
	defer input.Close()

	if !strings.HasSuffix(name, ".zst") {
		return io.ReadAll(input)
	}

	dec, err := zstd.NewReader(input)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decompressor: %w", err)
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

func writeOutput(name string, data []byte, quality int) error {
	if strings.HasSuffix(name, ".zst") {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(quality)))
		if err != nil {
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		if err = enc.Close(); err != nil {
			return err
		}
	}

	if name == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(name, data, 0644)
}

func inspect(name string, data []byte, at int64, logger *zap.Logger) (*report, error) {
	r := &report{File: name, Size: len(data)}

	c, err := avi.Open(data, avi.WithLogger(logger), avi.WithLenientIndex())
	if err != nil {
		return r, err
	}

	hdr := c.Header()
	r.Width, r.Height, r.Streams = hdr.Width, hdr.Height, hdr.Streams
	r.TotalFrames = hdr.TotalFrames
	r.Duration = hdr.Duration()

	for _, f := range c.Frames().All() {
		r.Frames++
		switch {
		case f.IsKeyframe():
			r.Keyframes++
			r.VideoFrames++
		case f.IsVideo():
			r.VideoFrames++
		case f.IsAudio():
			r.AudioFrames++
		}
	}

	if err := c.Check(); err != nil {
		r.Issues = err.Error()
	}

	if at >= 0 {
		if e := avi.NewLookup(c.Frames()).NearestKeyframe(at); e != nil {
			r.NearestKeyframe = &e.ID
		}
	}
	return r, nil
}

// rewrite rebuilds the index of data, dropping every keyframe but the first one if mosh is set.
// It returns the new file and the digests of its frames in order.
func rewrite(data []byte, mosh bool, logger *zap.Logger) ([]byte, []uint64, error) {
	c, err := avi.Open(data, avi.WithLogger(logger), avi.WithLenientIndex())
	if err != nil {
		return nil, nil, err
	}

	var kept []avi.FrameRecord
	var digests []uint64
	seenKeyframe := false
	for i, f := range c.Frames().All() {
		if mosh && f.IsKeyframe() {
			if seenKeyframe {
				logger.Debug("dropping keyframe", zap.Int("entry", i), zap.Object("frame", f))
				continue
			}
			seenKeyframe = true
		}
		d, err := c.Digest(f)
		if err != nil {
			logger.Warn("skipping unresolvable index entry", zap.Int("entry", i), zap.Error(err))
			continue
		}
		kept = append(kept, f)
		digests = append(digests, d)
	}

	movi, records, err := c.Remux(kept)
	if err != nil {
		return nil, nil, err
	}
	if err = c.RebuildIndex(records, movi); err != nil {
		return nil, nil, err
	}
	return c.Bytes(), digests, nil
}

func verify(name string, expected []uint64, logger *zap.Logger) error {
	data, err := readInput(name)
	if err != nil {
		return fmt.Errorf("failed to read output: %w", err)
	}
	c, err := avi.Open(data, avi.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	if err = c.Check(); err != nil {
		return err
	}
	if c.Frames().Len() != len(expected) {
		return fmt.Errorf("frame count mismatch %d vs %d", c.Frames().Len(), len(expected))
	}
	for i, f := range c.Frames().All() {
		d, err := c.Digest(f)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if d != expected[i] {
			return fmt.Errorf("frame %d: digest mismatch %x vs %x", i, d, expected[i])
		}
	}
	return nil
}

func main() {
	var (
		outputFlag, formatFlag            string
		jobsFlag, qualityFlag             int
		atFlag                            int64
		moshFlag, verifyFlag, verboseFlag bool
	)

	flag.StringVar(&outputFlag, "o", "", "output filename, requires a single input")
	flag.StringVar(&formatFlag, "format", "text", "report format: text or yaml")
	flag.IntVar(&jobsFlag, "j", 4, "number of files inspected concurrently")
	flag.IntVar(&qualityFlag, "q", 1, "compression quality for .zst output (lower == faster)")
	flag.Int64Var(&atFlag, "at", -1, "report the keyframe decoding of this video frame starts from")
	flag.BoolVar(&moshFlag, "mosh", false, "drop every keyframe but the first one from the output")
	flag.BoolVar(&verifyFlag, "t", false, "test reading after the write")
	flag.BoolVar(&verboseFlag, "v", false, "be verbose")

	flag.Parse()

	var err error
	var logger *zap.Logger
	if verboseFlag {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatal("failed to initialize logger", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	inputs := flag.Args()
	if len(inputs) == 0 {
		logger.Fatal("at least one input file needs to be defined")
	}
	if jobsFlag < 1 {
		logger.Fatal("number of jobs must be positive", zap.Int("jobs", jobsFlag))
	}
	if formatFlag != "text" && formatFlag != "yaml" {
		logger.Fatal("unknown report format", zap.String("format", formatFlag))
	}
	if outputFlag != "" && len(inputs) != 1 {
		logger.Fatal("output can only be used with a single input", zap.Int("inputs", len(inputs)))
	}
	if (moshFlag || verifyFlag) && outputFlag == "" {
		logger.Fatal("mosh and verify need an output file")
	}
	if verifyFlag && outputFlag == "-" {
		logger.Fatal("verify can't be used with stdout output")
	}

	var (
		processed = atomic.NewInt64(0)
		failed    = atomic.NewInt64(0)
		frames    = atomic.NewInt64(0)
	)

	bar := progressbar.NewOptions(len(inputs),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("inspecting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(!verboseFlag && len(inputs) > 1))

	reports := make([]*report, len(inputs))
	// the input of -o, stdin can only be read once
	var source []byte
	var g errgroup.Group
	g.SetLimit(jobsFlag)
	for i, name := range inputs {
		g.Go(func() error {
			defer func() { _ = bar.Add(1) }()

			fileLogger := logger.With(zap.String("file", name))
			data, err := readInput(name)
			if err != nil {
				failed.Inc()
				reports[i] = &report{File: name, Error: err.Error()}
				fileLogger.Error("failed to read input", zap.Error(err))
				return nil
			}

			if outputFlag != "" {
				source = data
			}

			r, err := inspect(name, data, atFlag, fileLogger)
			if err != nil {
				failed.Inc()
				r.Error = err.Error()
				fileLogger.Error("failed to open container", zap.Error(err))
			}
			reports[i] = r
			processed.Inc()
			frames.Add(int64(r.Frames))
			return nil
		})
	}
	_ = g.Wait()
	_ = bar.Finish()

	var out bytes.Buffer
	if formatFlag == "yaml" {
		enc := yaml.NewEncoder(&out)
		for _, r := range reports {
			if err := enc.Encode(r); err != nil {
				logger.Fatal("failed to encode report", zap.Error(err))
			}
		}
		_ = enc.Close()
	} else {
		for _, r := range reports {
			out.WriteString(r.text())
		}
	}
	// keep stdout for the output file
	reportOut := os.Stdout
	if outputFlag == "-" {
		reportOut = os.Stderr
	}
	_, _ = out.WriteTo(reportOut)

	logger.Info("inspected files",
		zap.Int64("processed", processed.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Int64("frames", frames.Load()))

	if failed.Load() > 0 {
		logger.Fatal("some inputs could not be processed", zap.Int64("failed", failed.Load()))
	}
	if outputFlag == "" {
		return
	}

	rebuilt, digests, err := rewrite(source, moshFlag, logger)
	if err != nil {
		logger.Fatal("failed to rebuild index", zap.Error(err))
	}
	if err = writeOutput(outputFlag, rebuilt, qualityFlag); err != nil {
		logger.Fatal("failed to write output", zap.Error(err))
	}
	logger.Info("wrote output",
		zap.String("file", outputFlag),
		zap.Int("size", len(rebuilt)),
		zap.Int("frames", len(digests)))

	if verifyFlag {
		if err = verify(outputFlag, digests, logger); err != nil {
			logger.Fatal("verification failed", zap.Error(err))
		}
		logger.Info("verification succeeded", zap.Int("frames", len(digests)))
	}
}
