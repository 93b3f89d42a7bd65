// Command metronome is a CLI front end for the metronome engine: it
// opens the default full-duplex stereo device, loads click waveforms
// from disk, plays the click pattern, and optionally records a take to
// a WAV file until interrupted.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/clickforge/metronome-engine/pkg/click"
	"github.com/clickforge/metronome-engine/pkg/controller"
	"github.com/clickforge/metronome-engine/pkg/device"
	"github.com/clickforge/metronome-engine/pkg/diag"
	"github.com/clickforge/metronome-engine/pkg/engine"
	"github.com/clickforge/metronome-engine/pkg/writer"
)

func main() {
	var (
		sampleRate    = pflag.Float64P("sample-rate", "r", 48000, "Device sample rate, samples/sec.")
		blockSize     = pflag.IntP("block-size", "b", 256, "Render block size, frames.")
		bpm           = pflag.Float64P("bpm", "t", 120, "Initial tempo, beats/minute.")
		timeSignature = pflag.IntP("time-signature", "s", 4, "Beats per measure. 0 or 1 disables the accent click.")
		clickPath     = pflag.String("click", "", "Path to the normal click WAV file (required).")
		accentPath    = pflag.String("accent", "", "Path to the accent click WAV file (optional).")
		volume        = pflag.IntP("volume", "v", 100, "Click volume, 0-100.")
		micGain       = pflag.Float64("mic-gain", 1.0, "Microphone gain applied to the record path, 0.0-1.0.")
		monitor       = pflag.Bool("monitor", false, "Mix live microphone input into the output while recording.")
		recordPath    = pflag.String("record", "", "If set, start recording to this WAV path immediately.")
		quiet         = pflag.BoolP("quiet", "q", false, "Suppress beat-event console output.")
		help          = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - console metronome with click playback and recording\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s --click normal.wav [options]\n\n", os.Args[0])
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	if *clickPath == "" {
		fmt.Fprintln(os.Stderr, "--click is required")
		pflag.Usage()
		os.Exit(1)
	}

	log := diag.Default()
	log = log.With("metronome")

	dev, err := device.OpenDefaultStereo(*sampleRate, *blockSize)
	if err != nil {
		log.Error("open device: %v", err)
		os.Exit(1)
	}
	device.RegisterActive(dev)

	c := controller.New(dev, *bpm, *timeSignature, *blockSize, log)
	defer c.Destroy()

	if err := loadClickFile(c.LoadClick, *clickPath, dev.SampleRate()); err != nil {
		log.Error("load click: %v", err)
		os.Exit(1)
	}
	if *accentPath != "" {
		if err := loadClickFile(c.LoadAccent, *accentPath, dev.SampleRate()); err != nil {
			log.Error("load accent: %v", err)
			os.Exit(1)
		}
	}

	c.SetVolume(*volume)
	c.SetMicGain(float32(*micGain))
	c.SetMonitoring(*monitor)

	sub := c.SubscribeBeatEvents()
	if !*quiet {
		go func() {
			for b := range sub {
				fmt.Printf("beat %d\n", b.Value)
			}
		}()
	}

	c.Play()

	if *recordPath != "" {
		if err := c.StartRecording(*recordPath); err != nil {
			log.Error("start recording: %v", err)
			os.Exit(1)
		}
		log.Info("recording to %s", *recordPath)
	}

	if err := dev.Start(renderFunc(c)); err != nil {
		log.Error("start device: %v", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	if *recordPath != "" {
		result, err := c.StopRecording()
		if err != nil {
			log.Error("stop recording: %v", err)
		} else {
			log.Info("wrote %s (dropped %d samples)", result.Path, result.DroppedSamples)
		}
	}

	if err := dev.Stop(); err != nil {
		log.Error("stop device: %v", err)
	}
}

// renderFunc adapts the device's combined input/output callback to the
// engine's pull-based InputPuller contract via engine.DirectInput.
func renderFunc(c *controller.Controller) device.RenderFunc {
	return func(n int, inL, inR, outL, outR []float32, timestamp int64) {
		c.Engine().Render(n, engine.DirectInput{L: inL, R: inR}, outL, outR, timestamp)
	}
}

// loadClickFile decodes a click WAV and resamples it to targetRate
// before handing it to load, matching the pre-load resampling contract:
// decoded click PCM is never resampled inside the render path.
func loadClickFile(load func([]float32), path string, targetRate float64) error {
	pcm, sourceRate, err := writer.ReadMonoFloat(path)
	if err != nil {
		return err
	}
	if float64(sourceRate) != targetRate {
		pcm = click.Resample(pcm, float64(sourceRate), targetRate)
	}
	load(pcm)
	return nil
}
