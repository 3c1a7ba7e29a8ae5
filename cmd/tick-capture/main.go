// Command tick-capture records wheel-encoder lines from a serial port into a
// tick log that odometry-ekf can read. It stops on SIGINT/SIGTERM or when
// the device closes.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/odometry/internal/encoderport"
)

// Config holds the command line options.
type Config struct {
	Port     string
	Out      string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("%v", err)
	}

	port, err := encoderport.OpenPort(encoderport.SerialOpener, cfg.Port, cfg.portOptions())
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer port.Close()

	out, err := os.Create(cfg.Out)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", cfg.Out, err)
	}
	w := bufio.NewWriter(out)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Capturing %s -> %s (ctrl-c to stop)", cfg.Port, cfg.Out)
	stats, err := encoderport.NewCapturer().Capture(ctx, port, w)
	if flushErr := w.Flush(); flushErr != nil {
		log.Printf("Warning: flush %s: %v", cfg.Out, flushErr)
	}
	if closeErr := out.Close(); closeErr != nil {
		log.Printf("Warning: close %s: %v", cfg.Out, closeErr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Capture failed: %v", err)
	}
	log.Printf("Captured %d samples (%d lines read, %d dropped)", stats.Written, stats.Lines, stats.Skipped)
}

func (c Config) portOptions() encoderport.PortOptions {
	return encoderport.PortOptions{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		StopBits: c.StopBits,
		Parity:   c.Parity,
	}
}

func parseFlags(args []string, output io.Writer) (Config, error) {
	cfg := Config{}
	fs := flag.NewFlagSet("tick-capture", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.Port, "port", "/dev/ttyUSB0", "Serial device of the encoder board")
	fs.StringVar(&cfg.Out, "out", "", "Tick log file to write")
	fs.IntVar(&cfg.BaudRate, "baud", encoderport.DefaultBaudRate, "Baud rate")
	fs.IntVar(&cfg.DataBits, "data-bits", 8, "Data bits (5-8)")
	fs.IntVar(&cfg.StopBits, "stop-bits", 1, "Stop bits (1 or 2)")
	fs.StringVar(&cfg.Parity, "parity", "N", "Parity: N, E or O")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.Out == "" {
		return cfg, fmt.Errorf("-out is required")
	}
	if _, err := cfg.portOptions().Normalize(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
