//go:build linux

package main

import (
	"context"
	"fmt"
	"time"
	"unsafe"

	"github.com/urfave/cli/v3"

	"github.com/rpihpc/vc4"
	"github.com/rpihpc/vc4/internal/logger"
)

const fillSeed = 0xDEADBEEF

// benchCmd compares the two ways of getting data into GPU-visible memory:
// filling a cached host buffer and copying it into a GPU buffer, versus
// writing straight into an uncached zero-copy buffer. The copy path pays
// twice (cached fill plus memcpy); the zero-copy path pays once at the
// slower uncached store rate.
func benchCmd() *cli.Command {
	var (
		sizeMB     int
		iterations int
		warmup     int
		output     string
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Benchmark copy vs zero-copy write bandwidth into GPU memory",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "size-mb", Usage: "working set size in MiB", Value: 64, Destination: &sizeMB},
			&cli.IntFlag{Name: "iterations", Usage: "timed iterations", Value: 5, Destination: &iterations},
			&cli.IntFlag{Name: "warmup", Usage: "untimed warmup iterations", Value: 1, Destination: &warmup},
			&cli.StringFlag{Name: "output", Usage: "write a JSON session report to this file", Destination: &output},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyGlobalConfig(cmd, cfg)
			if cfg.Bench.SizeMB > 0 && !cmd.IsSet("size-mb") {
				sizeMB = cfg.Bench.SizeMB
			}
			if cfg.Bench.Iterations > 0 && !cmd.IsSet("iterations") {
				iterations = cfg.Bench.Iterations
			}
			if cfg.Bench.Warmup > 0 && !cmd.IsSet("warmup") {
				warmup = cfg.Bench.Warmup
			}

			log := logger.Default(logger.ParseLevel(logLevel))
			size := uint32(sizeMB) << 20

			dev, err := vc4.OpenPaths(mailboxPath, memPath)
			if err != nil {
				return err
			}
			defer dev.Close()

			session := newBenchSession("write-bandwidth")
			log.Info("starting bench", "session", session.ID, "size_mb", sizeMB, "iterations", iterations)

			copied, err := benchCopy(dev, size, warmup, iterations)
			session.record(copied)
			if err != nil {
				return err
			}
			direct, err := benchZeroCopy(dev, size, warmup, iterations)
			session.record(direct)
			if err != nil {
				return err
			}

			log.Info("copy path", "mb_per_sec", fmt.Sprintf("%.1f", copied.MBPerSec))
			log.Info("zero-copy path", "mb_per_sec", fmt.Sprintf("%.1f", direct.MBPerSec))

			if output != "" {
				if err := session.write(output); err != nil {
					return err
				}
				log.Info("report written", "path", output)
			}
			return nil
		},
	}
}

// benchCopy measures fill-then-copy through a cached host buffer.
func benchCopy(dev *vc4.Device, size uint32, warmup, iterations int) (BenchResult, error) {
	buf, err := dev.NewBuffer(size, vc4.PageSize, vc4.MemFlagCoherent|vc4.MemFlagZero)
	if err != nil {
		return failedResult("copy", err), err
	}
	defer buf.Destroy()

	host := make([]uint32, size/4)
	elapsed, err := timeFills(warmup, iterations, func() error {
		fillPattern(host, fillSeed)
		copy(buf.Bytes(), wordBytes(host))
		return nil
	})
	if err != nil {
		return failedResult("copy", err), err
	}
	res := makeResult("copy", size, iterations, elapsed)
	res.Verified = verifyPattern(buf.Uint32s(), fillSeed)
	return res, nil
}

// benchZeroCopy measures writing straight into an uncached GPU buffer.
func benchZeroCopy(dev *vc4.Device, size uint32, warmup, iterations int) (BenchResult, error) {
	buf, err := dev.NewBuffer(size, vc4.PageSize, vc4.MemFlagZeroCopy)
	if err != nil {
		return failedResult("zero-copy", err), err
	}
	defer buf.Destroy()

	words := buf.Uint32s()
	elapsed, err := timeFills(warmup, iterations, func() error {
		fillPattern(words, fillSeed)
		return nil
	})
	if err != nil {
		return failedResult("zero-copy", err), err
	}
	res := makeResult("zero-copy", size, iterations, elapsed)
	res.Verified = verifyPattern(words, fillSeed)
	return res, nil
}

func timeFills(warmup, iterations int, fill func() error) (time.Duration, error) {
	for i := 0; i < warmup; i++ {
		if err := fill(); err != nil {
			return 0, err
		}
	}
	start := time.Now()
	for i := 0; i < iterations; i++ {
		if err := fill(); err != nil {
			return 0, err
		}
	}
	return time.Since(start), nil
}

func wordBytes(w []uint32) []byte {
	if len(w) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&w[0])), len(w)*4)
}

func fillPattern(dst []uint32, seed uint32) {
	v := seed
	for i := range dst {
		dst[i] = v
		v++
	}
}

func verifyPattern(words []uint32, seed uint32) bool {
	v := seed
	for _, w := range words {
		if w != v {
			return false
		}
		v++
	}
	return true
}
