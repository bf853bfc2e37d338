//go:build linux

package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"golang.org/x/sys/cpu"

	"github.com/rpihpc/vc4"
)

// report is what `vc4ctl info` prints: the firmware view of the device
// plus the host CPU features relevant to feeding the GPU.
type report struct {
	Device vc4.DeviceInfo `json:"device"`
	Host   hostInfo       `json:"host"`
}

type hostInfo struct {
	Arch    string `json:"arch"`
	NumCPU  int    `json:"num_cpu"`
	HasNEON bool   `json:"has_neon"`
	HasFP   bool   `json:"has_fp"`
}

func collectHostInfo() hostInfo {
	return hostInfo{
		Arch:    runtime.GOARCH,
		NumCPU:  runtime.NumCPU(),
		HasNEON: cpu.ARM.HasNEON || cpu.ARM64.HasASIMD,
		HasFP:   cpu.ARM.HasVFPv3 || cpu.ARM64.HasFP,
	}
}

func infoCmd() *cli.Command {
	var jsonOut bool

	return &cli.Command{
		Name:  "info",
		Usage: "Show firmware revision, memory split and host capabilities",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "emit JSON", Destination: &jsonOut},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyGlobalConfig(cmd, cfg)

			dev, err := vc4.OpenPaths(mailboxPath, memPath)
			if err != nil {
				return err
			}
			defer dev.Close()

			info, err := dev.Info()
			if err != nil {
				return err
			}
			r := report{Device: info, Host: collectHostInfo()}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}

			fmt.Printf("Firmware revision: 0x%08X\n", r.Device.FirmwareRevision)
			fmt.Printf("ARM memory:        0x%08X + %d MiB\n", r.Device.ARMBase, r.Device.ARMSize>>20)
			fmt.Printf("VC memory:         0x%08X + %d MiB\n", r.Device.VCBase, r.Device.VCSize>>20)
			fmt.Printf("Host:              %s, %d cores, NEON=%v FP=%v\n",
				r.Host.Arch, r.Host.NumCPU, r.Host.HasNEON, r.Host.HasFP)
			return nil
		},
	}
}
