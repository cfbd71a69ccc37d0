/*
 * Kestrel - main process.
 *
 * Copyright 2024, Richard Cornwell
 * Copyright 2026, Kestrel contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Command kestrel wires the emulation context (core.System) to the host:
// CLI flags via pborman/getopt, the flat and layered config readers, the
// logging and diagnostic sinks, and either the interactive console or the
// remote monitor, adapted from the teacher's root main.go.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"
	"github.com/spf13/pflag"

	"github.com/kestrel-emu/kestrel/emu/core"
	"github.com/kestrel-emu/kestrel/internal/config"
	"github.com/kestrel-emu/kestrel/internal/console"
	"github.com/kestrel-emu/kestrel/internal/diag"
	"github.com/kestrel-emu/kestrel/internal/logging"
	"github.com/kestrel-emu/kestrel/internal/monitor"
)

func main() {
	optROM := getopt.StringLong("rom", 'r', "", "Cartridge ROM image")
	optBIOS9 := getopt.StringLong("bios9", '9', "", "CPU A BIOS image")
	optBIOS7 := getopt.StringLong("bios7", '7', "", "CPU B BIOS image")
	optSave := getopt.StringLong("save", 's', "", "Save memory image")
	optSDCard := getopt.StringLong("sdcard", 'd', "", "Homebrew SD card image")
	optFirmware := getopt.StringLong("firmware", 'f', "", "Firmware image (reserved, not yet consumed)")
	optConfig := getopt.StringLong("config", 'c', "kestrel.cfg", "Flat configuration file")
	optSettings := getopt.StringLong("settings", 0, "", "Layered YAML/TOML settings file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optMonitor := getopt.StringLong("monitor", 'm', "", "Remote monitor listen address (host:port)")
	optHeadless := getopt.BoolLong("headless", 0, "Run without the interactive console")
	optDebug := getopt.BoolLong("debug", 'v', "Verbose diagnostic logging")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	logFile, err := logging.Setup(*optLogFile, *optDebug)
	if err != nil {
		slog.Error("kestrel: log setup failed", "err", err)
		os.Exit(1)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	if *optDebug {
		diag.Enable(diag.CategoryBus | diag.CategoryDecode | diag.CategoryCart)
	}

	slog.Info("kestrel started")

	if _, statErr := os.Stat(*optConfig); statErr == nil {
		if err := config.LoadFile(*optConfig); err != nil {
			slog.Error("kestrel: config load failed", "err", err)
			os.Exit(1)
		}
	}

	layered := config.NewLayered(pflag.CommandLine)
	if *optSettings != "" {
		if err := layered.ReadFile(*optSettings); err != nil {
			slog.Error("kestrel: settings load failed", "err", err)
			os.Exit(1)
		}
	}

	if *optBIOS9 == "" || *optBIOS7 == "" {
		slog.Error("kestrel: -bios9 and -bios7 are required")
		os.Exit(1)
	}
	bios9, err := os.ReadFile(*optBIOS9)
	if err != nil {
		slog.Error("kestrel: read bios9", "err", err)
		os.Exit(1)
	}
	bios7, err := os.ReadFile(*optBIOS7)
	if err != nil {
		slog.Error("kestrel: read bios7", "err", err)
		os.Exit(1)
	}

	sys := core.New(bios9, bios7, slog.Default())

	if *optFirmware != "" {
		if _, err := os.Stat(*optFirmware); err != nil {
			slog.Error("kestrel: read firmware", "err", err)
			os.Exit(1)
		}
		slog.Warn("kestrel: -firmware accepted but not yet consumed by any component")
	}

	if *optROM != "" {
		rom, err := os.ReadFile(*optROM)
		if err != nil {
			slog.Error("kestrel: read rom", "err", err)
			os.Exit(1)
		}
		var save, sdcard []byte
		if *optSave != "" {
			save, _ = os.ReadFile(*optSave)
		}
		if *optSDCard != "" {
			sdcard, _ = os.ReadFile(*optSDCard)
		}
		if err := sys.LoadCart(rom, save, sdcard, bios7); err != nil {
			slog.Error("kestrel: load_rom failed", "err", err)
			os.Exit(1)
		}
	}

	go sys.Start()

	var mon *monitor.Server
	if *optMonitor != "" {
		mon, err = monitor.Start(*optMonitor, sys)
		if err != nil {
			slog.Error("kestrel: monitor start failed", "err", err)
			os.Exit(1)
		}
	}

	if *optHeadless {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
	} else {
		console.Run(sys)
	}

	slog.Info("kestrel: shutting down")
	sys.Stop()
	if mon != nil {
		mon.Stop()
	}
}
