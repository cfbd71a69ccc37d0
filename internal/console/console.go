/*
 * Kestrel - interactive debugger console.
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

// Package console adapts command/reader's liner-based prompt loop
// (NewLiner/SetCtrlCAborts/SetCompleter/Prompt) to internal/debugcmd's
// dispatcher. The "error: " prefix prints in red, using fatih/color the way
// the rest of the corpus reaches for a terminal-color library rather than
// raw ANSI escapes; command output, the "regs" dump included, prints
// without color.
package console

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/kestrel-emu/kestrel/emu/core"
	"github.com/kestrel-emu/kestrel/internal/debugcmd"
)

var errPrefix = color.New(color.FgRed, color.Bold).SprintFunc()

// Run starts the prompt loop and blocks until the user quits or aborts
// with Ctrl-C. sys must already be constructed (New); it need not be
// running.
func Run(sys *core.System) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(partial string) []string {
		return debugcmd.Complete(partial)
	})

	for {
		command, err := line.Prompt("kestrel> ")
		if err == nil {
			line.AppendHistory(command)
			out, quit, derr := debugcmd.Dispatch(command, sys)
			if derr != nil {
				fmt.Println(errPrefix("error: ") + derr.Error())
			} else if out != "" {
				fmt.Println(out)
			}
			if quit {
				return
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		slog.Error("console: error reading line", "err", err)
		return
	}
}
