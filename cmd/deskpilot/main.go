// deskpilot is a push-to-talk desktop assistant: hold the shortcut, ask a
// question about what is on screen, and hear the answer.
package main

import (
	"os"

	"golang.design/x/hotkey/mainthread"
)

func main() {
	code := 0
	// Global hotkeys on macOS must be registered from the main thread.
	mainthread.Init(func() {
		if err := newRootCmd().Execute(); err != nil {
			code = 1
		}
	})
	os.Exit(code)
}
