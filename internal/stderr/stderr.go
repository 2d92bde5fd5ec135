//go:build !windows

// Package stderr captures stderr output from C libraries (ALSA, minimp3)
// that write directly to file descriptor 2, bypassing Go's os.Stderr.
// Captured lines are handed to the logger instead of interleaving with it.
package stderr

import (
	"bufio"
	"io"
	"os"
	"strings"
	"syscall"
)

// Messages receives stderr lines captured from C libraries.
var Messages = make(chan string, 100)

var (
	origStderr int
	pipeRead   *os.File
	pipeWrite  *os.File
	started    bool
)

// Start begins capturing stderr output.
// Must be called early in main(), before the audio device is opened.
// Returns an error if capture cannot be set up, but the program can continue
// without stderr capture.
func Start() error {
	if started {
		return nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	origStderr, err = syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return err
	}

	// Redirect stderr (fd 2) to the pipe's write end
	err = syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd()))
	if err != nil {
		syscall.Close(origStderr)
		r.Close()
		w.Close()
		return err
	}

	pipeRead = r
	pipeWrite = w
	started = true

	go func() {
		scanner := bufio.NewScanner(pipeRead)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				select {
				case Messages <- line:
				default:
					// Channel full, drop message to avoid blocking
				}
			}
		}
	}()

	return nil
}

// Original returns a writer to the stderr in place before Start.
func Original() io.Writer {
	return originalWriter{}
}

type originalWriter struct{}

func (originalWriter) Write(p []byte) (int, error) {
	if !started {
		return os.Stderr.Write(p)
	}
	return syscall.Write(origStderr, p)
}

// Stop restores the original stderr. Should be called on program exit.
func Stop() {
	if !started {
		return
	}

	_ = syscall.Dup2(origStderr, int(os.Stderr.Fd()))
	_ = syscall.Close(origStderr)

	pipeWrite.Close()
	pipeRead.Close()

	close(Messages)
	started = false
}
