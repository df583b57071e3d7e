package log

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	output     io.Writer = os.Stdout
	useColor             = true
	outputLock sync.Mutex
)

// SetOutput sets the writer log lines are written to. Colors are disabled for
// any writer other than stdout or stderr.
func SetOutput(w io.Writer) {
	outputLock.Lock()
	defer outputLock.Unlock()

	output = w
	useColor = w == os.Stdout || w == os.Stderr
}

func writeLine(line *logLine) {
	outputLock.Lock()
	defer outputLock.Unlock()

	fmt.Fprintln(output, formatLine(line, useColor))
}

func writer(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case line := <-logBuffer:
			writeLine(line)
		case <-forceEmptyingOfBuffer:
			writeAll()
		case <-stop:
			writeAll()
			return
		}
	}
}

// writeAll writes all the logs currently in the buffer.
func writeAll() {
	for {
		select {
		case line := <-logBuffer:
			writeLine(line)
		default:
			return
		}
	}
}
