package log

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tevino/abool"
)

// concept
/*
- Logging function:
  - check if package-based levelling enabled
    - if yes, check if level is active on this package
  - check if level is active
  - send data to backend via big buffered channel
- Backend:
  - wait until there is time for writing logs
  - write logs
  - console: log everything to the configured output (stdout by default)
- Channel overbuffering protection:
  - if buffer is full, trigger write
  - if logging was not started yet, drop the line
*/

// Severity describes a log level.
type Severity uint32

// Message describes a log level message and is implemented
// by logLine.
type Message interface {
	Text() string
	Severity() Severity
	Time() time.Time
	File() string
	LineNumber() int
}

type logLine struct {
	msg       string
	level     Severity
	timestamp time.Time
	file      string
	line      int
}

func (ll *logLine) Text() string {
	return ll.msg
}

func (ll *logLine) Severity() Severity {
	return ll.level
}

func (ll *logLine) Time() time.Time {
	return ll.timestamp
}

func (ll *logLine) File() string {
	return ll.file
}

func (ll *logLine) LineNumber() int {
	return ll.line
}

// Log Levels.
const (
	TraceLevel    Severity = 1
	DebugLevel    Severity = 2
	InfoLevel     Severity = 3
	WarningLevel  Severity = 4
	ErrorLevel    Severity = 5
	CriticalLevel Severity = 6
)

var (
	logBuffer             chan *logLine
	forceEmptyingOfBuffer = make(chan struct{})

	logLevelInt = uint32(InfoLevel)
	logLevel    = &logLevelInt

	pkgLevelsActive = abool.NewBool(false)
	pkgLevels       = make(map[string]Severity)
	pkgLevelsLock   sync.Mutex

	started        = abool.NewBool(false)
	startLock      sync.Mutex
	shutdownSignal chan struct{}
	writerDone     chan struct{}

	// ErrAlreadyStarted is returned when Start is called more than once.
	ErrAlreadyStarted = errors.New("logging already started")
)

func init() {
	logBuffer = make(chan *logLine, 1024)
}

// SetPkgLevels sets individual log levels for packages. Only effective after Start().
func SetPkgLevels(levels map[string]Severity) {
	pkgLevelsLock.Lock()
	pkgLevels = levels
	pkgLevelsLock.Unlock()
	pkgLevelsActive.Set()
}

// UnSetPkgLevels removes all individual log levels for packages.
func UnSetPkgLevels() {
	pkgLevelsActive.UnSet()
}

// GetLogLevel returns the current log level.
func GetLogLevel() Severity {
	return Severity(atomic.LoadUint32(logLevel))
}

// SetLogLevel sets a new log level. Only effective after Start().
func SetLogLevel(level Severity) {
	atomic.StoreUint32(logLevel, uint32(level))
}

// Name returns the name of the log level.
func (s Severity) Name() string {
	switch s {
	case TraceLevel:
		return "trace"
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarningLevel:
		return "warning"
	case ErrorLevel:
		return "error"
	case CriticalLevel:
		return "critical"
	default:
		return "none"
	}
}

// ParseLevel returns the level severity of a log level name.
func ParseLevel(level string) Severity {
	switch strings.ToLower(level) {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warning", "warn":
		return WarningLevel
	case "error":
		return ErrorLevel
	case "critical":
		return CriticalLevel
	}
	return 0
}

// ParsePkgLevels parses package log levels in the form of "database=trace,storage=debug".
func ParsePkgLevels(levels string) (map[string]Severity, error) {
	parsed := make(map[string]Severity)
	for _, pair := range strings.Split(levels, ",") {
		if pair == "" {
			continue
		}
		splitted := strings.Split(pair, "=")
		if len(splitted) != 2 {
			return nil, fmt.Errorf("invalid package log level %q", pair)
		}
		pkgLevel := ParseLevel(splitted[1])
		if pkgLevel == 0 {
			return nil, fmt.Errorf("invalid log level %q for package %s", splitted[1], splitted[0])
		}
		parsed[splitted[0]] = pkgLevel
	}
	return parsed, nil
}

// Start starts the logging system. Must be called in order to see logs.
func Start() error {
	startLock.Lock()
	defer startLock.Unlock()

	if started.IsSet() {
		return ErrAlreadyStarted
	}

	// apply command line flags
	if logLevelFlag != "" {
		initialLogLevel := ParseLevel(logLevelFlag)
		if initialLogLevel == 0 {
			fmt.Fprintf(os.Stderr, "log warning: invalid log level %q, falling back to level info\n", logLevelFlag)
			initialLogLevel = InfoLevel
		}
		SetLogLevel(initialLogLevel)
	}
	if pkgLogLevelsFlag != "" {
		newPkgLevels, err := ParsePkgLevels(pkgLogLevelsFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log warning: %s, ignoring package levels\n", err)
		} else {
			SetPkgLevels(newPkgLevels)
		}
	}

	shutdownSignal = make(chan struct{})
	writerDone = make(chan struct{})
	started.Set()
	go writer(shutdownSignal, writerDone)

	return nil
}

// Shutdown writes remaining log lines and waits for the writer to finish.
func Shutdown() {
	startLock.Lock()
	defer startLock.Unlock()

	if started.SetToIf(true, false) {
		close(shutdownSignal)
		<-writerDone
	}
}
