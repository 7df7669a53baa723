package rlog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
)

// Logger is a leveled key/value logger
type Logger = log.Logger

// Lazy defers an expensive log value until the record is written
type Lazy = log.Lazy

// errors
var (
	ErrInvalidLevel = errors.New("invalid log level")
)

var (
	outputLock sync.Mutex
	output     io.Writer = os.Stderr
	level                = log.LvlInfo
)

func init() {
	apply()
}

func apply() {
	log.Root().SetHandler(log.LvlFilterHandler(level, log.StreamHandler(output, log.TerminalFormat(false))))
}

// SetLevel sets the level of the root logger. Accepted values are
// trace, debug, info, warn, error and crit.
func SetLevel(name string) error {
	lvl, err := log.LvlFromString(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return errors.Wrap(ErrInvalidLevel, name)
	}
	outputLock.Lock()
	defer outputLock.Unlock()
	level = lvl
	apply()
	return nil
}

// SetOutput redirects the root logger
func SetOutput(w io.Writer) {
	outputLock.Lock()
	defer outputLock.Unlock()
	output = w
	apply()
}

// New returns a logger with the given key/value context
func New(ctx ...interface{}) Logger {
	return log.New(ctx...)
}

// Println calls l.Output to print to the logger.
func Println(v ...interface{}) {
	log.Info(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

// Fatal logs at the critical level and exits the process
func Fatal(v ...interface{}) {
	log.Error(fmt.Sprint(v...))
	os.Exit(1)
}
