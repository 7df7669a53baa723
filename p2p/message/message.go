package message

import (
	"io"
	"reflect"
	"sort"

	"github.com/pkg/errors"
)

// Message is a payload of the wire protocol
type Message interface {
	Command() string
	io.WriterTo
	io.ReaderFrom
}

var gMessageTypeMap = map[string]reflect.Type{}

// RegisterMessage binds the command of m to the type of m
func RegisterMessage(m Message) string {
	rt := reflect.TypeOf(m)
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	cmd := m.Command()
	if len(cmd) > CommandSize {
		panic(errors.Wrap(ErrInvalidCommand, cmd))
	}
	if _, has := gMessageTypeMap[cmd]; has {
		panic(errors.Wrap(ErrExistMessageType, cmd))
	}
	gMessageTypeMap[cmd] = rt
	return cmd
}

// CreateMessage returns an empty message of the command
func CreateMessage(cmd string) (Message, error) {
	rt, has := gMessageTypeMap[cmd]
	if !has {
		return nil, errors.Wrap(ErrUnknownMessage, cmd)
	}
	return reflect.New(rt).Interface().(Message), nil
}

// Commands returns the registered commands
func Commands() []string {
	cmds := make([]string, 0, len(gMessageTypeMap))
	for cmd := range gMessageTypeMap {
		cmds = append(cmds, cmd)
	}
	sort.Strings(cmds)
	return cmds
}

// IsHandshake returns the message belongs to the version handshake or not
func IsHandshake(m Message) bool {
	switch m.(type) {
	case *Version, *Verack:
		return true
	default:
		return false
	}
}
