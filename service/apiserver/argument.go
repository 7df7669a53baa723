package apiserver

import (
	"fmt"
	"strconv"

	"github.com/meverselabs/coinnet/core/types"
	"github.com/pkg/errors"
)

// Argument parses rpc arguments
type Argument struct {
	args []interface{}
}

// NewArgument returns a Argument
func NewArgument(args []interface{}) *Argument {
	arg := &Argument{
		args: args,
	}
	return arg
}

// Len returns length of arguments
func (arg *Argument) Len() int {
	return len(arg.args)
}

func (arg *Argument) get(index int) (interface{}, error) {
	if index < 0 || index >= len(arg.args) {
		return nil, errors.WithStack(ErrInvalidArgumentIndex)
	}
	a := arg.args[index]
	if a == nil {
		return nil, errors.WithStack(ErrInvalidArgumentType)
	}
	return a, nil
}

// Int returns a int value of the index
func (arg *Argument) Int(index int) (int, error) {
	a, err := arg.get(index)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(fmt.Sprintf("%v", a), 10, 32)
	if err != nil {
		return 0, errors.Wrap(ErrInvalidArgumentType, err.Error())
	}
	return int(n), nil
}

// String returns a string value of the index
func (arg *Argument) String(index int) (string, error) {
	a, err := arg.get(index)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%v", a), nil
}

// Account returns an account value of the index
func (arg *Argument) Account(index int) (types.Account, error) {
	str, err := arg.String(index)
	if err != nil {
		return types.Account{}, err
	}
	acc, err := types.ParseAccount(str)
	if err != nil {
		return types.Account{}, errors.Wrap(ErrInvalidArgument, err.Error())
	}
	return acc, nil
}
