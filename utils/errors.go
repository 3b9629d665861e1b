package utils

import (
	"github.com/pkg/errors"
)

// WrapError 为 err 附加上下文信息，err 为 nil 时返回 nil
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}

func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}
