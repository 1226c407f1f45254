package backlight

import "errors"

var (
	ErrDeviceNotFound  = errors.New("no backlight device found")
	ErrIO              = errors.New("i/o error")
	ErrParse           = errors.New("malformed control file")
	ErrInvalidArgument = errors.New("invalid value")
	ErrInvalidValue    = errors.New("brightness out of range")
)
