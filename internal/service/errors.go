package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument 是所有请求参数校验错误的根。
	ErrInvalidArgument = errors.New("invalid argument")

	ErrMissingName  = fmt.Errorf("%w: missing name", ErrInvalidArgument)
	ErrMissingType  = fmt.Errorf("%w: missing type", ErrInvalidArgument)
	ErrMissingData  = fmt.Errorf("%w: missing data", ErrInvalidArgument)
	ErrInvalidData  = fmt.Errorf("%w: data is not valid base64", ErrInvalidArgument)
	ErrInvalidSize  = fmt.Errorf("%w: unsupported thumbnail size", ErrInvalidArgument)
	ErrMissingEmail = fmt.Errorf("%w: missing email", ErrInvalidArgument)
	ErrMissingPass  = fmt.Errorf("%w: missing password", ErrInvalidArgument)

	ErrParentNotFound     = errors.New("parent not found")
	ErrParentNotAFolder   = errors.New("parent is not a folder")
	ErrNotFound           = errors.New("not found")
	ErrNotAFile           = errors.New("folder has no content")
	ErrStorageWriteFailed = errors.New("storage write failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrAlreadyExists      = errors.New("already exists")
)
