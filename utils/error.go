package utils

import "errors"

var (
	ErrorLockNotObtained = errors.New("could not obtain sync lock")
)
