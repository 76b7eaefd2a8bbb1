// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tcuerr defines the unified error value returned by every
// fallible operation in this driver.
package tcuerr

import "fmt"

// Class tags the broad origin of an Error.
type Class int

const (
	// Driver marks an error raised by this driver's own logic.
	Driver Class = iota
	// FileSystem marks an error from a platform.FileSystem operation.
	FileSystem
	// Vendor marks an error returned by a vendor DMA/transport call.
	Vendor
)

func (c Class) String() string {
	switch c {
	case Driver:
		return "driver"
	case FileSystem:
		return "fs"
	case Vendor:
		return "vendor"
	default:
		return "unknown"
	}
}

// Code enumerates the driver-class error codes. FileSystem and Vendor
// errors carry a zero Code and rely on the wrapped Err for detail.
type Code int

const (
	// NoCode is used for FileSystem and Vendor errors, which carry their
	// detail in the wrapped Err instead.
	NoCode Code = iota
	DmaDeviceNotFound
	InsufficientBuffer
	UnexpectedConstsSize
	UnexpectedProgramSize
	InvalidJSON
	InvalidModel
	InvalidArch
	InvalidPlatform
	IncompatibleModel
	UnexpectedInputName
	UnexpectedOutputName
	OutOfHeapMemory
	OutOfSampleBuffer
)

func (c Code) String() string {
	switch c {
	case DmaDeviceNotFound:
		return "DmaDeviceNotFound"
	case InsufficientBuffer:
		return "InsufficientBuffer"
	case UnexpectedConstsSize:
		return "UnexpectedConstsSize"
	case UnexpectedProgramSize:
		return "UnexpectedProgramSize"
	case InvalidJSON:
		return "InvalidJson"
	case InvalidModel:
		return "InvalidModel"
	case InvalidArch:
		return "InvalidArch"
	case InvalidPlatform:
		return "InvalidPlatform"
	case IncompatibleModel:
		return "IncompatibleModel"
	case UnexpectedInputName:
		return "UnexpectedInputName"
	case UnexpectedOutputName:
		return "UnexpectedOutputName"
	case OutOfHeapMemory:
		return "OutOfHeapMemory"
	case OutOfSampleBuffer:
		return "OutOfSampleBuffer"
	default:
		return "NoCode"
	}
}

// Error is the single error type returned by every package in this module.
// A distinguished "no error" is simply a nil *Error.
type Error struct {
	Class Class
	Code  Code
	// Msg is contextual detail: a file path, an input name, a device id.
	Msg string
	// Err wraps an underlying cause (os error, vendor status), if any.
	Err error
}

func (e *Error) Error() string {
	if e.Msg == "" && e.Err == nil {
		return fmt.Sprintf("tcu: %s: %s", e.Class, e.Code)
	}
	if e.Err == nil {
		return fmt.Sprintf("tcu: %s: %s: %s", e.Class, e.Code, e.Msg)
	}
	if e.Msg == "" {
		return fmt.Sprintf("tcu: %s: %s: %v", e.Class, e.Code, e.Err)
	}
	return fmt.Sprintf("tcu: %s: %s: %s: %v", e.Class, e.Code, e.Msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Driverf builds a Driver-class Error with a formatted message.
func Driverf(code Code, format string, args ...interface{}) *Error {
	return &Error{Class: Driver, Code: code, Msg: fmt.Sprintf(format, args...)}
}

// FS wraps a file-system error with the path that caused it.
func FS(path string, err error) *Error {
	return &Error{Class: FileSystem, Msg: path, Err: err}
}

// VendorErr wraps a vendor/transport status error.
func VendorErr(op string, err error) *Error {
	return &Error{Class: Vendor, Msg: op, Err: err}
}
