package pngDecoder

import "errors"

var (
	// ErrInvalidPNG matches every error the decoder reports about its input.
	ErrInvalidPNG  = errors.New("png: invalid or unsupported image")
	ErrFormat      = errors.New("png: invalid format")
	ErrUnsupported = errors.New("png: unsupported feature")
	ErrUsage       = errors.New("png: usage error")
)

// A FormatError reports that the input is not a valid PNG.
type FormatError string

func (e FormatError) Error() string { return "png: invalid format: " + string(e) }

func (e FormatError) Is(target error) bool {
	return target == ErrFormat || target == ErrInvalidPNG
}

// An UnsupportedError reports that the input uses a valid but unimplemented PNG feature.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "png: unsupported feature: " + string(e) }

func (e UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported || target == ErrInvalidPNG
}

// A UsageError reports that the decoder was called with something that
// cannot yield PNG bytes at all.
type UsageError string

func (e UsageError) Error() string { return "png: usage error: " + string(e) }

func (e UsageError) Is(target error) bool {
	return target == ErrUsage || target == ErrInvalidPNG
}

func chunkOrderError(what string) error { return FormatError("chunk out of order: " + what) }
