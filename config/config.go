package config

import (
	"github.com/rs/zerolog"

	"simplepng/compression"
)

type SimplePNGConfig struct {
	LogLevel zerolog.Level

	// VerifyCRC makes the decoder check each chunk's CRC-32 trailer instead of
	// only reading it.
	VerifyCRC bool

	CompressionLevel int
}

var Config = SimplePNGConfig{
	LogLevel:         zerolog.InfoLevel,
	VerifyCRC:        false,
	CompressionLevel: compression.DefaultCompression,
}
