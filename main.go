package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"simplepng/config"
	"simplepng/imageBuffer"
	"simplepng/logging"
	"simplepng/oops"
	"simplepng/pngDecoder"
	"simplepng/pngEncoder"
)

type layerFlags struct {
	dstX, dstY int
	flip       bool
	rotate     int
}

func rootCommand() *cobra.Command {
	var verbose bool
	var layers layerFlags

	cmd := &cobra.Command{
		Use:   "simplepng BASE [LAYER...] [OUTPUT]",
		Short: "Decode, composite and re-encode PNG images",
		Long: `Decodes BASE and, when an OUTPUT is given, pastes every LAYER onto it in
order before writing the result as an 8-bit RGBA PNG. With BASE alone the
file is only decoded, which makes a quick validity check.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				config.Config.LogLevel = zerolog.DebugLevel
			}
			logging.SetLevel(config.Config.LogLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := decodeFile(args[0])
			if err != nil {
				return err
			}
			if len(args) == 1 {
				logging.Info().Str("file", args[0]).Int("width", base.Width).Int("height", base.Height).Msg("decoded")
				return nil
			}

			layerPaths, output := args[1:len(args)-1], args[len(args)-1]
			for _, path := range layerPaths {
				layer, err := decodeFile(path)
				if err != nil {
					return err
				}
				if !layerFits(base, layer, layers) {
					logging.Warn().Str("layer", path).Msg("layer extends past the base image and will be clipped")
				}
				base.Paste(layer, imageBuffer.PasteOptions{
					DstX:   layers.dstX,
					DstY:   layers.dstY,
					FlipH:  layers.flip,
					Rotate: layers.rotate,
				})
				logging.Debug().Str("layer", path).Msg("pasted layer")
			}
			return encodeFile(output, base)
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "log decoder diagnostics")
	flags.BoolVar(&config.Config.VerifyCRC, "verify-crc", config.Config.VerifyCRC, "reject chunks whose CRC-32 does not match")
	flags.IntVar(&config.Config.CompressionLevel, "level", config.Config.CompressionLevel, "deflate level for written files (-1 to 9)")

	cmd.Flags().IntVar(&layers.dstX, "offset-x", 0, "horizontal position of each pasted layer")
	cmd.Flags().IntVar(&layers.dstY, "offset-y", 0, "vertical position of each pasted layer")
	cmd.Flags().BoolVar(&layers.flip, "flip", false, "mirror each layer before pasting")
	cmd.Flags().IntVar(&layers.rotate, "rotate", 0, "quarter turns clockwise applied to each layer before pasting")

	cmd.AddCommand(infoCommand())
	return cmd
}

// layerFits reports whether layer, after rotation, lies entirely inside base.
func layerFits(base, layer *imageBuffer.ImageBuffer, opts layerFlags) bool {
	width, height := layer.Width, layer.Height
	if opts.rotate%2 != 0 {
		width, height = height, width
	}
	return opts.dstX >= 0 && opts.dstY >= 0 && opts.dstX+width <= base.Width && opts.dstY+height <= base.Height
}

func infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE...",
		Short: "Print the IHDR header of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				ihdr, err := readInfo(path)
				if err != nil {
					return err
				}
				printInfo(cmd.OutOrStdout(), path, ihdr)
			}
			return nil
		},
	}
}

func decoderOptions(path string) []pngDecoder.Option {
	logger := logging.GlobalLogger().With().Str("file", path).Logger()
	return []pngDecoder.Option{
		pngDecoder.WithLogger(&logger),
		pngDecoder.WithVerifyCRC(config.Config.VerifyCRC),
	}
}

func decodeFile(path string) (*imageBuffer.ImageBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, oops.New(err, "failed to open image")
	}
	defer f.Close()

	img, err := pngDecoder.Decode(bufio.NewReader(f), decoderOptions(path)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

func readInfo(path string) (pngDecoder.IHDR, error) {
	f, err := os.Open(path)
	if err != nil {
		return pngDecoder.IHDR{}, oops.New(err, "failed to open image")
	}
	defer f.Close()

	ihdr, err := pngDecoder.DecodeConfig(bufio.NewReader(f), decoderOptions(path)...)
	if err != nil {
		return pngDecoder.IHDR{}, fmt.Errorf("%s: %w", path, err)
	}
	return ihdr, nil
}

func printInfo(w io.Writer, path string, ihdr pngDecoder.IHDR) {
	interlace := "none"
	if ihdr.InterlaceMethod == pngDecoder.InterlaceAdam7 {
		interlace = "adam7"
	}
	fmt.Fprintf(w, "%s: %dx%d, %d-bit %v, interlace %s\n", path, ihdr.Width, ihdr.Height, ihdr.BitDepth, ihdr.ColorType, interlace)
}

func encodeFile(path string, img *imageBuffer.ImageBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return oops.New(err, "failed to create output")
	}
	w := bufio.NewWriter(f)
	if err := pngEncoder.Encode(w, img, pngEncoder.WithLevel(config.Config.CompressionLevel), pngEncoder.WithLogger(logging.GlobalLogger())); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return oops.New(err, "failed to write %s", path)
	}
	if err := f.Close(); err != nil {
		return oops.New(err, "failed to close %s", path)
	}
	logging.Info().Str("file", path).Int("width", img.Width).Int("height", img.Height).Msg("wrote image")
	return nil
}

func main() {
	defer logging.LogPanics(nil)

	if err := rootCommand().Execute(); err != nil {
		logging.Fatal().Err(err).Msg("simplepng failed")
	}
}
