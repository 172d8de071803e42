package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"taskctl/internal/dump"
	"taskctl/internal/elfsym"
	"taskctl/internal/transport"
)

var flagFlash bool

// dumpCmd is the one-shot batch variant: it writes the flash payload to
// elf.dump and exits, optionally streaming the file to the device first.
// Unlike the interactive commands it never blocks on the drain.
var dumpCmd = &cobra.Command{
	Use:   "dump <file> <symbol>",
	Short: "Write the flash payload to elf.dump, optionally flashing it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		image, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read image %s: %w", args[0], err)
		}
		info, err := elfsym.Inspect(image)
		if err != nil {
			return err
		}
		addr, err := elfsym.Resolve(image, args[1])
		if err != nil {
			return err
		}
		log.Info().
			Str("type", info.Type.String()).
			Str("machine", info.Machine.String()).
			Str("entry", fmt.Sprintf("0x%X", info.Entry)).
			Str("symbol", args[1]).
			Str("addr", fmt.Sprintf("0x%X", addr)).
			Int("image_bytes", len(image)).
			Msg("image inspected")

		payload := dump.FlashPayload(image, addr)
		if err := dump.WriteFrame(cfg.FlashPath, payload); err != nil {
			return err
		}
		log.Info().Str("path", cfg.FlashPath).Int("bytes", len(payload)).Msg("flash payload written")

		if !flagFlash {
			return nil
		}
		if cfg.Device == "" {
			return errNoDevice
		}

		content, err := dump.ReadPayload(cfg.FlashPath)
		if err != nil {
			return err
		}
		port, err := transport.Open(cfg.Device, cfg.Baud)
		if err != nil {
			return err
		}
		defer port.Close()

		log.Info().Int("bytes", len(content)).Str("device", cfg.Device).Msg("flashing")
		if err := transport.WriteAll(port, content); err != nil {
			return err
		}
		log.Info().Msg("flash complete")
		return nil
	},
}

func init() {
	dumpCmd.Flags().BoolVar(&flagFlash, "flash", false, "stream the payload to the device after writing it")
}
