package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/photobooth/photobooth-api/internal/domain/capture"
	"github.com/photobooth/photobooth-api/internal/pkg/imaging"
)

type sessionOptions struct {
	Auto bool // take strip shots without waiting for Enter
}

func newCaptureCmd(mode, short string) *cobra.Command {
	var (
		cameraFile  string
		cameraURL   string
		filter      string
		background  string
		countdown   int
		caption     string
		logoPath    string
		noWatermark bool
		opts        sessionOptions
	)

	cmd := &cobra.Command{
		Use:   mode,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setDefault(cmd, "caption", &caption, cfg.WatermarkCaption)
			setDefault(cmd, "logo", &logoPath, cfg.WatermarkLogoPath)

			m, err := capture.ParseMode(mode)
			if err != nil {
				return err
			}
			f, err := imaging.ParseFilter(filter)
			if err != nil {
				return err
			}

			var camera capture.Camera
			switch {
			case cameraURL != "":
				camera = capture.NewHTTPCamera(cameraURL)
			case cameraFile != "":
				camera = capture.FileCamera{Path: cameraFile}
			default:
				return errors.New("one of --camera-file or --camera-url is required")
			}

			machine, err := capture.NewMachine(capture.Options{
				Camera: camera,
				Pipeline: imaging.NewProcessor(imaging.Config{
					Quality:     cfg.JPEGQuality,
					Caption:     caption,
					LogoPath:    logoPath,
					NoWatermark: noWatermark,
				}),
				Persister:     &apiPersister{client: newAPIClient()},
				Filter:        f,
				Background:    background,
				CountdownFrom: countdown,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rec, err := runSession(ctx, machine, m, opts, cmd.OutOrStdout(), cmd.InOrStdin())
			if err != nil {
				return err
			}
			printRecord(cmd.OutOrStdout(), rec)
			return nil
		},
	}

	cmd.Flags().StringVar(&cameraFile, "camera-file", "", "read frames from this image file")
	cmd.Flags().StringVar(&cameraURL, "camera-url", "", "fetch frames from this snapshot URL")
	cmd.Flags().StringVar(&filter, "filter", string(imaging.FilterNormal), "filter: normal, bw, sepia")
	cmd.Flags().StringVar(&background, "background", "none", "background tag stored with the photo")
	cmd.Flags().IntVar(&countdown, "countdown", 5, "countdown seconds before each shot")
	cmd.Flags().StringVar(&caption, "caption", "", "watermark caption (default WATERMARK_CAPTION)")
	cmd.Flags().StringVar(&logoPath, "logo", "", "watermark logo PNG (default WATERMARK_LOGO_PATH, built-in logo when both empty)")
	cmd.Flags().BoolVar(&noWatermark, "no-watermark", false, "skip the watermark")
	cmd.Flags().BoolVar(&opts.Auto, "auto", true, "take the next strip shot without waiting for Enter")

	return cmd
}

// runSession drives one guest session to completion and returns the stored record.
// Failures are reported once; the operator decides whether to try again.
// Declining returns the failure and keeps any captured frames on the machine.
func runSession(ctx context.Context, m *capture.Machine, mode capture.Mode, opts sessionOptions, out io.Writer, in io.Reader) (*capture.Record, error) {
	events := make(chan capture.Notification, 64)
	unsubscribe := m.Subscribe(func(n capture.Notification) {
		events <- n
	})
	defer unsubscribe()

	input := bufio.NewReader(in)
	trigger := func(prompt string) error {
		if !opts.Auto {
			fmt.Fprintf(out, "%s, press Enter\n", prompt)
			if _, err := input.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
				return err
			}
		}
		return m.Trigger(ctx)
	}

	m.Start(mode)
	if err := trigger("Ready"); err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			m.Back()
			return nil, ctx.Err()

		case n := <-events:
			switch n.Kind {
			case capture.NotifyCountdown:
				fmt.Fprintf(out, "%d...\n", n.Remaining)

			case capture.NotifyProgress:
				fmt.Fprintln(out, n.Message)
				if err := trigger(fmt.Sprintf("Next: photo %d/%d", n.Shot+1, n.Total)); err != nil {
					return nil, err
				}

			case capture.NotifyComplete:
				fmt.Fprintln(out, n.Message)
				return n.Record, nil

			case capture.NotifyError:
				fmt.Fprintln(out, n.Message)
				log.Warn().Err(n.Err).Str("state", n.State.String()).Msg("Capture step failed")

				if errors.Is(n.Err, capture.ErrCameraFailed) {
					if !confirm(out, input, "Try again?") {
						return nil, n.Err
					}
					if err := m.Trigger(ctx); err != nil {
						return nil, err
					}
					continue
				}
				if !confirm(out, input, "Retry upload?") {
					return nil, n.Err
				}
				if err := m.Retry(ctx); err != nil {
					return nil, err
				}
			}
		}
	}
}

// confirm asks a yes/no question. An empty answer means yes, end of input means no.
func confirm(out io.Writer, input *bufio.Reader, question string) bool {
	fmt.Fprintf(out, "%s [Y/n] ", question)
	line, err := input.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true
	default:
		return false
	}
}

func printRecord(w io.Writer, rec *capture.Record) {
	fmt.Fprintf(w, "Photo #%d\n", rec.ID)
	fmt.Fprintf(w, "  image: %s\n", rec.FilePath)
	if len(rec.PhotoURLs) > 1 {
		fmt.Fprintf(w, "  strip: %s\n", strings.Join(rec.PhotoURLs, ", "))
	}
	fmt.Fprintf(w, "  qr:    %s\n", rec.QRCode)
}
