package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/photobooth/photobooth-api/internal/pkg/boothclient"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List the filters the API accepts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := newAPIClient().Filters(cmd.Context())
		if err != nil {
			return err
		}
		for _, f := range filters {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", f.ID, f.Name)
		}
		return nil
	},
}

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "List event photos, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()
		photos, err := client.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(photos) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No photos yet")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTYPE\tFILTER\tTAKEN\tIMAGE")
		for _, p := range photos {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
				p.ID, p.Type, p.Filter, p.CreatedAt.Local().Format("15:04:05"), client.ResolveURL(p.FilePath))
		}
		return tw.Flush()
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parsePhotoID(args[0])
		if err != nil {
			return err
		}
		client := newAPIClient()
		p, err := client.Get(cmd.Context(), id)
		if errors.Is(err, boothclient.ErrNotFound) {
			return fmt.Errorf("photo %d not found", id)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Photo #%d (%s, %s)\n", p.ID, p.Type, p.Filter)
		for _, u := range p.PhotoURLs {
			fmt.Fprintf(out, "  %s\n", client.ResolveURL(u))
		}
		fmt.Fprintf(out, "  qr:    %s\n", client.ResolveURL(p.QRCode))
		fmt.Fprintf(out, "  share: %s\n", client.ResolveURL("/share/"+p.ShareID))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a photo and its files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parsePhotoID(args[0])
		if err != nil {
			return err
		}
		err = newAPIClient().Delete(cmd.Context(), id)
		if errors.Is(err, boothclient.ErrNotFound) {
			return fmt.Errorf("photo %d not found", id)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Photo %d deleted\n", id)
		return nil
	},
}

func parsePhotoID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid photo id %q", s)
	}
	return id, nil
}
