package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/zenibako/arga-golang/arga"
)

var (
	photosPage    int
	photosPerPage int
	photosPick    bool
	mainURL       string
	mainFile      string
	mainPublisher string
	mainRights    string
	mainLicense   string
	mainSource    string
)

var mediaCmd = &cobra.Command{
	Use:   "media <scientific name>",
	Short: "Show the images held for a name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		current, err := client.MainMedia(cmd.Context(), args[0])
		switch {
		case err == nil:
			fmt.Fprintf(out, "Main image: %s\n  %s, %s (%s)\n", current.LargeURL(), current.RightsHolder, current.Publisher, current.License)
		case errors.Is(err, arga.ErrNotFound):
			fmt.Fprintln(out, "No main image")
		default:
			return err
		}

		page, err := client.MediaList(cmd.Context(), args[0], 1, 50)
		if err != nil {
			return err
		}
		t := newTable("ID", "URL", "RIGHTS HOLDER", "LICENSE")
		for _, m := range page.Records {
			t.Row(m.ID, m.URL, m.RightsHolder, m.License)
		}
		fmt.Fprintln(out, t)
		return nil
	},
}

var mediaPhotosCmd = &cobra.Command{
	Use:   "photos <scientific name>",
	Short: "Find licensed iNaturalist photos of a name",
	Long: `Searches research grade iNaturalist observations for licensed photos.
With --pick one of them can be chosen as the main image.`,
	Args: cobra.ExactArgs(1),
	RunE: runMediaPhotos,
}

var mediaSetMainCmd = &cobra.Command{
	Use:   "set-main <scientific name>",
	Short: "Set the main image of a name from a URL or a local file",
	Args:  cobra.ExactArgs(1),
	RunE:  runMediaSetMain,
}

func init() {
	mediaPhotosCmd.Flags().IntVar(&photosPage, "page", 1, "result page")
	mediaPhotosCmd.Flags().IntVar(&photosPerPage, "per-page", 20, "photos per page")
	mediaPhotosCmd.Flags().BoolVar(&photosPick, "pick", false, "choose a photo as the main image")

	mediaSetMainCmd.Flags().StringVar(&mainURL, "url", "", "image URL")
	mediaSetMainCmd.Flags().StringVar(&mainFile, "file", "", "local image to upload instead of --url")
	mediaSetMainCmd.Flags().StringVar(&mainPublisher, "publisher", "", "publisher of the image")
	mediaSetMainCmd.Flags().StringVar(&mainRights, "rights-holder", "", "rights holder of the image")
	mediaSetMainCmd.Flags().StringVar(&mainLicense, "license", "", "license, e.g. cc-by")
	mediaSetMainCmd.Flags().StringVar(&mainSource, "source", "", "page the image comes from")
	mediaSetMainCmd.MarkFlagsMutuallyExclusive("url", "file")
	mediaSetMainCmd.MarkFlagsOneRequired("url", "file")

	mediaCmd.AddCommand(mediaPhotosCmd, mediaSetMainCmd)
}

func runMediaPhotos(cmd *cobra.Command, args []string) error {
	name := args[0]
	inat := arga.NewINaturalist(cfg.INaturalistURL)
	page, err := inat.Photos(cmd.Context(), name, photosPage, photosPerPage)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	t := newTable("ID", "LICENSE", "RIGHTS HOLDER", "URL")
	for _, p := range page.Photos {
		t.Row(fmt.Sprint(p.ID), p.License, p.RightsHolder(), p.URL)
	}
	fmt.Fprintln(out, t)
	fmt.Fprintf(out, "Page %d, %d observations\n", page.Page, page.TotalResults)

	if !photosPick || len(page.Photos) == 0 {
		return nil
	}

	options := make([]huh.Option[int], len(page.Photos))
	for i, p := range page.Photos {
		options[i] = huh.NewOption(fmt.Sprintf("%d  %s  %s", p.ID, p.License, p.RightsHolder()), i)
	}
	var choice int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title(fmt.Sprintf("Main image for %s", name)).
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.RunWithContext(cmd.Context()); err != nil {
		return fmt.Errorf("failed to get photo choice: %w", err)
	}

	if err := client.SetMainMedia(cmd.Context(), page.Photos[choice].MainMedia(name)); err != nil {
		return err
	}
	fmt.Fprintf(out, "Main image of %s set to photo %d\n", name, page.Photos[choice].ID)
	return nil
}

func runMediaSetMain(cmd *cobra.Command, args []string) error {
	name := args[0]
	if mainURL != "" {
		return client.SetMainMedia(cmd.Context(), arga.SetMainMedia{
			URL:            mainURL,
			ScientificName: name,
			Publisher:      mainPublisher,
			RightsHolder:   mainRights,
			License:        mainLicense,
			Source:         mainSource,
		})
	}

	f, err := os.Open(mainFile)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", mainFile, err)
	}
	defer f.Close()

	fileID, err := client.UploadMediaFile(cmd.Context(), filepath.Base(mainFile), f)
	if err != nil {
		return err
	}
	return client.UploadMainMedia(cmd.Context(), arga.UploadMainMedia{
		File:           fileID,
		ScientificName: name,
		Publisher:      mainPublisher,
		RightsHolder:   mainRights,
		License:        mainLicense,
		Source:         mainSource,
	})
}
