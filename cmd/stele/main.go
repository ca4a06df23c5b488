package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-stele/stele"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	// Prepare cmd
	cmd := &cobra.Command{
		Use:   "stele url [output]",
		Short: "CLI tool for saving a web article as markdown with local images",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  cmdHandler,
	}

	cmd.Flags().StringP("user-agent", "u", "", "set custom user agent")
	cmd.Flags().IntP("timeout", "t", 0, "maximum time (in second) before request timeout")
	cmd.Flags().Int("max-retries", 0, "max retries for transient fetch failures")

	cmd.Flags().Bool("no-images", false, "skip downloading images")
	cmd.Flags().Bool("no-curl", false, "never fall back to the curl binary")
	cmd.Flags().String("curl-path", "", "path to the curl binary")

	cmd.Flags().StringP("config", "c", "", "path to YAML config file")
	cmd.Flags().BoolP("quiet", "q", false, "disable logging")
	cmd.Flags().Bool("verbose", false, "more verbose logging")

	// Execute
	err := cmd.Execute()
	if err != nil {
		logrus.Fatalln(err)
	}
}

func cmdHandler(cmd *cobra.Command, args []string) error {
	// Parse flags
	userAgent, _ := cmd.Flags().GetString("user-agent")
	timeout, _ := cmd.Flags().GetInt("timeout")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	disableImages, _ := cmd.Flags().GetBool("no-images")
	disableCurl, _ := cmd.Flags().GetBool("no-curl")
	curlPath, _ := cmd.Flags().GetString("curl-path")
	configPath, _ := cmd.Flags().GetString("config")
	disableLog, _ := cmd.Flags().GetBool("quiet")
	useVerboseLog, _ := cmd.Flags().GetBool("verbose")

	cfg, err := loadMergedConfig(options{
		ConfigPath: configPath,
		UserAgent:  userAgent,
		Timeout:    timeout,
		MaxRetries: maxRetries,
		CurlPath:   curlPath,
		NoImages:   disableImages,
		NoCurl:     disableCurl,
	})
	if err != nil {
		return err
	}

	outputPath := ""
	if len(args) > 1 {
		outputPath = args[1]
	}

	// Create scribe
	scribe := stele.Scribe{
		UserAgent:        cfg.UserAgent,
		EnableLog:        !disableLog,
		EnableVerboseLog: !disableLog && useVerboseLog,

		DisableImages: cfg.NoImages,
		DisableCurl:   cfg.NoCurl,
		CurlPath:      cfg.CurlPath,

		RequestTimeout: time.Duration(cfg.Timeout) * time.Second,
		MaxRetries:     cfg.MaxRetries,
	}

	var bar *imageBar
	if !disableLog && !cfg.NoImages {
		bar = newImageBar()
		scribe.ImageProgress = bar.update
	}

	scribe.Validate()

	result, err := scribe.Save(context.Background(), stele.Request{
		URL:        args[0],
		OutputPath: outputPath,
	})
	if bar != nil {
		bar.wait()
	}
	if err != nil {
		return err
	}

	warnFailedImages(result)

	if !disableLog {
		fmt.Printf("saved %q to %s via %s\n", result.Title, result.OutputPath, result.Method)
	}

	return nil
}

// warnFailedImages reports images that could not be downloaded and kept
// their remote references in the document, closing with their count.
func warnFailedImages(result *stele.Result) {
	for _, img := range result.Images {
		if img.Err != nil {
			logrus.Warnf("image %s kept remote: %v\n", img.URL, img.Err)
		}
	}

	if failed := result.FailedImages(); failed > 0 {
		logrus.Warnf("%d of %d images kept remote\n", failed, len(result.Images))
	}
}
