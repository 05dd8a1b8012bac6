package main

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"misinfo-guard/internal/crawler"
	"misinfo-guard/internal/extension"
	"misinfo-guard/internal/ioformats"
)

var (
	scanInput       string
	scanOutput      string
	scanConcurrency int
)

var scanCmd = &cobra.Command{
	Use:   "scan [url...]",
	Short: "Scan pages and print one NDJSON record per page",
	Long: `Fetches each page, runs one scan pass over it, classifies the
candidate text and prints the verdicts:

  {"url": "...", "annotations": [{"text", "profile", "status", "reason"}], "error": "..."}`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	urls := append([]string(nil), args...)
	if scanInput != "" {
		more, err := ioformats.ReadURLs(scanInput)
		if err != nil {
			return err
		}
		urls = append(urls, more...)
	}
	if len(urls) == 0 {
		return errors.New("no urls: pass them as arguments or with --input")
	}

	ext, err := extension.New(cfg, log, false)
	if err != nil {
		return err
	}
	defer ext.Close()

	fetcher := crawler.NewHTTPClient(15*time.Second, cfg.Classifier.DialTimeout, 5*1024*1024)
	reports := ext.ScanURLs(cmd.Context(), fetcher, urls, scanConcurrency)

	var w io.Writer = cmd.OutOrStdout()
	if scanOutput != "" {
		f, err := os.Create(scanOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return ioformats.WriteNDJSON(w, reports)
}
