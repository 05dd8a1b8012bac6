package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"misinfo-guard/internal/crawler"
	"misinfo-guard/internal/extension"
	"misinfo-guard/internal/host"
	"misinfo-guard/internal/ioformats"
	"misinfo-guard/internal/page"
	"misinfo-guard/internal/panel"
	"misinfo-guard/internal/parser"
)

var (
	analyzeURL   string
	analyzeInput string
	analyzeHTML  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Check a piece of text the way the context menu does",
	Long: `Opens a tab (on --url, or a blank page), selects the text and
triggers "Check headline with MisInfo Guard". The resolved panel and any
notifications raised on the way are printed as JSON, one document per
headline when --input is used.`,
	RunE: runAnalyze,
}

type analyzeOutput struct {
	Panel         panel.View          `json:"panel"`
	Notifications []host.Notification `json:"notifications,omitempty"`
	Error         string              `json:"error,omitempty"`
	HTML          string              `json:"html,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var texts []string
	if len(args) > 0 {
		texts = append(texts, strings.Join(args, " "))
	}
	if analyzeInput != "" {
		more, err := ioformats.ReadHeadlines(analyzeInput)
		if err != nil {
			return err
		}
		texts = append(texts, more...)
	}
	if len(texts) == 0 {
		return errors.New("nothing to analyze: pass the text as an argument or use --input")
	}

	ext, err := extension.New(cfg, log, false)
	if err != nil {
		return err
	}
	defer ext.Close()

	enc := json.NewEncoder(cmd.OutOrStdout())
	if len(texts) == 1 {
		enc.SetIndent("", "  ")
	}
	for _, text := range texts {
		out, err := analyzeOne(cmd.Context(), ext, text)
		if err != nil {
			return err
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}

func analyzeOne(ctx context.Context, ext *extension.Extension, text string) (analyzeOutput, error) {
	p, err := openPage(ctx)
	if err != nil {
		return analyzeOutput{}, err
	}
	tab := ext.Browser.OpenTab(p)
	defer tab.Close()

	ctx, notes := host.CollectNotifications(ctx)
	var out analyzeOutput
	out.Panel, err = ext.Analyze(ctx, tab, text)
	if err != nil {
		out.Error = err.Error()
	}
	out.Notifications = notes()
	if analyzeHTML {
		if out.HTML, err = p.HTML(); err != nil {
			return out, err
		}
	}
	return out, nil
}

func openPage(ctx context.Context) (*page.Page, error) {
	if analyzeURL == "" {
		return page.Blank("about:blank"), nil
	}
	fetcher := crawler.NewHTTPClient(15*time.Second, cfg.Classifier.DialTimeout, 5*1024*1024)
	resp, err := fetcher.Fetch(ctx, analyzeURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return parser.New().Parse(resp.Body, resp.ContentType, resp.FinalURL)
}
