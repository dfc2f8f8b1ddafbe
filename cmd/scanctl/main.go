// scanctl runs one-off phishing scans from the command line.
package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"threatwatch/internal/phishing"
)

func main() {
	urlFlag := flag.String("url", "", "URL to scan")
	emailFile := flag.String("email", "", "path to an email body to scan")
	sender := flag.String("sender", "", "sender address for -email")
	contentFile := flag.String("content", "", "path to page/file content to scan")
	flag.Parse()

	scorer := phishing.NewScorer(nil)

	var assessment phishing.Assessment
	switch {
	case *urlFlag != "":
		assessment = scorer.ScoreURL(*urlFlag)
	case *emailFile != "":
		body, err := os.ReadFile(*emailFile)
		if err != nil {
			slog.Error("read email body", "path", *emailFile, "err", err)
			os.Exit(1)
		}
		assessment = scorer.ScoreEmail(string(body), *sender)
	case *contentFile != "":
		body, err := os.ReadFile(*contentFile)
		if err != nil {
			slog.Error("read content", "path", *contentFile, "err", err)
			os.Exit(1)
		}
		assessment = phishing.ScoreContent(string(body), *contentFile)
	default:
		flag.Usage()
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(assessment); err != nil {
		slog.Error("encode result", "err", err)
		os.Exit(1)
	}
}
