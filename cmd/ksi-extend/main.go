package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gt-ksi/ksi-go/ksi"
)

func main() {
	var mode string
	var tokenPath string
	var responsePath string
	flag.StringVar(&mode, "mode", "request", "request|splice")
	flag.StringVar(&tokenPath, "token", "", "path to the DER token file")
	flag.StringVar(&responsePath, "response", "", "path to the DER CertTokenResponse file (splice mode)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if tokenPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -mode request|splice -token <file> [-response <file>]\n", os.Args[0])
		os.Exit(1)
	}

	tokenDER, err := os.ReadFile(tokenPath)
	if err != nil {
		slog.Error("failed to read token", "error", err)
		os.Exit(1)
	}

	ts, err := ksi.Decode(tokenDER)
	if err != nil {
		slog.Error("failed to decode token", "error", ksi.Code(err))
		os.Exit(1)
	}

	switch mode {
	case "request":
		reqDER, err := ksi.BuildExtensionRequest(ts)
		if err != nil {
			slog.Error("failed to build extension request", "error", ksi.Code(err))
			os.Exit(1)
		}
		fmt.Println(base64.StdEncoding.EncodeToString(reqDER))
		slog.Info("extension request built", "der_len", len(reqDER))
	case "splice":
		if responsePath == "" {
			slog.Error("splice mode requires -response")
			os.Exit(1)
		}
		responseDER, err := os.ReadFile(responsePath)
		if err != nil {
			slog.Error("failed to read response", "error", err)
			os.Exit(1)
		}
		extended, err := ksi.Extend(ts, responseDER)
		if err != nil {
			slog.Error("failed to extend token", "error", ksi.Code(err))
			os.Exit(1)
		}
		extendedDER, err := extended.Encode()
		if err != nil {
			slog.Error("failed to encode extended token", "error", ksi.Code(err))
			os.Exit(1)
		}
		fmt.Println(base64.StdEncoding.EncodeToString(extendedDER))
		slog.Info("token extended", "der_len", len(extendedDER))
	default:
		slog.Error("unknown mode", "mode", mode)
		os.Exit(1)
	}
}
