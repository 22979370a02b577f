package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/gt-ksi/ksi-go/ksi"
	"golang.org/x/term"
)

func main() {
	var tokenPath string
	var jsonOutput bool
	var explicit bool
	flag.StringVar(&tokenPath, "token", "", "path to the DER token file")
	flag.BoolVar(&jsonOutput, "json", false, "force JSON output even on a terminal")
	flag.BoolVar(&explicit, "explicit", false, "include the explicit VerificationInfo block")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if tokenPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -token <file>\n", os.Args[0])
		os.Exit(1)
	}

	runID := uuid.New().String()
	slog.Info("verifying token", "run_id", runID, "path", tokenPath)

	der, err := os.ReadFile(tokenPath)
	if err != nil {
		slog.Error("failed to read token", "run_id", runID, "error", err)
		os.Exit(1)
	}

	ts, err := ksi.Decode(der)
	if err != nil {
		slog.Error("failed to decode token", "run_id", runID, "error", ksi.Code(err))
		os.Exit(1)
	}

	info, err := ksi.Verify(ts, ksi.VerifyOptions{Explicit: explicit})
	if err != nil {
		slog.Error("verification failed", "run_id", runID, "error", ksi.Code(err))
		os.Exit(1)
	}

	if !jsonOutput && term.IsTerminal(int(os.Stdout.Fd())) {
		printTable(info)
		return
	}
	if err := json.NewEncoder(os.Stdout).Encode(info); err != nil {
		slog.Error("failed to encode result", "run_id", runID, "error", err)
		os.Exit(1)
	}
}

func printTable(info ksi.VerificationInfo) {
	locationName := "-"
	if info.LocationName != nil {
		locationName = *info.LocationName
	}
	fmt.Printf("%-24s %d\n", "location id:", info.LocationID)
	fmt.Printf("%-24s %s\n", "location name:", locationName)
	fmt.Printf("%-24s %d\n", "registered time:", info.RegisteredTime)
	if info.PublicKeyFingerprint != "" {
		fmt.Printf("%-24s %s\n", "key fingerprint:", info.PublicKeyFingerprint)
	}
	if info.PublicationString != "" {
		fmt.Printf("%-24s %s\n", "publication string:", info.PublicationString)
	}
	fmt.Printf("%-24s 0x%X\n", "status bitmap:", info.Status)
	fmt.Printf("%-24s 0x%X\n", "error bitmap:", info.Errors)
	if info.Explicit != nil {
		fmt.Printf("%-24s %s\n", "policy:", info.Explicit.Policy)
		fmt.Printf("%-24s %d\n", "gen time:", info.Explicit.GenTime)
		fmt.Printf("%-24s %s\n", "serial number:", info.Explicit.SerialNumber)
	}
}
