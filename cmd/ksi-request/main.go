package main

import (
	"bufio"
	"encoding/base64"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gt-ksi/ksi-go/hashchain"
	"github.com/gt-ksi/ksi-go/ksi"
)

func main() {
	var hashHex string
	var algorithm int
	flag.StringVar(&hashHex, "hash-hex", "", "document digest, hex-encoded (reads stdin if empty)")
	flag.IntVar(&algorithm, "algorithm", int(hashchain.SHA256), "hash algorithm id (0=SHA1 1=SHA256 2=RIPEMD160 3=SHA224 4=SHA384 5=SHA512)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if hashHex == "" {
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			slog.Error("no hash provided on stdin")
			os.Exit(1)
		}
		hashHex = strings.TrimSpace(scanner.Text())
	}

	digest, err := hex.DecodeString(hashHex)
	if err != nil {
		slog.Error("invalid hash hex", "error", err)
		os.Exit(1)
	}

	der, err := ksi.BuildTimestampRequest(byte(algorithm), digest)
	if err != nil {
		slog.Error("failed to build timestamp request", "error", ksi.Code(err))
		os.Exit(1)
	}

	fmt.Println(base64.StdEncoding.EncodeToString(der))
	slog.Info("timestamp request built", "der_len", len(der))
}
