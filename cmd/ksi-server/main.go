package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gt-ksi/ksi-go/httpapi"
)

func main() {
	var host string
	var port int
	flag.StringVar(&host, "host", "0.0.0.0", "HTTP server host")
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/timestamp/request", httpapi.HandleTimestampRequest)
	mux.HandleFunc("/api/v1/timestamp/create", httpapi.HandleTimestampCreate)
	mux.HandleFunc("/api/v1/timestamp/extend/request", httpapi.HandleExtendRequest)
	mux.HandleFunc("/api/v1/timestamp/extend", httpapi.HandleExtend)
	mux.HandleFunc("/api/v1/timestamp/verify", httpapi.HandleVerify)
	mux.HandleFunc("/health", httpapi.HandleHealth)
	mux.HandleFunc("/docs", httpapi.HandleDocsUI)
	mux.HandleFunc("/docs/swagger.json", httpapi.HandleDocsJSON)

	addr := fmt.Sprintf("%s:%d", host, port)
	slog.Info("starting server", "host", host, "port", port)
	if err := http.ListenAndServe(addr, httpapi.WithRequestID(mux)); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
