package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/LoisM94/birthday-greeting/pkg/mocksendgrid"
)

func main() {
	addr := defaultString("MOCK_SENDGRID_ADDR", ":8081")
	apiKey := defaultString("MOCK_SENDGRID_API_KEY", "")
	failNext := defaultInt("MOCK_SENDGRID_FAIL_NEXT", 0)
	failStatus := defaultInt("MOCK_SENDGRID_FAIL_STATUS", http.StatusServiceUnavailable)
	dropNext := defaultInt("MOCK_SENDGRID_DROP_NEXT", 0)

	fs := flag.NewFlagSet("mock-sendgrid", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address")
	fs.StringVar(&apiKey, "api-key", apiKey, "Require this bearer key when set")
	fs.IntVar(&failNext, "fail-next", failNext, "Answer the first N sends with --fail-status")
	fs.IntVar(&failStatus, "fail-status", failStatus, "Status code for scripted failures")
	fs.IntVar(&dropNext, "drop-next", dropNext, "Close the connection of the first N sends without responding")
	_ = fs.Parse(os.Args[1:])

	srv := mocksendgrid.New()
	srv.RequireBearerToken(apiKey)
	if failNext > 0 {
		srv.FailNext(failNext, failStatus)
	}
	if dropNext > 0 {
		srv.DropNext(dropNext)
	}

	_, _ = fmt.Fprintf(os.Stdout, "mock-sendgrid listening on %s (auth=%t fail_next=%d drop_next=%d)\n", addr, apiKey != "", failNext, dropNext)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}

func defaultInt(envVar string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
