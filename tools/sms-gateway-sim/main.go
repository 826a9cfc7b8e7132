package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// Stands in for the SMS gateway during local development: accepts the
// webhook the front desk posts confirmations to and prints each
// message to stdout.
func main() {
	var (
		addr  = flag.String("addr", getenv("ADDR", ":9090"), "listen address")
		token = flag.String("token", getenv("SMS_WEBHOOK_TOKEN", ""), "expected bearer token (empty disables the check)")
		fail  = flag.Bool("fail", false, "respond 502 to every message, for testing failure handling")
	)
	flag.Parse()

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if *token != "" && r.Header.Get("Authorization") != "Bearer "+*token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var msg struct {
			To   string `json:"to"`
			Body string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(msg.To) == "" {
			http.Error(w, "to is required", http.StatusBadRequest)
			return
		}
		if *fail {
			fmt.Printf("REJECTED to=%s body=%q\n", msg.To, msg.Body)
			http.Error(w, "simulated gateway failure", http.StatusBadGateway)
			return
		}
		fmt.Printf("SMS to=%s body=%q\n", msg.To, msg.Body)
		w.WriteHeader(http.StatusOK)
	})

	fmt.Printf("sms gateway simulator listening on %s\n", *addr)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
