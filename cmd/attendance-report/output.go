package main

import (
	"encoding/json"
	"io"
	"os"
)

type reportOutput struct {
	Command    string `json:"command"`
	Tenant     string `json:"tenant"`
	Actor      string `json:"actor"`
	DurationMS int64  `json:"duration_ms"`
	Result     any    `json:"result"`
}

func writeJSON(v any) error {
	return encodeJSON(os.Stdout, v)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
