package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

func healthCmd(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	u := strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/healthz"
	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Get(u)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(string(b))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}

// blocksCmd runs a one-shot query on the server and prints a summary
// instead of the full frame.
func blocksCmd(args []string) {
	fs := flag.NewFlagSet("blocks", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	seed := fs.String("seed", "", "seed text (empty: server clock)")
	x0 := fs.Float64("x0", 0, "viewport min x")
	y0 := fs.Float64("y0", 0, "viewport min y")
	x1 := fs.Float64("x1", 1, "viewport max x")
	y1 := fs.Float64("y1", 1, "viewport max y")
	_ = fs.Parse(args)

	q := url.Values{}
	if *seed != "" {
		q.Set("seed", *seed)
	}
	q.Set("x0", fmt.Sprint(*x0))
	q.Set("y0", fmt.Sprint(*y0))
	q.Set("x1", fmt.Sprint(*x1))
	q.Set("y1", fmt.Sprint(*y1))
	u := strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/v1/blocks?" + q.Encode()

	cl := &http.Client{Timeout: 30 * time.Second}
	resp, err := cl.Get(u)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		fmt.Println(string(b))
		os.Exit(1)
	}

	var f struct {
		AscentSteps int               `json:"ascent_steps"`
		Blocks      []json.RawMessage `json:"blocks"`
		Digest      string            `json:"digest"`
		Root        json.RawMessage   `json:"root"`
	}
	if err := json.Unmarshal(b, &f); err != nil {
		fmt.Fprintln(os.Stderr, "decode:", err)
		os.Exit(1)
	}
	fmt.Printf("blocks=%d ascent_steps=%d digest=%s root=%s\n", len(f.Blocks), f.AscentSteps, f.Digest, f.Root)
}
