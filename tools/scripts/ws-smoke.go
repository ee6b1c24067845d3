// Package main provides a CI-friendly smoke test for Minder notifications.
//
// It validates:
//   - API registration and bearer login
//   - WebSocket handshake on /ws/notifications with a bearer token
//   - note creation with share_with fanout
//   - a resource.shared frame arriving at the grantee
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

type tokenResponse struct {
	Token string `json:"token"`
}

type apiLoginResponse struct {
	Session tokenResponse `json:"session"`
}

type notificationFrame struct {
	Kind string            `json:"kind"`
	Data map[string]string `json:"data"`
}

func main() {
	var (
		baseURL = flag.String("url", "http://127.0.0.1:8080", "Minder base URL")
		timeout = flag.Duration("timeout", 10*time.Second, "Per-step timeout")
		verbose = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 3*(*timeout))
	defer cancel()

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	owner := "smoke-owner-" + suffix
	grantee := "smoke-grantee-" + suffix

	ownerTok := mustRegister(ctx, *baseURL, owner, verbose)
	granteeTok := mustRegister(ctx, *baseURL, grantee, verbose)

	wsURL := "ws" + strings.TrimPrefix(*baseURL, "http") + "/ws/notifications"
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + granteeTok}},
	})
	if err != nil {
		fatalf("ws dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	logf(verbose, "ws connected as %s", grantee)

	// Give the server a moment to register the subscription.
	time.Sleep(200 * time.Millisecond)

	createShared(ctx, *baseURL, ownerTok, grantee, verbose)

	readCtx, readCancel := context.WithTimeout(ctx, *timeout)
	defer readCancel()

	var frame notificationFrame
	if err := wsjson.Read(readCtx, conn, &frame); err != nil {
		fatalf("read notification: %v", err)
	}
	if frame.Kind != "resource.shared" || frame.Data["resource_type"] != "note" {
		fatalf("unexpected frame: %+v", frame)
	}

	fmt.Println("ws-smoke: OK")
}

func mustRegister(ctx context.Context, baseURL, username string, verbose *bool) string {
	body := map[string]string{
		"username": username,
		"password": "Smoke-test-pass-1",
	}
	var out apiLoginResponse
	postJSON(ctx, baseURL+"/api/auth/register", "", body, nil, http.StatusCreated)
	postJSON(ctx, baseURL+"/api/auth/login", "", body, &out, http.StatusOK)
	if out.Session.Token == "" {
		fatalf("no bearer token for %s", username)
	}
	logf(verbose, "registered %s", username)
	return out.Session.Token
}

func createShared(ctx context.Context, baseURL, bearer, grantee string, verbose *bool) {
	body := map[string]any{
		"title":      "smoke note",
		"content":    "shared by ws-smoke",
		"share_with": []string{grantee},
	}
	postJSON(ctx, baseURL+"/api/notes", bearer, body, nil, http.StatusCreated)
	logf(verbose, "note created and shared with %s", grantee)
}

func postJSON(ctx context.Context, url, bearer string, body any, out any, wantStatus int) {
	buf, err := json.Marshal(body)
	if err != nil {
		fatalf("marshal %s: %v", url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		fatalf("request %s: %v", url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		fatalf("POST %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			fatalf("decode %s: %v", url, err)
		}
	}
}

func logf(verbose *bool, format string, args ...any) {
	if verbose != nil && *verbose {
		fmt.Printf("ws-smoke: "+format+"\n", args...)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ws-smoke: "+format+"\n", args...)
	os.Exit(1)
}
