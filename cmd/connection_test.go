// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Lumen Lab

package cmd

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newBridgeServer runs a WebSocket serial bridge stand-in. serve gets the
// upgraded connection; the returned URL is ready for OpenWebSocketConnection.
func newBridgeServer(t *testing.T, serve func(*websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		serve(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// readBurst reads until data arrives, tolerating timed-out reads while
// the bridge is quiet.
func readBurst(t *testing.T, conn Connection) []byte {
	t.Helper()
	buf := make([]byte, 64)
	for attempt := 0; attempt < 50; attempt++ {
		n, err := conn.Read(buf)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if n > 0 {
			return buf[:n]
		}
	}
	t.Fatal("no data within the retry budget")
	return nil
}

// ============================================================
// WebSocket Timeout Contract Tests
// ============================================================

func TestWebSocketConnection_TimeoutIsNotFatal(t *testing.T) {
	release := make(chan struct{})
	hold := make(chan struct{})
	t.Cleanup(func() { close(hold) })

	url := newBridgeServer(t, func(c *websocket.Conn) {
		defer c.Close()
		c.WriteMessage(websocket.BinaryMessage, []byte{0x31, 0x32, 0x33})
		<-release
		c.WriteMessage(websocket.BinaryMessage, []byte{0x34, 0x35, 0x36})
		<-hold
	})

	conn, err := OpenWebSocketConnection(url, "", "", false)
	if err != nil {
		t.Fatalf("OpenWebSocketConnection: %v", err)
	}
	defer conn.Close()

	if err := conn.SetReadTimeout(50 * time.Millisecond); err != nil {
		t.Fatalf("SetReadTimeout: %v", err)
	}

	if got := readBurst(t, conn); string(got) != "123" {
		t.Fatalf("first burst: expected 123, got %q", got)
	}

	// the bridge is silent now: reads must time out quietly
	buf := make([]byte, 8)
	n, err := conn.Read(buf)
	if n != 0 || err != nil {
		t.Fatalf("silence should read as (0, nil), got (%d, %v)", n, err)
	}

	// and the connection must survive the timeout
	close(release)
	if got := readBurst(t, conn); string(got) != "456" {
		t.Errorf("second burst: expected 456, got %q", got)
	}
}

func TestWebSocketConnection_ShortBuffer(t *testing.T) {
	hold := make(chan struct{})
	t.Cleanup(func() { close(hold) })

	url := newBridgeServer(t, func(c *websocket.Conn) {
		defer c.Close()
		c.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02, 0x03, 0x04})
		<-hold
	})

	conn, err := OpenWebSocketConnection(url, "", "", false)
	if err != nil {
		t.Fatalf("OpenWebSocketConnection: %v", err)
	}
	defer conn.Close()
	conn.SetReadTimeout(time.Second)

	// a message larger than the read buffer is served across reads
	buf := make([]byte, 3)
	n, err := conn.Read(buf)
	if err != nil || n != 3 {
		t.Fatalf("first read: got (%d, %v)", n, err)
	}
	n, err = conn.Read(buf)
	if err != nil || n != 1 || buf[0] != 0x04 {
		t.Fatalf("remainder read: got (%d, %v, 0x%02X)", n, err, buf[0])
	}
}

func TestWebSocketConnection_SkipsTextMessages(t *testing.T) {
	hold := make(chan struct{})
	t.Cleanup(func() { close(hold) })

	url := newBridgeServer(t, func(c *websocket.Conn) {
		defer c.Close()
		c.WriteMessage(websocket.TextMessage, []byte("status: ok"))
		c.WriteMessage(websocket.BinaryMessage, []byte{0x55})
		<-hold
	})

	conn, err := OpenWebSocketConnection(url, "", "", false)
	if err != nil {
		t.Fatalf("OpenWebSocketConnection: %v", err)
	}
	defer conn.Close()
	conn.SetReadTimeout(100 * time.Millisecond)

	if got := readBurst(t, conn); len(got) != 1 || got[0] != 0x55 {
		t.Errorf("expected the binary byte, got % 02X", got)
	}
}

func TestWebSocketConnection_ClosedByPeer(t *testing.T) {
	url := newBridgeServer(t, func(c *websocket.Conn) {
		c.Close()
	})

	conn, err := OpenWebSocketConnection(url, "", "", false)
	if err != nil {
		t.Fatalf("OpenWebSocketConnection: %v", err)
	}
	defer conn.Close()
	conn.SetReadTimeout(100 * time.Millisecond)

	buf := make([]byte, 8)
	var lastErr error
	for attempt := 0; attempt < 50; attempt++ {
		if _, lastErr = conn.Read(buf); lastErr != nil {
			break
		}
	}
	if !errors.Is(lastErr, ErrConnectionClosed) {
		t.Errorf("expected ErrConnectionClosed after the peer hangs up, got %v", lastErr)
	}
}

func TestWebSocketConnection_WriteRoundTrip(t *testing.T) {
	hold := make(chan struct{})
	t.Cleanup(func() { close(hold) })

	url := newBridgeServer(t, func(c *websocket.Conn) {
		defer c.Close()
		mt, data, err := c.ReadMessage()
		if err != nil || mt != websocket.BinaryMessage {
			return
		}
		c.WriteMessage(websocket.BinaryMessage, data)
		<-hold
	})

	conn, err := OpenWebSocketConnection(url, "", "", false)
	if err != nil {
		t.Fatalf("OpenWebSocketConnection: %v", err)
	}
	defer conn.Close()
	conn.SetReadTimeout(time.Second)

	sent := []byte{0x1E, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x1E}
	if _, err := conn.Write(sent); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := readBurst(t, conn); string(got) != string(sent) {
		t.Errorf("echo mismatch: % 02X", got)
	}
}
