package rcon

import (
	"bytes"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"cs2panel/internal/domain"
)

func TestPacketRoundTrip(t *testing.T) {
	in := &packet{RequestID: 42, Type: typeExecCommand, Body: "status"}
	data, err := encodePacket(in)
	if err != nil {
		t.Fatalf("encodePacket: %v", err)
	}

	out, err := readPacket(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("readPacket: %v", err)
	}
	if out.RequestID != in.RequestID {
		t.Errorf("RequestID = %d, want %d", out.RequestID, in.RequestID)
	}
	if out.Type != in.Type {
		t.Errorf("Type = %d, want %d", out.Type, in.Type)
	}
	if out.Body != in.Body {
		t.Errorf("Body = %q, want %q", out.Body, in.Body)
	}
}

func TestEncodePacketTooLarge(t *testing.T) {
	p := &packet{RequestID: 1, Type: typeExecCommand, Body: strings.Repeat("a", maxPacketSize)}
	if _, err := encodePacket(p); err == nil {
		t.Fatal("expected error for oversized body")
	}
}

func TestReadPacketRejectsBadSize(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x01, 0x00, 0x00, 0x00}) // size 1, below minimum
	if _, err := readPacket(&buf); err == nil {
		t.Fatal("expected error for undersized packet")
	}
}

// fakeServer speaks just enough of the Source RCON protocol for the
// client: auth, exec with sentinel echo, multi-fragment responses.
type fakeServer struct {
	ln       net.Listener
	password string
	handle   func(cmd string) []string
}

func newFakeServer(t *testing.T, password string, handle func(cmd string) []string) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeServer{ln: ln, password: password, handle: handle}
	go s.acceptLoop()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *fakeServer) addr() string { return s.ln.Addr().String() }

func (s *fakeServer) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.serve(conn)
	}
}

func (s *fakeServer) serve(conn net.Conn) {
	defer conn.Close()
	for {
		p, err := readPacket(conn)
		if err != nil {
			return
		}
		switch p.Type {
		case typeAuth:
			id := p.RequestID
			if p.Body != s.password {
				id = -1
			}
			writePacket(conn, &packet{RequestID: id, Type: 2}, time.Now().Add(time.Second))
		case typeExecCommand:
			if p.Body == "hang" {
				// swallow the sentinel too, then go quiet
				readPacket(conn)
				continue
			}
			for _, frag := range s.handle(p.Body) {
				writePacket(conn, &packet{RequestID: p.RequestID, Type: typeResponseValue, Body: frag}, time.Now().Add(time.Second))
			}
		case typeResponseValue:
			// sentinel: echo it back empty
			writePacket(conn, &packet{RequestID: p.RequestID, Type: typeResponseValue}, time.Now().Add(time.Second))
		}
	}
}

func echoHandler(cmd string) []string {
	return []string{"resp:" + cmd}
}

func TestClientSend(t *testing.T) {
	srv := newFakeServer(t, "secret", echoHandler)
	c := NewClient(srv.addr(), "secret")
	defer c.Close()

	out, err := c.Send("status", time.Second)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if out != "resp:status" {
		t.Errorf("Send = %q, want %q", out, "resp:status")
	}
	if !c.Connected() {
		t.Error("expected client to report connected")
	}
}

func TestClientMultiFragmentResponse(t *testing.T) {
	srv := newFakeServer(t, "secret", func(cmd string) []string {
		return []string{"part1 ", "part2"}
	})
	c := NewClient(srv.addr(), "secret")
	defer c.Close()

	out, err := c.Send("big", time.Second)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if out != "part1 part2" {
		t.Errorf("Send = %q, want %q", out, "part1 part2")
	}
}

func TestClientConcurrentSendsMatchResponses(t *testing.T) {
	srv := newFakeServer(t, "secret", echoHandler)
	c := NewClient(srv.addr(), "secret")
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			cmd := fmt.Sprintf("cmd-%d", n)
			out, err := c.Send(cmd, 2*time.Second)
			if err != nil {
				t.Errorf("Send(%s): %v", cmd, err)
				return
			}
			if out != "resp:"+cmd {
				t.Errorf("Send(%s) = %q, want %q", cmd, out, "resp:"+cmd)
			}
		}(i)
	}
	wg.Wait()
}

func TestClientAuthFailure(t *testing.T) {
	srv := newFakeServer(t, "secret", echoHandler)
	c := NewClient(srv.addr(), "wrong")
	defer c.Close()

	_, err := c.Send("status", time.Second)
	if err == nil {
		t.Fatal("expected auth failure")
	}
	if domain.KindOf(err) != domain.KindProtocol {
		t.Errorf("error kind = %v, want KindProtocol", domain.KindOf(err))
	}
}

func TestClientTimeoutResetsConnection(t *testing.T) {
	srv := newFakeServer(t, "secret", echoHandler)
	c := NewClient(srv.addr(), "secret")
	defer c.Close()

	if _, err := c.Send("status", time.Second); err != nil {
		t.Fatalf("warmup Send: %v", err)
	}

	_, err := c.Send("hang", 200*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if c.Connected() {
		t.Error("expected connection to be dropped after timeout")
	}

	// next command reconnects cleanly
	out, err := c.Send("status", 2*time.Second)
	if err != nil {
		t.Fatalf("Send after timeout: %v", err)
	}
	if out != "resp:status" {
		t.Errorf("Send after timeout = %q, want %q", out, "resp:status")
	}
}

func TestClientClosed(t *testing.T) {
	srv := newFakeServer(t, "secret", echoHandler)
	c := NewClient(srv.addr(), "secret")
	c.Close()

	if _, err := c.Send("status", time.Second); err == nil {
		t.Fatal("expected error from closed client")
	}
}

func TestPoolEnsureReusesClient(t *testing.T) {
	srv := newFakeServer(t, "secret", echoHandler)
	p := NewPool()
	defer p.DropAll()

	id := uuid.New()
	a := p.Ensure(id, srv.addr(), "secret")
	b := p.Ensure(id, srv.addr(), "secret")
	if a != b {
		t.Error("Ensure returned a new client for the same instance")
	}

	p.Drop(id)
	if _, ok := p.Get(id); ok {
		t.Error("client still present after Drop")
	}
}
