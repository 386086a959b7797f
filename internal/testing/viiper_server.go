// Package testing provides an in-process VIIPER API server for tests.
package testing

import (
	"bufio"
	"crypto/hmac"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/Alia5/padboard/internal/viiper"
)

// ViiperServer answers the management API and records stream input.
type ViiperServer struct {
	Addr string

	// LEDs is sent to every stream right after it connects.
	LEDs []byte

	key []byte
	ln  net.Listener

	mu       sync.Mutex
	requests []string
	buses    []uint32
	devices  map[uint32][]viiper.Device
	nextDev  int
	stream   []byte
}

// NewViiperServer listens on localhost. A non-empty password enables the
// authenticated, encrypted protocol.
func NewViiperServer(t *testing.T, password string) *ViiperServer {
	t.Helper()

	s := &ViiperServer{devices: map[uint32][]viiper.Device{}}
	if password != "" {
		key, err := viiper.DeriveKey(password)
		if err != nil {
			t.Fatalf("derive key: %v", err)
		}
		s.key = key
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s.ln = ln
	s.Addr = ln.Addr().String()
	t.Cleanup(func() { _ = ln.Close() })

	go s.serve()
	return s
}

// AddBus registers an existing bus.
func (s *ViiperServer) AddBus(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buses = append(s.buses, id)
}

// Requests returns every request line received, in order.
func (s *ViiperServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Devices returns the devices attached to a bus.
func (s *ViiperServer) Devices(bus uint32) []viiper.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.devices[bus])
}

// StreamBytes returns everything written to device streams so far.
func (s *ViiperServer) StreamBytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.stream)
}

func (s *ViiperServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *ViiperServer) handle(raw net.Conn) {
	defer raw.Close()

	var conn net.Conn = raw
	r := bufio.NewReader(raw)
	if s.key != nil {
		secure, err := s.handshake(r, raw)
		if err != nil {
			return
		}
		conn = secure
		r = bufio.NewReader(secure)
	}

	line, err := r.ReadString(0)
	if err != nil {
		return
	}
	line = strings.TrimSuffix(line, "\x00")
	s.mu.Lock()
	s.requests = append(s.requests, line)
	s.mu.Unlock()

	path, payload, _ := strings.Cut(line, " ")
	parts := strings.Split(path, "/")
	if len(parts) == 3 && parts[0] == "bus" && !slices.Contains([]string{"add", "remove", "list"}, parts[2]) {
		s.serveStream(conn, r, parts[1], parts[2])
		return
	}

	resp := s.route(parts, payload)
	b, _ := json.Marshal(resp)
	_, _ = conn.Write(append(b, '\n'))
}

func (s *ViiperServer) handshake(r *bufio.Reader, w net.Conn) (net.Conn, error) {
	magic := make([]byte, len(viiper.HandshakeMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, err
	}
	if string(magic) != viiper.HandshakeMagic {
		b, _ := json.Marshal(viiper.ApiError{Status: 401, Title: "Unauthorized", Detail: "authentication required"})
		_, _ = w.Write(append(b, '\n'))
		return nil, fmt.Errorf("no handshake")
	}
	clientNonce := make([]byte, viiper.NonceSize)
	if _, err := io.ReadFull(r, clientNonce); err != nil {
		return nil, err
	}
	auth := make([]byte, 32)
	if _, err := io.ReadFull(r, auth); err != nil {
		return nil, err
	}
	if !hmac.Equal(auth, viiper.ClientAuth(s.key, clientNonce)) {
		return nil, fmt.Errorf("bad auth")
	}
	serverNonce := make([]byte, viiper.NonceSize)
	_, _ = rand.Read(serverNonce)
	if _, err := w.Write(append([]byte("OK\x00"), serverNonce...)); err != nil {
		return nil, err
	}
	return viiper.WrapConn(w, viiper.DeriveSessionKey(s.key, serverNonce, clientNonce))
}

func (s *ViiperServer) route(parts []string, payload string) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	notFound := viiper.ApiError{Status: 404, Title: "Not Found", Detail: strings.Join(parts, "/")}
	switch {
	case len(parts) == 1 && parts[0] == "ping":
		return viiper.PingResponse{Server: "VIIPER", Version: "test"}
	case len(parts) == 2 && parts[1] == "list":
		return viiper.BusListResponse{Buses: slices.Clone(s.buses)}
	case len(parts) == 2 && parts[1] == "create":
		id, err := strconv.ParseUint(payload, 10, 32)
		if err != nil {
			return viiper.ApiError{Status: 400, Title: "Bad Request", Detail: err.Error()}
		}
		if slices.Contains(s.buses, uint32(id)) {
			return viiper.ApiError{Status: 409, Title: "Conflict", Detail: "bus exists"}
		}
		s.buses = append(s.buses, uint32(id))
		return viiper.BusCreateResponse{BusID: uint32(id)}
	case len(parts) == 2 && parts[1] == "remove":
		id, _ := strconv.ParseUint(payload, 10, 32)
		i := slices.Index(s.buses, uint32(id))
		if i < 0 {
			return notFound
		}
		s.buses = slices.Delete(s.buses, i, i+1)
		delete(s.devices, uint32(id))
		return viiper.BusRemoveResponse{BusID: uint32(id)}
	case len(parts) != 3:
		return notFound
	}

	id, err := strconv.ParseUint(parts[1], 10, 32)
	bus := uint32(id)
	if err != nil || !slices.Contains(s.buses, bus) {
		return notFound
	}
	switch parts[2] {
	case "add":
		var req viiper.DeviceCreateRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return viiper.ApiError{Status: 400, Title: "Bad Request", Detail: err.Error()}
		}
		s.nextDev++
		dev := viiper.Device{BusID: bus, DevID: strconv.Itoa(s.nextDev), Vid: "0x2e8a", Pid: "0x0010", Type: req.Type}
		s.devices[bus] = append(s.devices[bus], dev)
		return dev
	case "remove":
		i := slices.IndexFunc(s.devices[bus], func(d viiper.Device) bool { return d.DevID == payload })
		if i < 0 {
			return notFound
		}
		s.devices[bus] = slices.Delete(s.devices[bus], i, i+1)
		return viiper.DeviceRemoveResponse{BusID: bus, DevID: payload}
	default:
		return viiper.DevicesListResponse{Devices: slices.Clone(s.devices[bus])}
	}
}

func (s *ViiperServer) serveStream(conn net.Conn, r *bufio.Reader, busID, devID string) {
	id, _ := strconv.ParseUint(busID, 10, 32)
	s.mu.Lock()
	found := slices.ContainsFunc(s.devices[uint32(id)], func(d viiper.Device) bool { return d.DevID == devID })
	s.mu.Unlock()
	if !found {
		return
	}
	if len(s.LEDs) > 0 {
		_, _ = conn.Write(s.LEDs)
	}
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.stream = append(s.stream, buf[:n]...)
			s.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}
