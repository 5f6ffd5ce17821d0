package telemetry

import (
	"fmt"
	"log"
	"net"
	"strconv"
	"sync"
)

type udpConn interface {
	Write(p []byte) (int, error)
	Close() error
}

type resolveUDPAddrFunc func(network, address string) (*net.UDPAddr, error)
type dialUDPFunc func(network string, laddr, raddr *net.UDPAddr) (udpConn, error)

// UDPSink sends one "label=value\n" datagram per value.
type UDPSink struct {
	dest string
	conn udpConn

	mu      sync.Mutex
	buf     []byte
	errs    uint64
	lastErr error
}

func NewUDPSink(dest string) (*UDPSink, error) {
	return newUDPSink(dest, net.ResolveUDPAddr, func(network string, laddr, raddr *net.UDPAddr) (udpConn, error) {
		return net.DialUDP(network, laddr, raddr)
	})
}

func newUDPSink(dest string, resolve resolveUDPAddrFunc, dial dialUDPFunc) (*UDPSink, error) {
	addr, err := resolve("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resolve dest: %w", err)
	}

	// DialUDP selects a suitable local address automatically.
	conn, err := dial("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("telemetry: dial udp: %w", err)
	}
	return &UDPSink{dest: dest, conn: conn}, nil
}

func (s *UDPSink) Show(label string, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return
	}
	s.buf = append(s.buf[:0], label...)
	s.buf = append(s.buf, '=')
	s.buf = strconv.AppendInt(s.buf, value, 10)
	s.buf = append(s.buf, '\n')
	if _, err := s.conn.Write(s.buf); err != nil {
		if s.errs == 0 {
			log.Printf("telemetry: udp send to %s failed: %v", s.dest, err)
		}
		s.errs++
		s.lastErr = err
	}
}

// Errors returns the number of failed sends and the most recent error.
func (s *UDPSink) Errors() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs, s.lastErr
}

func (s *UDPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
