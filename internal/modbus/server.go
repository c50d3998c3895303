// Package modbus simulates the Modbus-TCP digital output module that carries
// the uplink indicator, for bench runs and tests without hardware.
package modbus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
)

const (
	functionReadCoils       = 0x01
	functionWriteSingleCoil = 0x05

	exceptionIllegalFunction = 0x01
	exceptionIllegalDataAddr = 0x02
	exceptionIllegalDataVal  = 0x03

	// NumCoils is the size of the simulated output bank.
	NumCoils = 64
)

var (
	errOutOfRange    = errors.New("out of range")
	errInvalidQty    = errors.New("invalid quantity")
	errInvalidValue  = errors.New("invalid coil value")
	errInvalidPDULen = errors.New("invalid pdu length")
)

// CoilWrite is one accepted write-single-coil request.
type CoilWrite struct {
	Address uint16
	On      bool
}

// CoilServer is a minimal Modbus TCP server exposing a bank of coils.
// Every accepted write is recorded and optionally reported to OnWrite.
type CoilServer struct {
	listener  net.Listener
	wg        sync.WaitGroup
	quit      chan struct{}
	closeOnce sync.Once

	// OnWrite must be set before Listen.
	OnWrite func(CoilWrite)

	mu     sync.RWMutex
	coils  [NumCoils]bool
	writes []CoilWrite
}

func NewCoilServer() *CoilServer {
	return &CoilServer{quit: make(chan struct{})}
}

// Listen starts accepting Modbus TCP connections on the provided address.
func (s *CoilServer) Listen(address string) error {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	s.listener = l

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr is the bound listener address, useful after listening on port 0.
func (s *CoilServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *CoilServer) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *CoilServer) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()
	go func() {
		<-s.quit
		conn.Close()
	}()

	header := make([]byte, 7)
	for {
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}

		length := binary.BigEndian.Uint16(header[4:6])
		pduLength := int(length) - 1
		if pduLength <= 0 {
			continue
		}
		pdu := make([]byte, pduLength)
		if _, err := io.ReadFull(conn, pdu); err != nil {
			return
		}

		response := s.handlePDU(pdu)
		// transaction and unit id are echoed from the request
		binary.BigEndian.PutUint16(header[2:4], 0)
		binary.BigEndian.PutUint16(header[4:6], uint16(len(response)+1))
		if _, err := conn.Write(append(header, response...)); err != nil {
			return
		}
	}
}

func (s *CoilServer) handlePDU(pdu []byte) []byte {
	function := pdu[0]
	switch function {
	case functionReadCoils:
		data, err := s.readCoils(pdu)
		if err != nil {
			return exceptionResponse(function, errToCode(err))
		}
		return append([]byte{function, byte(len(data))}, data...)
	case functionWriteSingleCoil:
		if err := s.writeCoil(pdu); err != nil {
			return exceptionResponse(function, errToCode(err))
		}
		return append([]byte(nil), pdu[:5]...)
	default:
		return exceptionResponse(function, exceptionIllegalFunction)
	}
}

func (s *CoilServer) readCoils(pdu []byte) ([]byte, error) {
	if len(pdu) < 5 {
		return nil, errInvalidPDULen
	}
	start := binary.BigEndian.Uint16(pdu[1:3])
	quantity := binary.BigEndian.Uint16(pdu[3:5])
	if quantity == 0 || quantity > 2000 {
		return nil, errInvalidQty
	}
	if int(start)+int(quantity) > NumCoils {
		return nil, errOutOfRange
	}

	result := make([]byte, (int(quantity)+7)/8)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := 0; i < int(quantity); i++ {
		if s.coils[int(start)+i] {
			result[i/8] |= 1 << (uint(i) % 8)
		}
	}
	return result, nil
}

func (s *CoilServer) writeCoil(pdu []byte) error {
	if len(pdu) < 5 {
		return errInvalidPDULen
	}
	addr := binary.BigEndian.Uint16(pdu[1:3])
	value := binary.BigEndian.Uint16(pdu[3:5])
	if int(addr) >= NumCoils {
		return errOutOfRange
	}
	if value != 0xFF00 && value != 0x0000 {
		return errInvalidValue
	}
	w := CoilWrite{Address: addr, On: value == 0xFF00}

	s.mu.Lock()
	s.coils[addr] = w.On
	s.writes = append(s.writes, w)
	s.mu.Unlock()

	if s.OnWrite != nil {
		s.OnWrite(w)
	}
	return nil
}

func exceptionResponse(function byte, code byte) []byte {
	return []byte{function | 0x80, code}
}

func errToCode(err error) byte {
	switch {
	case errors.Is(err, errOutOfRange):
		return exceptionIllegalDataAddr
	case errors.Is(err, errInvalidQty), errors.Is(err, errInvalidValue), errors.Is(err, errInvalidPDULen):
		return exceptionIllegalDataVal
	default:
		return exceptionIllegalFunction
	}
}

// Coil returns the current state of one coil.
func (s *CoilServer) Coil(address uint16) (bool, error) {
	if int(address) >= NumCoils {
		return false, fmt.Errorf("coil %d out of range", address)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coils[address], nil
}

// Writes returns a copy of every write accepted so far.
func (s *CoilServer) Writes() []CoilWrite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]CoilWrite(nil), s.writes...)
}

// Close stops the server and waits for all goroutines to exit.
func (s *CoilServer) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		if s.listener != nil {
			s.listener.Close()
		}
	})
	s.wg.Wait()
}
