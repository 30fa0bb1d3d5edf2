package hardware

import (
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// ErrNoDevice is the defined "nothing attached" outcome of detection;
// it is a result, not a fault.
var ErrNoDevice = errors.New("hardware: no device detected")

const (
	// Serial link settings. 115200 matches the baud the generated firmware
	// is instructed to log at.
	DefaultBaud = 115200

	readTimeout  = 100 * time.Millisecond
	pollInterval = 100 * time.Millisecond

	// DTR reset handshake: deassert, hold, reassert, hold longer. This is
	// the standard trigger most ESP32 dev boards use to drop into a ready
	// state after the port opens.
	dtrLowHold  = 100 * time.Millisecond
	dtrHighHold = 500 * time.Millisecond
)

// serialPort is the subset of go.bug.st/serial.Port the bridge uses;
// narrowed so tests can fake it.
type serialPort interface {
	Read(p []byte) (int, error)
	SetDTR(level bool) error
	SetReadTimeout(t time.Duration) error
	Close() error
}

// Bridge owns at most one live serial connection. All operations serialize
// on its lock: there is exactly one physical device, so a single-operator
// discipline is enforced rather than documented away.
type Bridge struct {
	mu       sync.Mutex
	port     serialPort
	portName string
	baud     int

	listPorts func() ([]PortInfo, error)
	openPort  func(device string, baud int) (serialPort, error)
	runner    Runner
}

// NewBridge returns a bridge using the real enumerator, serial stack and
// subprocess runner.
func NewBridge(baud int) *Bridge {
	if baud <= 0 {
		baud = DefaultBaud
	}
	return &Bridge{
		baud:      baud,
		listPorts: ListPorts,
		openPort:  openSerial,
		runner:    execRunner{},
	}
}

func openSerial(device string, baud int) (serialPort, error) {
	return serial.Open(device, &serial.Mode{BaudRate: baud})
}

// Detect resolves the most likely attached device, or false if none.
func (b *Bridge) Detect() (string, bool) {
	ports, err := b.listPorts()
	if err != nil {
		log.Printf("hardware: port enumeration failed: %v", err)
		return "", false
	}
	return DetectPort(ports)
}

// Connect opens a serial connection to device, detecting one when device is
// empty, and runs the DTR reset handshake. An already-open connection is
// closed first; the bridge never pools. Failures are reported as false.
func (b *Bridge) Connect(device string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connectLocked(device)
}

func (b *Bridge) connectLocked(device string) bool {
	if device == "" {
		ports, err := b.listPorts()
		if err != nil {
			log.Printf("hardware: port enumeration failed: %v", err)
			return false
		}
		var ok bool
		if device, ok = DetectPort(ports); !ok {
			return false
		}
	}

	if b.port != nil {
		b.disconnectLocked()
	}

	port, err := b.openPort(device, b.baud)
	if err != nil {
		log.Printf("hardware: open %s failed: %v", device, err)
		return false
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		log.Printf("hardware: set read timeout on %s failed: %v", device, err)
		_ = port.Close()
		return false
	}

	if err := port.SetDTR(false); err != nil {
		log.Printf("hardware: DTR reset on %s failed: %v", device, err)
		_ = port.Close()
		return false
	}
	time.Sleep(dtrLowHold)
	if err := port.SetDTR(true); err != nil {
		log.Printf("hardware: DTR reset on %s failed: %v", device, err)
		_ = port.Close()
		return false
	}
	time.Sleep(dtrHighHold)

	b.port = port
	b.portName = device
	return true
}

// Disconnect closes the connection if open and clears the state
// unconditionally. Safe to call when already disconnected.
func (b *Bridge) Disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnectLocked()
}

func (b *Bridge) disconnectLocked() {
	if b.port != nil {
		_ = b.port.Close()
	}
	b.port = nil
	b.portName = ""
}

// ReadSerial connects if needed and collects trimmed, non-empty lines from
// the device until duration elapses. Bytes that are not valid UTF-8 are
// replaced rather than rejected.
func (b *Bridge) ReadSerial(duration time.Duration) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.port == nil && !b.connectLocked("") {
		return nil
	}

	var lines []string
	b.pollLocked(duration, func(line string) error {
		lines = append(lines, line)
		return nil
	})
	return lines
}

// Monitor connects if needed and invokes fn for each line as it arrives,
// until duration elapses or fn returns an error. The connection is torn down
// on exit either way.
func (b *Bridge) Monitor(fn func(line string) error, duration time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.port == nil && !b.connectLocked("") {
		return ErrNoDevice
	}
	defer b.disconnectLocked()
	return b.pollLocked(duration, fn)
}

// pollLocked reads the port at a fixed interval until the wall-clock
// deadline, splitting the stream into lines. Once started it runs to the
// deadline; the duration parameter is the only cancellation mechanism.
func (b *Bridge) pollLocked(duration time.Duration, fn func(line string) error) error {
	deadline := time.Now().Add(duration)
	buf := make([]byte, 1024)
	var pending strings.Builder

	for time.Now().Before(deadline) {
		n, err := b.port.Read(buf)
		if err != nil {
			return nil
		}
		if n == 0 {
			time.Sleep(pollInterval)
			continue
		}
		pending.Write(buf[:n])
		text := pending.String()
		for {
			i := strings.IndexByte(text, '\n')
			if i < 0 {
				break
			}
			line := strings.TrimSpace(strings.ToValidUTF8(text[:i], "�"))
			text = text[i+1:]
			if line == "" {
				continue
			}
			if err := fn(line); err != nil {
				return err
			}
		}
		pending.Reset()
		pending.WriteString(text)
	}
	return nil
}

// TestResult classifies serial output collected while a test sketch runs.
type TestResult struct {
	Success    bool     `json:"success"`
	Output     []string `json:"output"`
	TestPassed bool     `json:"test_passed"`
	Error      string   `json:"error,omitempty"`
}

// RunTest connects, collects output for up to timeout, and scans it for
// case-insensitive pass/fail tokens. The first failing line wins and stops
// the scan. The connection is always torn down, whatever the outcome.
//
// TODO: materialize code as a test sketch and upload it before monitoring;
// today the device is assumed to already run the test firmware.
func (b *Bridge) RunTest(code string, timeout time.Duration) TestResult {
	_ = code
	result := TestResult{Output: []string{}}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.port == nil && !b.connectLocked("") {
		result.Error = "could not connect to device"
		return result
	}
	defer b.disconnectLocked()

	b.pollLocked(timeout, func(line string) error {
		result.Output = append(result.Output, line)
		return nil
	})
	result.Success = true

	for _, line := range result.Output {
		upper := strings.ToUpper(line)
		if strings.Contains(upper, "PASS") || strings.Contains(upper, "OK") {
			result.TestPassed = true
		} else if strings.Contains(upper, "FAIL") || strings.Contains(upper, "ERROR") {
			result.TestPassed = false
			break
		}
	}
	return result
}

// Status is a synchronous snapshot of the bridge.
type Status struct {
	Connected      bool       `json:"connected"`
	Port           string     `json:"port,omitempty"`
	BaudRate       int        `json:"baud_rate,omitempty"`
	AvailablePorts []PortInfo `json:"available_ports"`
}

// Status reports the connection state and the current port enumeration.
// No side effects.
func (b *Bridge) Status() Status {
	b.mu.Lock()
	connected := b.port != nil
	portName := b.portName
	baud := b.baud
	b.mu.Unlock()

	ports, err := b.listPorts()
	if err != nil {
		ports = []PortInfo{}
	}
	s := Status{Connected: connected, AvailablePorts: ports}
	if connected {
		s.Port = portName
		s.BaudRate = baud
	}
	return s
}
