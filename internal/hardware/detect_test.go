package hardware

import "testing"

func TestDetectPortVendorID(t *testing.T) {
	ports := []PortInfo{
		{Device: "/dev/ttyS0", VID: "0000", PID: "0000"},
		{Device: "/dev/ttyUSB0", Description: "Some Bridge", VID: "10C4", PID: "EA60"},
	}
	dev, ok := DetectPort(ports)
	if !ok || dev != "/dev/ttyUSB0" {
		t.Fatalf("got %q ok=%v", dev, ok)
	}
}

func TestDetectPortDescriptionToken(t *testing.T) {
	ports := []PortInfo{
		{Device: "/dev/ttyACM0", Description: "CH340 serial converter", VID: "0000"},
	}
	dev, ok := DetectPort(ports)
	if !ok || dev != "/dev/ttyACM0" {
		t.Fatalf("got %q ok=%v", dev, ok)
	}

	ports[0].Description = "Generic USB Serial Device"
	if dev, ok = DetectPort(ports); !ok || dev != "/dev/ttyACM0" {
		t.Fatalf("case-insensitive token match failed: %q ok=%v", dev, ok)
	}
}

func TestDetectPortUSBSerialPathFallback(t *testing.T) {
	ports := []PortInfo{
		{Device: "/dev/ttyS0", Description: "onboard", VID: "0000"},
		{Device: "/dev/cu.usbserial-0001", Description: "", VID: "0000"},
	}
	dev, ok := DetectPort(ports)
	if !ok || dev != "/dev/cu.usbserial-0001" {
		t.Fatalf("got %q ok=%v", dev, ok)
	}
}

func TestDetectPortNoMatch(t *testing.T) {
	ports := []PortInfo{
		{Device: "/dev/ttyS0", Description: "onboard", VID: "0000"},
	}
	if _, ok := DetectPort(ports); ok {
		t.Fatal("must never guess past the heuristics")
	}
	if _, ok := DetectPort(nil); ok {
		t.Fatal("empty enumeration must report no device")
	}
}
