// Package hardware talks to a physically attached ESP32: port discovery,
// serial connection lifecycle, firmware upload and bounded monitoring.
package hardware

import (
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes one serial port visible to the operating system.
// VID and PID default to "0000" when the port exposes no USB identity.
type PortInfo struct {
	Device      string `json:"device"`
	Description string `json:"description"`
	HWID        string `json:"hwid"`
	VID         string `json:"vid"`
	PID         string `json:"pid"`
}

// ListPorts enumerates all serial ports currently visible to the OS.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("hardware: enumerate ports: %w", err)
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		info := PortInfo{
			Device:      d.Name,
			Description: d.Product,
			VID:         "0000",
			PID:         "0000",
		}
		if d.IsUSB {
			if d.VID != "" {
				info.VID = d.VID
			}
			if d.PID != "" {
				info.PID = d.PID
			}
			info.HWID = fmt.Sprintf("USB VID:PID=%s:%s SER=%s", info.VID, info.PID, d.SerialNumber)
		}
		ports = append(ports, info)
	}
	return ports, nil
}

// USB-serial bridge chips commonly paired with ESP32 boards: CP210x, CH340,
// FTDI, and Espressif's own USB interface.
var espVendorIDs = []string{"10c4", "1a86", "0403", "303a"}

var espDescTokens = []string{"ch340", "cp210", "ft232", "usb serial", "uart"}

// DetectPort picks the port most likely to be an attached ESP32: first by
// vendor ID allow-list or bridge-chip description tokens, then by a generic
// usb-serial device naming convention. Returns false when nothing matches;
// it never guesses past that point.
func DetectPort(ports []PortInfo) (string, bool) {
	for _, p := range ports {
		vid := strings.ToLower(p.VID)
		desc := strings.ToLower(p.Description)
		for _, want := range espVendorIDs {
			if vid == want {
				return p.Device, true
			}
		}
		for _, token := range espDescTokens {
			if strings.Contains(desc, token) {
				return p.Device, true
			}
		}
	}
	for _, p := range ports {
		if strings.Contains(strings.ToLower(p.Device), "usbserial") {
			return p.Device, true
		}
	}
	return "", false
}
