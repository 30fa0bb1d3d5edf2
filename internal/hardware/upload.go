package hardware

import (
	"path/filepath"
	"time"
)

// Flashing tool contracts. esptool is the primary; platformio is the
// fallback when esptool is not installed at all.
const (
	esptoolBin     = "esptool.py"
	esptoolChip    = "esp32"
	esptoolBaud    = "460800"
	esptoolOffset  = "0x10000"
	esptoolTimeout = 60 * time.Second

	platformioBin     = "platformio"
	platformioTimeout = 120 * time.Second
)

// UploadResult is the uniform shape both upload paths return.
type UploadResult struct {
	Success bool   `json:"success"`
	Stdout  string `json:"stdout,omitempty"`
	Stderr  string `json:"stderr,omitempty"`
	Port    string `json:"port,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Upload flashes firmwarePath to the device, resolving the port via Detect
// when device is empty. esptool is invoked first; only the "tool not
// installed" outcome falls back to platformio's upload target, run inside
// the firmware's project directory. A primary-tool timeout is terminal and
// reported distinctly, never retried through the fallback.
func (b *Bridge) Upload(firmwarePath, device string) UploadResult {
	if device == "" {
		var ok bool
		if device, ok = b.Detect(); !ok {
			return UploadResult{Error: "no device detected"}
		}
	}

	out := b.runner.Run("", esptoolTimeout, esptoolBin,
		"--chip", esptoolChip,
		"--port", device,
		"--baud", esptoolBaud,
		"write_flash", esptoolOffset, firmwarePath,
	)

	switch out.Outcome {
	case OutcomeOK:
		return UploadResult{Success: true, Stdout: out.Stdout, Stderr: out.Stderr, Port: device}
	case OutcomeTimedOut:
		return UploadResult{Stdout: out.Stdout, Stderr: out.Stderr, Port: device, Error: "upload timeout"}
	case OutcomeToolMissing:
		return b.uploadWithPlatformio(firmwarePath, device)
	default:
		return UploadResult{Stdout: out.Stdout, Stderr: out.Stderr, Port: device, Error: out.Stderr}
	}
}

// uploadWithPlatformio runs the fallback build tool's upload subcommand with
// the working directory set to the project root, conventionally the
// grandparent of the firmware artifact (project/build/firmware.bin).
func (b *Bridge) uploadWithPlatformio(firmwarePath, device string) UploadResult {
	projectDir := filepath.Dir(filepath.Dir(firmwarePath))

	out := b.runner.Run(projectDir, platformioTimeout, platformioBin,
		"run", "--target", "upload", "--upload-port", device,
	)

	result := UploadResult{
		Success: out.Outcome == OutcomeOK,
		Stdout:  out.Stdout,
		Stderr:  out.Stderr,
		Port:    device,
	}
	switch out.Outcome {
	case OutcomeOK:
	case OutcomeTimedOut:
		result.Error = "upload timeout"
	case OutcomeToolMissing:
		result.Error = "platformio not installed"
	default:
		result.Error = out.Stderr
	}
	return result
}
