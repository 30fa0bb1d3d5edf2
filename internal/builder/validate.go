package builder

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation runs before any I/O; a failed check is always recoverable by the
// caller correcting the input.

const (
	maxProjectNameLen = 100
	maxCustomCodeLen  = 100_000
	maxSSIDLen        = 32
	minPasswordLen    = 8
	maxPasswordLen    = 64
)

var projectNameRe = regexp.MustCompile(`^[a-zA-Z0-9_\- ]+$`)

// Boards the generation prompt and the flashing tools know how to target.
var validBoards = []string{
	"esp32",
	"esp32s2",
	"esp32s3",
	"esp32c3",
	"esp32c6",
	"esp32-s2",
	"esp32-s3",
	"esp32-c3",
	"esp32-c6",
}

func ValidateProjectName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	if len(name) > maxProjectNameLen {
		return fmt.Errorf("project name too long (max %d characters)", maxProjectNameLen)
	}
	if !projectNameRe.MatchString(trimmed) {
		return fmt.Errorf("project name contains invalid characters")
	}
	return nil
}

func ValidateBoardType(board string) error {
	board = strings.ToLower(strings.TrimSpace(board))
	for _, b := range validBoards {
		if board == b {
			return nil
		}
	}
	return fmt.Errorf("invalid board type %q, must be one of: %s", board, strings.Join(validBoards, ", "))
}

func ValidateWiFi(hint *WiFiHint) error {
	if hint == nil {
		return nil
	}
	ssid := strings.TrimSpace(hint.SSID)
	if ssid == "" {
		return fmt.Errorf("SSID cannot be empty")
	}
	if len(ssid) > maxSSIDLen {
		return fmt.Errorf("SSID too long (max %d characters)", maxSSIDLen)
	}
	if hint.Password != "" {
		if len(hint.Password) < minPasswordLen {
			return fmt.Errorf("password must be at least %d characters", minPasswordLen)
		}
		if len(hint.Password) > maxPasswordLen {
			return fmt.Errorf("password too long (max %d characters)", maxPasswordLen)
		}
	}
	return nil
}

func ValidateCustomCode(code string) error {
	if len(code) > maxCustomCodeLen {
		return fmt.Errorf("custom code too long (max %d characters)", maxCustomCodeLen)
	}
	return nil
}

// ValidateContext checks every constrained field of a build context.
func ValidateContext(c BuildContext) error {
	if err := ValidateProjectName(c.ProjectName); err != nil {
		return err
	}
	if err := ValidateBoardType(c.BoardType); err != nil {
		return err
	}
	if strings.TrimSpace(c.Description) == "" {
		return fmt.Errorf("description cannot be empty")
	}
	if err := ValidateWiFi(c.WiFi); err != nil {
		return err
	}
	return ValidateCustomCode(c.CustomCode)
}
