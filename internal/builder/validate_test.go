package builder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateProjectName(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
	}{
		{"Lamp", true},
		{"my-project_2 deluxe", true},
		{"", false},
		{"   ", false},
		{strings.Repeat("x", 101), false},
		{"bad/name", false},
		{"emoji☺", false},
	}
	for _, tc := range cases {
		err := ValidateProjectName(tc.name)
		if tc.ok {
			require.NoError(t, err, "name %q", tc.name)
		} else {
			require.Error(t, err, "name %q", tc.name)
		}
	}
}

func TestValidateBoardType(t *testing.T) {
	for _, board := range []string{"esp32", "ESP32", " esp32s3 ", "esp32-c3"} {
		require.NoError(t, ValidateBoardType(board), "board %q", board)
	}
	for _, board := range []string{"", "arduino-uno", "esp8266"} {
		require.Error(t, ValidateBoardType(board), "board %q", board)
	}
}

func TestValidateWiFi(t *testing.T) {
	require.NoError(t, ValidateWiFi(nil))
	require.NoError(t, ValidateWiFi(&WiFiHint{SSID: "home"}))
	require.NoError(t, ValidateWiFi(&WiFiHint{SSID: "home", Password: "longenough"}))
	require.Error(t, ValidateWiFi(&WiFiHint{SSID: ""}))
	require.Error(t, ValidateWiFi(&WiFiHint{SSID: strings.Repeat("s", 33)}))
	require.Error(t, ValidateWiFi(&WiFiHint{SSID: "home", Password: "short"}))
	require.Error(t, ValidateWiFi(&WiFiHint{SSID: "home", Password: strings.Repeat("p", 65)}))
}

func TestValidateContext(t *testing.T) {
	valid := BuildContext{ProjectName: "Lamp", BoardType: "esp32", Description: "blink"}
	require.NoError(t, ValidateContext(valid))

	noDesc := valid
	noDesc.Description = "  "
	require.Error(t, ValidateContext(noDesc))

	badBoard := valid
	badBoard.BoardType = "z80"
	require.Error(t, ValidateContext(badBoard))
}
