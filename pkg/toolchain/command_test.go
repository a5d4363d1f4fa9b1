package toolchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantName string
		wantArgs []string
		wantErr  bool
	}{
		{"bare", "make", "make", []string{}, false},
		{"args", "make -j4 all", "make", []string{"-j4", "all"}, false},
		{"quoted", `make "ARDUINO_DIR=/opt/arduino 1.8"`, "make", []string{"ARDUINO_DIR=/opt/arduino 1.8"}, false},
		{"empty", "", "", nil, true},
		{"whitespace", "   ", "", nil, true},
		{"unterminated quote", `make "all`, "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, got.Name)
			assert.ElementsMatch(t, tt.wantArgs, got.Args)
		})
	}
}

func TestCommand_WithEnv(t *testing.T) {
	base := Command{Name: "make", Env: map[string]string{"A": "1"}}

	got := base.WithEnv(map[string]string{"B": "2", "A": "3"})

	assert.Equal(t, map[string]string{"A": "3", "B": "2"}, got.Env)
	assert.Equal(t, map[string]string{"A": "1"}, base.Env)
}

func TestCommand_String(t *testing.T) {
	cmd := Command{
		Name: "avrdude",
		Args: []string{"-P", "/dev/ttyACM0", "-U", "flash:w:build-uno/my project.hex:i"},
		Env:  map[string]string{"DEVICE_PATH": "/dev/ttyACM0", "BOARD_TAG": "uno"},
	}

	assert.Equal(t,
		"BOARD_TAG=uno DEVICE_PATH=/dev/ttyACM0 avrdude -P /dev/ttyACM0 -U 'flash:w:build-uno/my project.hex:i'",
		cmd.String())
}

func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/usr/bin", "BOARD_TAG=mega", "HOME=/root"}

	got := MergeEnv(base, map[string]string{"BOARD_TAG": "uno", "DEVICE_PATH": "/dev/ttyUSB0"})

	assert.Equal(t, []string{"PATH=/usr/bin", "BOARD_TAG=uno", "HOME=/root", "DEVICE_PATH=/dev/ttyUSB0"}, got)
	assert.Equal(t, "BOARD_TAG=mega", base[1])
}

func TestMergeEnv_NoOverrides(t *testing.T) {
	base := []string{"PATH=/usr/bin"}
	assert.Equal(t, base, MergeEnv(base, nil))
}

func TestExitError(t *testing.T) {
	err := &ExitError{Command: "make", Code: 2}
	assert.Equal(t, "make exited with code 2", err.Error())
}
