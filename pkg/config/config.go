package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings describes the local toolchain installation and the telemetry tools.
type Settings struct {
	BoardsFile       string        `yaml:"boards_file"`
	ProgrammerConfig string        `yaml:"programmer_config"` // avrdude.conf
	Programmer       string        `yaml:"programmer"`
	Flasher          string        `yaml:"flasher"`
	BuildCommand     string        `yaml:"build_command"` // shell-style, split before execution
	SourceFile       string        `yaml:"source_file"`
	BuildDirPrefix   string        `yaml:"build_dir_prefix"`
	ProjectName      string        `yaml:"project_name"` // empty = working directory name
	BoardEnv         string        `yaml:"board_env"`
	PortEnv          string        `yaml:"port_env"`
	Monitor          MonitorConfig `yaml:"monitor"`
	MQTT             MQTTConfig    `yaml:"mqtt"`
}

// MonitorConfig contains telemetry monitor parameters.
type MonitorConfig struct {
	Baud       int `yaml:"baud"`
	BufferSize int `yaml:"buffer_size"`
	Average    int `yaml:"average"` // Readings averaged per pin (0 or 1 = disabled)
}

// MQTTConfig contains the broker samples are forwarded to. Empty broker disables forwarding.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Default returns settings matching a stock Arduino-Makefile installation.
func Default() *Settings {
	return &Settings{
		BoardsFile:       "/usr/share/arduino/hardware/arduino/boards.txt",
		ProgrammerConfig: "/usr/share/arduino/hardware/tools/avrdude.conf",
		Programmer:       "arduino",
		Flasher:          "avrdude",
		BuildCommand:     "make",
		SourceFile:       "main.ino",
		BuildDirPrefix:   "build-",
		BoardEnv:         "BOARD_TAG",
		PortEnv:          "DEVICE_PATH",
		Monitor: MonitorConfig{
			Baud:       DefaultBaud,
			BufferSize: 100,
			Average:    0,
		},
		MQTT: MQTTConfig{
			Topic:    "dhtfw",
			ClientID: "dhtfw",
		},
	}
}

// Load loads settings from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Settings, error) {
	s := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	s.ensureDefaults()

	return s, nil
}

// Save saves the settings to a YAML file.
func (s *Settings) Save(filename string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}

// ApplyEnv overrides installation paths and broker credentials from the environment.
func (s *Settings) ApplyEnv(getenv func(string) string) {
	if v := getenv("DHTFW_BOARDS_FILE"); v != "" {
		s.BoardsFile = v
	}
	if v := getenv("DHTFW_PROGRAMMER_CONFIG"); v != "" {
		s.ProgrammerConfig = v
	}
	if v := getenv("MQTT_USERNAME"); v != "" {
		s.MQTT.Username = v
	}
	if v := getenv("MQTT_PASSWORD"); v != "" {
		s.MQTT.Password = v
	}
}

// ensureDefaults ensures that all required fields have default values if missing.
func (s *Settings) ensureDefaults() {
	def := Default()

	if s.BoardsFile == "" {
		s.BoardsFile = def.BoardsFile
	}
	if s.ProgrammerConfig == "" {
		s.ProgrammerConfig = def.ProgrammerConfig
	}
	if s.Programmer == "" {
		s.Programmer = def.Programmer
	}
	if s.Flasher == "" {
		s.Flasher = def.Flasher
	}
	if s.BuildCommand == "" {
		s.BuildCommand = def.BuildCommand
	}
	if s.SourceFile == "" {
		s.SourceFile = def.SourceFile
	}
	if s.BuildDirPrefix == "" {
		s.BuildDirPrefix = def.BuildDirPrefix
	}
	if s.BoardEnv == "" {
		s.BoardEnv = def.BoardEnv
	}
	if s.PortEnv == "" {
		s.PortEnv = def.PortEnv
	}

	if s.Monitor.Baud == 0 {
		s.Monitor.Baud = def.Monitor.Baud
	}
	if s.Monitor.BufferSize == 0 {
		s.Monitor.BufferSize = def.Monitor.BufferSize
	}

	if s.MQTT.Topic == "" {
		s.MQTT.Topic = def.MQTT.Topic
	}
	if s.MQTT.ClientID == "" {
		s.MQTT.ClientID = def.MQTT.ClientID
	}
}
