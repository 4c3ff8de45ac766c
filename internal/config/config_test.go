package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---------- ValidateConfigPath ----------

func TestValidateConfigPath_Valid(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "default.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ValidateConfigPath(path); err != nil {
		t.Errorf("expected valid path, got error: %v", err)
	}
	if err := ValidateConfigPath("configs/default.yaml"); err != nil {
		t.Errorf("expected relative path to be valid, got error: %v", err)
	}
}

func TestValidateConfigPath_PathTraversal(t *testing.T) {
	cases := []string{
		"../../etc/passwd",
		"configs/../../../etc/shadow",
		"../configs/default.yaml",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for traversal path %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_WrongExtension(t *testing.T) {
	cases := []string{
		"configs/default.json",
		"configs/default.yml",
		"configs/default.txt",
		"configs/default",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for extension in %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_NotInConfigsDir(t *testing.T) {
	cases := []string{
		"other/default.yaml",
		"default.yaml",
		"/tmp/default.yaml",
		"configs/nested/default.yaml",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for path outside configs/ %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_EmptyPath(t *testing.T) {
	if err := ValidateConfigPath(""); err == nil {
		t.Error("expected error for empty path, got nil")
	}
}

// ---------- Load ----------

// writeConfig creates a temporary configs/ dir with the given YAML content and returns the path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validYAML = `
left_motor:
  dir_pin: 5
  pwm_pin: 18
right_motor:
  dir_pin: 6
  pwm_pin: 19
pwm:
  frequency_hz: 200
  duty_percent: 75
server:
  port: 9090
  max_message_len: 64
  ack: true
  hold_on_disconnect: true
defaults:
  debug_level: 2
  mock_gpio: true
`

func TestLoad_ValidFullConfig(t *testing.T) {
	path := writeConfig(t, validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LeftMotor.DirPin != 5 || cfg.LeftMotor.PWMPin != 18 {
		t.Errorf("left_motor = %+v, want dir 5 pwm 18", cfg.LeftMotor)
	}
	if cfg.RightMotor.DirPin != 6 || cfg.RightMotor.PWMPin != 19 {
		t.Errorf("right_motor = %+v, want dir 6 pwm 19", cfg.RightMotor)
	}
	if cfg.PWM.FrequencyHz != 200 {
		t.Errorf("pwm.frequency_hz = %d, want 200", cfg.PWM.FrequencyHz)
	}
	if cfg.PWM.DutyPercent != 75 {
		t.Errorf("pwm.duty_percent = %d, want 75", cfg.PWM.DutyPercent)
	}
	if cfg.Server.Port != 9090 || cfg.Addr() != ":9090" {
		t.Errorf("server.port = %d (addr %q), want 9090", cfg.Server.Port, cfg.Addr())
	}
	if cfg.Server.MaxMessageLen != 64 {
		t.Errorf("server.max_message_len = %d, want 64", cfg.Server.MaxMessageLen)
	}
	if !cfg.Server.Ack || !cfg.Server.HoldOnDisconnect {
		t.Errorf("server flags = %+v, want ack and hold_on_disconnect", cfg.Server)
	}
	if cfg.Defaults.DebugLevel != 2 || !cfg.Defaults.MockGPIO {
		t.Errorf("defaults = %+v", cfg.Defaults)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "defaults:\n  mock_gpio: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LeftMotor.DirPin != 20 || cfg.LeftMotor.PWMPin != 12 {
		t.Errorf("left_motor defaults = %+v", cfg.LeftMotor)
	}
	if cfg.RightMotor.DirPin != 21 || cfg.RightMotor.PWMPin != 13 {
		t.Errorf("right_motor defaults = %+v", cfg.RightMotor)
	}
	if cfg.PWM.FrequencyHz != 100 || cfg.PWM.DutyPercent != 50 {
		t.Errorf("pwm defaults = %+v", cfg.PWM)
	}
	if cfg.Server.Port != 8080 || cfg.Server.MaxMessageLen != 128 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Server.Ack || cfg.Server.HoldOnDisconnect {
		t.Errorf("ack and hold_on_disconnect should default to false")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ROVERGO_PORT", "8181")
	t.Setenv("ROVERGO_MOCK_GPIO", "false")
	t.Setenv("ROVERGO_DEBUG_LEVEL", "4")
	t.Setenv("ROVERGO_ACK", "true")

	path := writeConfig(t, validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("port = %d, want env override 8181", cfg.Server.Port)
	}
	if cfg.Defaults.MockGPIO {
		t.Error("mock_gpio should be overridden to false")
	}
	if cfg.Defaults.DebugLevel != 4 {
		t.Errorf("debug_level = %d, want 4", cfg.Defaults.DebugLevel)
	}
	if !cfg.Server.Ack {
		t.Error("ack should be true")
	}
	// Untouched by env
	if cfg.PWM.FrequencyHz != 200 {
		t.Errorf("pwm.frequency_hz = %d, want 200 from file", cfg.PWM.FrequencyHz)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("ROVERGO_PORT", "not-a-number")
	path := writeConfig(t, validYAML)
	if _, err := Load(path); err == nil {
		t.Error("expected error for non-numeric ROVERGO_PORT")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "configs", "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "left_motor: [unclosed")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "unmarshal yaml") {
		t.Errorf("error = %v, want unmarshal yaml error", err)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"pwm_not_hardware", "left_motor:\n  pwm_pin: 5\n", "hardware PWM"},
		{"shared_channel", "left_motor:\n  pwm_pin: 12\nright_motor:\n  pwm_pin: 18\n", "share a PWM channel"},
		{"duplicate_pin", "left_motor:\n  dir_pin: 13\n", "both use pin 13"},
		{"pin_out_of_range", "right_motor:\n  dir_pin: 40\n", "between 0 and 27"},
		{"freq_too_low", "pwm:\n  frequency_hz: 10\n", "frequency_hz"},
		{"freq_too_high", "pwm:\n  frequency_hz: 20000\n", "frequency_hz"},
		{"duty_too_high", "pwm:\n  duty_percent: 150\n", "duty_percent"},
		{"port_too_high", "server:\n  port: 70000\n", "server.port"},
		{"message_len_too_high", "server:\n  max_message_len: 100000\n", "max_message_len"},
		{"debug_level", "defaults:\n  debug_level: 9\n", "debug_level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.yaml)
			_, err := Load(path)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %v, want it to contain %q", err, tc.want)
			}
		})
	}
}
