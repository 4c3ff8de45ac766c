package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/cjeanneret/RoverGo/internal/config"
	"github.com/cjeanneret/RoverGo/internal/debug"
	"github.com/cjeanneret/RoverGo/internal/hw/gpio"
	"github.com/cjeanneret/RoverGo/internal/hw/motor"
	"github.com/cjeanneret/RoverGo/internal/logic/drive"
	"github.com/cjeanneret/RoverGo/internal/web"
)

func main() {
	// CLI flags
	port := &portFlag{}
	flag.Var(port, "port", "override server.port (1-65535)")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	mock := flag.Bool("mock", false, "force the mock GPIO driver")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := config.ValidateConfigPath(*cfgPath); err != nil {
		log.Fatalf("invalid config path: %v", err)
	}

	// Load configuration (file, then ROVERGO_* env, then flags)
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	applyFlags(cfg, port.port(), *mock)

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)
	debug.Value("Mock GPIO", cfg.Defaults.MockGPIO)

	debug.Step(1, "Initializing GPIO driver")
	gpioDriver, err := gpio.NewDriver(cfg.Defaults.MockGPIO)
	if err != nil {
		log.Fatalf("init GPIO failed: %v", err)
	}
	defer func() {
		if err := gpioDriver.Close(); err != nil {
			log.Printf("closing GPIO driver failed: %v", err)
		}
	}()

	debug.Step(2, "Initializing drive motors")
	d, err := newDrive(gpioDriver, cfg)
	if err != nil {
		log.Printf("init drive failed: %v", err)
		return
	}
	// Leave the platform stopped whatever happens to the server.
	defer func() {
		if err := d.SetEnable(false); err != nil {
			log.Printf("stopping motors failed: %v", err)
		}
	}()

	debug.Step(3, "Starting control server")
	broadcaster := web.NewStatusBroadcaster()
	debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))
	d.OnChange(broadcaster.BroadcastState)

	srv := web.NewServer(cfg.Addr(), d, broadcaster, web.ControlOptions{
		MaxMessageLen:    cfg.Server.MaxMessageLen,
		Ack:              cfg.Server.Ack,
		HoldOnDisconnect: cfg.Server.HoldOnDisconnect,
	})
	if err := srv.Run(ctx); err != nil {
		log.Printf("control server: %v", err)
	}
}

// newDrive brings up both motors disabled and wraps them in a Drive.
func newDrive(g gpio.Driver, cfg *config.Config) (*drive.Drive, error) {
	left, err := motor.New(g, motorConfig("left", cfg.LeftMotor, cfg.PWM))
	if err != nil {
		return nil, err
	}
	debug.PrintStruct("Left motor config", cfg.LeftMotor)

	right, err := motor.New(g, motorConfig("right", cfg.RightMotor, cfg.PWM))
	if err != nil {
		return nil, err
	}
	debug.PrintStruct("Right motor config", cfg.RightMotor)

	d := drive.New(left, right)
	if err := d.SetEnable(false); err != nil {
		return nil, fmt.Errorf("initial stop: %w", err)
	}
	return d, nil
}

func motorConfig(name string, m config.MotorConfig, pwm config.PWMConfig) motor.Config {
	return motor.Config{
		Name:        name,
		DirPin:      m.DirPin,
		PWMPin:      m.PWMPin,
		FrequencyHz: pwm.FrequencyHz,
		DutyPercent: pwm.DutyPercent,
	}
}

// applyFlags mutates cfg with CLI overrides. Zero / false means "keep config value".
func applyFlags(cfg *config.Config, port int, mock bool) {
	if port > 0 {
		cfg.Server.Port = port
	}
	if mock {
		cfg.Defaults.MockGPIO = true
	}
}

// portFlag implements flag.Value for -port: 0 = not set, otherwise 1-65535.
type portFlag struct {
	val int
}

func (p *portFlag) String() string {
	return strconv.Itoa(p.val)
}

func (p *portFlag) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	p.val = v
	return nil
}

func (p *portFlag) port() int { return p.val }
