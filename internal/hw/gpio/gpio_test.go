package gpio

import "testing"

func TestMockDriver_WriteThenRead(t *testing.T) {
	m := NewMockDriver()
	if err := m.SetupPin(20, Output); err != nil {
		t.Fatalf("SetupPin: %v", err)
	}
	if err := m.WritePin(20, High); err != nil {
		t.Fatalf("WritePin: %v", err)
	}
	got, err := m.ReadPin(20)
	if err != nil {
		t.Fatalf("ReadPin: %v", err)
	}
	if got != High {
		t.Errorf("ReadPin = %v, want high", got)
	}
}

func TestMockDriver_UnwrittenPinReadsLow(t *testing.T) {
	m := NewMockDriver()
	got, err := m.ReadPin(5)
	if err != nil {
		t.Fatalf("ReadPin: %v", err)
	}
	if got != Low {
		t.Errorf("ReadPin = %v, want low", got)
	}
}

func TestMockDriver_PWM(t *testing.T) {
	m := NewMockDriver()
	if err := m.SetupPWM(12, 100); err != nil {
		t.Fatalf("SetupPWM: %v", err)
	}
	if m.Mode(12) != PWM {
		t.Errorf("mode = %v, want PWM", m.Mode(12))
	}
	if err := m.WritePWM(12, 50); err != nil {
		t.Fatalf("WritePWM: %v", err)
	}
	if m.Duty(12) != 50 {
		t.Errorf("duty = %d, want 50", m.Duty(12))
	}
}

func TestMockDriver_PWMErrors(t *testing.T) {
	m := NewMockDriver()
	if err := m.SetupPWM(12, 0); err == nil {
		t.Error("expected error for zero frequency")
	}
	if err := m.WritePWM(13, 50); err == nil {
		t.Error("expected error writing PWM on a pin not in PWM mode")
	}
	_ = m.SetupPWM(12, 100)
	for _, duty := range []int{-1, 101} {
		if err := m.WritePWM(12, duty); err == nil {
			t.Errorf("expected error for duty %d", duty)
		}
	}
}

func TestLevel_String(t *testing.T) {
	if High.String() != "high" || Low.String() != "low" {
		t.Errorf("unexpected level strings: %q %q", High.String(), Low.String())
	}
}

func TestIsHardwarePWMPin(t *testing.T) {
	for _, pin := range []int{12, 13, 18, 19} {
		if !isHardwarePWMPin(pin) {
			t.Errorf("pin %d should support hardware PWM", pin)
		}
	}
	for _, pin := range []int{0, 5, 20, 21} {
		if isHardwarePWMPin(pin) {
			t.Errorf("pin %d should not support hardware PWM", pin)
		}
	}
}

// rpioDivisor mirrors the integer divisor rpio.SetFreq programs into the
// 12-bit PWM clock register, before masking.
func rpioDivisor(sourceHz, clockHz int) int {
	return sourceHz / clockHz
}

func TestPWMTiming_KnownFrequencies(t *testing.T) {
	cases := []struct {
		freqHz    int
		wantClock int
		wantCycle uint32
	}{
		{50, 15000, 300},
		{100, 20000, 200},
		{1000, 100000, 100},
		{10000, 1000000, 100},
	}
	for _, tc := range cases {
		clock, cycle := pwmTiming(tc.freqHz)
		if clock != tc.wantClock || cycle != tc.wantCycle {
			t.Errorf("pwmTiming(%d) = (%d, %d), want (%d, %d)", tc.freqHz, clock, cycle, tc.wantClock, tc.wantCycle)
		}
	}
}

func TestPWMTiming_DivisorFitsClockRegister(t *testing.T) {
	sources := map[string]int{"bcm2711": 52000000, "bcm283x": 19200000}
	for freq := 50; freq <= 10000; freq += 50 {
		clock, cycle := pwmTiming(freq)
		if cycle%100 != 0 {
			t.Fatalf("freq %d: cycle %d is not a multiple of 100", freq, cycle)
		}
		if clock/int(cycle) != freq || clock%int(cycle) != 0 {
			t.Fatalf("freq %d: clock %d / cycle %d does not give the output frequency", freq, clock, cycle)
		}
		for name, src := range sources {
			divi := rpioDivisor(src, clock)
			if divi < 2 || divi > 4095 {
				t.Errorf("freq %d on %s: divisor %d outside 2..4095 (clock %d)", freq, name, divi, clock)
			}
		}
	}
}

func TestDutyTicks(t *testing.T) {
	cases := []struct {
		duty  int
		cycle uint32
		want  uint32
	}{
		{0, 200, 0},
		{50, 200, 100},
		{1, 300, 3},
		{100, 300, 300},
		{37, 100, 37},
	}
	for _, tc := range cases {
		if got := dutyTicks(tc.duty, tc.cycle); got != tc.want {
			t.Errorf("dutyTicks(%d, %d) = %d, want %d", tc.duty, tc.cycle, got, tc.want)
		}
	}
}
