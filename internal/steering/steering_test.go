package steering

import "testing"

func testConfig() Config {
	return Config{Kp: 20, Kd: 25, Ki: 50, BaseSpeed: 40, MinMotor: 0, MaxMotor: 255}
}

func TestStep_IdleCommandsZero(t *testing.T) {
	c := New(testConfig())
	if c.Mode() != ModeIdle {
		t.Fatalf("mode=%v want IDLE", c.Mode())
	}
	if got := c.Step(1500); got != (Command{}) {
		t.Fatalf("cmd=%+v want zero", got)
	}
}

func TestToggle(t *testing.T) {
	c := New(testConfig())
	if m := c.Toggle(); m != ModeFollowing {
		t.Fatalf("mode=%v want FOLLOWING", m)
	}
	if m := c.Toggle(); m != ModeIdle {
		t.Fatalf("mode=%v want IDLE", m)
	}
	if s := ModeFollowing.String(); s != "FOLLOWING" {
		t.Fatalf("String=%q", s)
	}
}

func TestStep_CenteredDrivesStraight(t *testing.T) {
	c := New(testConfig())
	c.Toggle()
	for i := 0; i < 3; i++ {
		got := c.Step(0)
		if got.Left != 40 || got.Right != 40 {
			t.Fatalf("cmd=%+v want {40 40}", got)
		}
	}
}

func TestStep_Terms(t *testing.T) {
	c := New(testConfig())
	c.Toggle()

	// First step: no history, derivative 0, integral proxy 2*pos.
	got := c.Step(200)
	// 200/20 + 0/25 + 400/50 = 18
	if got.Left != 58 || got.Right != 22 {
		t.Fatalf("cmd=%+v want {58 22}", got)
	}

	// derivative 300-200=100, proxy 500: 15 + 4 + 10 = 29
	got = c.Step(300)
	if got.Left != 69 || got.Right != 11 {
		t.Fatalf("cmd=%+v want {69 11}", got)
	}
	terms := c.LastTerms()
	if terms.Derivative != 100 || terms.IntegralProxy != 500 || terms.Offset != 29 {
		t.Fatalf("terms=%+v", terms)
	}
}

func TestStep_LineLeftSteersLeft(t *testing.T) {
	c := New(testConfig())
	c.Toggle()
	got := c.Step(-400)
	if got.Left >= got.Right {
		t.Fatalf("cmd=%+v want right wheel faster", got)
	}
}

func TestStep_Saturates(t *testing.T) {
	cfg := testConfig()
	cfg.MaxMotor = 100
	c := New(cfg)
	c.Toggle()
	got := c.Step(2000)
	if got.Left != 100 {
		t.Fatalf("left=%d want 100", got.Left)
	}
	if got.Right != 0 {
		t.Fatalf("right=%d want 0", got.Right)
	}
}

func TestStep_ZeroDivisorDisablesTerm(t *testing.T) {
	c := New(Config{Kp: 10, BaseSpeed: 50, MinMotor: -255, MaxMotor: 255})
	c.Toggle()
	c.Step(100)
	got := c.Step(500)
	if got.Left != 100 || got.Right != 0 {
		t.Fatalf("cmd=%+v want {100 0}", got)
	}
}

func TestToggle_ClearsHistory(t *testing.T) {
	c := New(testConfig())
	c.Toggle()
	c.Step(1000)
	c.Toggle()
	c.Toggle()
	c.Step(0)
	if d := c.LastTerms().Derivative; d != 0 {
		t.Fatalf("derivative=%d want 0 after re-entering FOLLOWING", d)
	}
}
