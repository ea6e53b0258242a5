package automation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"

	"github.com/KevinKickass/OpenDeviceCore/internal/device"
	"github.com/KevinKickass/OpenDeviceCore/internal/hal"
)

type fixture struct {
	engine   *Engine
	registry *device.Registry
	sim      *hal.Simulator
}

func newFixture(t *testing.T, specs ...device.Spec) *fixture {
	t.Helper()
	logger := zap.NewNop()
	sim := hal.NewSimulator()
	factory := device.NewFactory(sim, logger)
	registry := device.NewRegistry(logger)

	for _, spec := range specs {
		dev, err := factory.Build(spec)
		require.NoError(t, err)
		require.NoError(t, registry.Install(dev))
	}

	return &fixture{
		engine:   NewEngine(registry, time.Second, logger),
		registry: registry,
		sim:      sim,
	}
}

func TestEvaluateFiresAboveThreshold(t *testing.T) {
	fx := newFixture(t,
		device.Spec{ID: "temp", Driver: "DHT22", Pin: 4},
		device.Spec{ID: "fan", Driver: "RELAY", Pin: 23},
	)
	fx.engine.SetRules([]Rule{
		{Source: "temp", Parameter: "temp", Op: OpGreater, Threshold: 28, Target: "fan", Action: 1},
	})

	fx.sim.SetClimate(4, 30, 50)
	fx.engine.Evaluate()
	assert.True(t, fx.sim.PinLevel(23))
}

func TestEvaluateHoldsBelowThreshold(t *testing.T) {
	fx := newFixture(t,
		device.Spec{ID: "temp", Driver: "DHT22", Pin: 4},
		device.Spec{ID: "fan", Driver: "RELAY", Pin: 23},
	)
	fx.engine.SetRules([]Rule{
		{Source: "temp", Parameter: "temp", Op: OpGreater, Threshold: 28, Target: "fan", Action: 1},
	})

	fx.sim.SetClimate(4, 20, 50)
	fx.engine.Evaluate()
	assert.False(t, fx.sim.PinLevel(23))
}

func TestEvaluateLessThanOperator(t *testing.T) {
	fx := newFixture(t,
		device.Spec{ID: "soil", Driver: "SOIL", Pin: 32},
		device.Spec{ID: "pump", Driver: "PUMP", Pin: 23},
	)
	fx.engine.SetRules([]Rule{
		{Source: "soil", Parameter: "percent", Op: OpLess, Threshold: 40, Target: "pump", Action: 1},
	})

	fx.sim.SetAnalog(32, 500)
	fx.engine.Evaluate()
	assert.True(t, fx.sim.PinLevel(23))
}

func TestEvaluateRetriggersEveryPass(t *testing.T) {
	fx := newFixture(t,
		device.Spec{ID: "temp", Driver: "DHT22", Pin: 4},
		device.Spec{ID: "fan", Driver: "RELAY", Pin: 23},
	)
	fx.engine.SetRules([]Rule{
		{Source: "temp", Parameter: "temp", Op: OpGreater, Threshold: 28, Target: "fan", Action: 1},
	})
	fx.sim.SetClimate(4, 30, 50)

	fx.engine.Evaluate()
	require.True(t, fx.sim.PinLevel(23))

	// Manual override between ticks; the level-triggered rule wins it back.
	require.NoError(t, fx.sim.DigitalWrite(23, false))
	fx.engine.Evaluate()
	assert.True(t, fx.sim.PinLevel(23))
}

func TestEvaluateSkipsFailedRead(t *testing.T) {
	fx := newFixture(t,
		device.Spec{ID: "temp", Driver: "DHT22", Pin: 4},
		device.Spec{ID: "fan", Driver: "RELAY", Pin: 23},
	)
	fx.engine.SetRules([]Rule{
		{Source: "temp", Parameter: "temp", Op: OpGreater, Threshold: 28, Target: "fan", Action: 1},
	})

	// No climate configured: the read fails and the rule sits the pass out.
	fx.engine.Evaluate()
	assert.False(t, fx.sim.PinLevel(23))
}

func TestEvaluateSkipsMissingDevices(t *testing.T) {
	fx := newFixture(t,
		device.Spec{ID: "temp", Driver: "DHT22", Pin: 4},
	)
	fx.engine.SetRules([]Rule{
		{Source: "temp", Parameter: "temp", Op: OpGreater, Threshold: 28, Target: "ghost", Action: 1},
		{Source: "ghost", Parameter: "temp", Op: OpGreater, Threshold: 28, Target: "temp", Action: 1},
	})
	fx.sim.SetClimate(4, 30, 50)

	// Neither rule resolves both endpoints; the pass must not panic.
	fx.engine.Evaluate()
}

func TestEvaluateRendersDisplayTargets(t *testing.T) {
	fx := newFixture(t,
		device.Spec{ID: "temp", Driver: "DHT22", Name: "Boiler", Pin: 4},
	)
	fx.sim.AttachBusDevice(60)

	logger := zap.NewNop()
	factory := device.NewFactory(fx.sim, logger)
	oled, err := factory.Build(device.Spec{ID: "oled", Driver: "SSD1306", Pin: 60})
	require.NoError(t, err)
	require.NoError(t, fx.registry.Install(oled))

	fx.engine.SetRules([]Rule{
		{Source: "temp", Parameter: "temp", Op: OpGreater, Threshold: 28, Target: "oled", Action: 0},
	})
	fx.sim.SetClimate(4, 30.26, 50)

	fx.engine.Evaluate()
	assert.Equal(t, "Boiler: 30.3", fx.sim.DisplayedText(60))
}

func TestSetRulesDropsInvalidEntries(t *testing.T) {
	fx := newFixture(t)
	fx.engine.SetRules([]Rule{
		{Source: "a", Parameter: "val", Op: OpGreater, Threshold: 1, Target: "b"},
		{Source: "", Parameter: "val", Op: OpGreater, Threshold: 1, Target: "b"},
		{Source: "a", Parameter: "val", Op: ">=", Threshold: 1, Target: "b"},
	})

	rules := fx.engine.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "a", rules[0].Source)
}

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want error
	}{
		{"valid greater", Rule{Source: "a", Op: OpGreater, Target: "b"}, nil},
		{"valid less", Rule{Source: "a", Op: OpLess, Target: "b"}, nil},
		{"missing source", Rule{Op: OpGreater, Target: "b"}, ErrMissingDevice},
		{"missing target", Rule{Source: "a", Op: OpGreater}, ErrMissingDevice},
		{"bad operator", Rule{Source: "a", Op: "==", Target: "b"}, ErrInvalidOperator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestEngineStartStop(t *testing.T) {
	fx := newFixture(t,
		device.Spec{ID: "temp", Driver: "DHT22", Pin: 4},
		device.Spec{ID: "fan", Driver: "RELAY", Pin: 23},
	)
	fx.engine = NewEngine(fx.registry, 5*time.Millisecond, zap.NewNop())
	fx.engine.SetRules([]Rule{
		{Source: "temp", Parameter: "temp", Op: OpGreater, Threshold: 28, Target: "fan", Action: 1},
	})
	fx.sim.SetClimate(4, 30, 50)

	require.NoError(t, fx.engine.Start())
	assert.Eventually(t, func() bool {
		return fx.sim.PinLevel(23)
	}, time.Second, 5*time.Millisecond)

	fx.engine.Stop()
}
