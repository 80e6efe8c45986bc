package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// GPIODriver is the digital I/O the engine needs: the sensor inputs, the
// status LED and the decoder's control lines.
type GPIODriver interface {
	ConfigureOutput(pin GPIOPin) error
	ConfigureInputPullUp(pin GPIOPin) error
	ConfigureInputPullDown(pin GPIOPin) error

	SetPin(pin GPIOPin, value bool) error
	GetPin(pin GPIOPin) (bool, error)

	// ReadPin is GetPin for callers that treat a failed read as low
	ReadPin(pin GPIOPin) bool
}

// PinEdge selects which transitions raise a pin interrupt.
type PinEdge uint8

const (
	PinRising PinEdge = 1 << iota
	PinFalling
	PinToggle = PinRising | PinFalling
)

// InterruptDriver attaches edge handlers to input pins. Handlers run in
// interrupt context on hardware and must not block.
type InterruptDriver interface {
	// SetInterrupt attaches handler to pin, replacing any previous handler
	SetInterrupt(pin GPIOPin, edge PinEdge, handler func(GPIOPin)) error

	// ClearInterrupt detaches the handler for pin
	ClearInterrupt(pin GPIOPin) error
}

// Drivers registered by the target. Constructors taking a nil driver use
// these.
var (
	gpioDriver      GPIODriver
	interruptDriver InterruptDriver
)

func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the registered driver or panics if there is none.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}

func SetInterruptDriver(d InterruptDriver) {
	interruptDriver = d
}

// MustInterrupt returns the registered driver or panics if there is none.
func MustInterrupt() InterruptDriver {
	if interruptDriver == nil {
		panic("interrupt driver not configured")
	}
	return interruptDriver
}

// orRegistered fills nil drivers from the registered ones.
func orRegistered(gpio GPIODriver, irq InterruptDriver) (GPIODriver, InterruptDriver) {
	if gpio == nil {
		gpio = MustGPIO()
	}
	if irq == nil {
		irq = MustInterrupt()
	}
	return gpio, irq
}
