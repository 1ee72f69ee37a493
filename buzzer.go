package chip8

// Buzzer is driven by edges of the sound timer: Play when it becomes
// positive, Stop when it reaches zero.
type Buzzer interface {
	// Boot initializes the component
	Boot() error
	Play()
	Stop()
}

type DummyBuzzer struct {
	IsPlaying bool
	Plays     int
	Stops     int
}

func NewDummyBuzzer() *DummyBuzzer {
	return &DummyBuzzer{
		IsPlaying: false,
	}
}

// Boot implements Buzzer.
func (b *DummyBuzzer) Boot() error {
	return nil
}

// Play implements Buzzer.
func (b *DummyBuzzer) Play() {
	b.IsPlaying = true
	b.Plays++
}

// Stop implements Buzzer
func (b *DummyBuzzer) Stop() {
	b.IsPlaying = false
	b.Stops++
}

// MultiBuzzer forwards every edge to all of its buzzers
type MultiBuzzer []Buzzer

func (mb MultiBuzzer) Boot() error {
	for _, b := range mb {
		if err := b.Boot(); err != nil {
			return err
		}
	}
	return nil
}

func (mb MultiBuzzer) Play() {
	for _, b := range mb {
		b.Play()
	}
}

func (mb MultiBuzzer) Stop() {
	for _, b := range mb {
		b.Stop()
	}
}
