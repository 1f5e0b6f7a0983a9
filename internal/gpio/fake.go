package gpio

// FakeInput is a test double whose level is set directly by the test.
type FakeInput struct {
	Level bool
	// Err, if set, is returned by Read.
	Err    error
	Closed bool
}

func (f *FakeInput) Read() (bool, error) {
	if f.Err != nil {
		return false, f.Err
	}
	return f.Level, nil
}

func (f *FakeInput) Close() error {
	f.Closed = true
	return nil
}

// FakeOutput records the levels written to it.
type FakeOutput struct {
	Level  bool
	Writes int
	// Err, if set, is returned by Write.
	Err    error
	Closed bool
}

func (f *FakeOutput) Write(level bool) error {
	if f.Err != nil {
		return f.Err
	}
	f.Level = level
	f.Writes++
	return nil
}

func (f *FakeOutput) Close() error {
	f.Closed = true
	return nil
}
