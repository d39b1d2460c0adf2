package main

// Shared test doubles for the effect-layer devices. They record calls in
// order so tests can assert on the exact sequence of device operations.

// FakeHID records press/release calls in order.
type FakeHID struct {
	Ops    []string
	Err    error
	Closed bool
}

func (f *FakeHID) Press(a HIDAction) error {
	if f.Err != nil {
		return f.Err
	}
	f.Ops = append(f.Ops, "press "+a.String())
	return nil
}

func (f *FakeHID) Release(a HIDAction) error {
	if f.Err != nil {
		return f.Err
	}
	f.Ops = append(f.Ops, "release "+a.String())
	return nil
}

func (f *FakeHID) ReleaseAll() error {
	if f.Err != nil {
		return f.Err
	}
	f.Ops = append(f.Ops, "release-all")
	return nil
}

func (f *FakeHID) Close() error {
	f.Closed = true
	return nil
}

// FakeRail is a scripted rail sensor. Tests flip On between samples to
// simulate the PC powering up or down.
type FakeRail struct {
	On      bool
	Err     error
	Samples int
	Closed  bool
}

func (f *FakeRail) SenseOn() (bool, error) {
	f.Samples++
	if f.Err != nil {
		return false, f.Err
	}
	return f.On, nil
}

func (f *FakeRail) Close() error {
	f.Closed = true
	return nil
}

// FakeSwitch records the order of assert/deassert calls.
type FakeSwitch struct {
	Ops    []string
	Err    error
	Closed bool
}

func (f *FakeSwitch) Assert() error {
	if f.Err != nil {
		return f.Err
	}
	f.Ops = append(f.Ops, "assert")
	return nil
}

func (f *FakeSwitch) Deassert() error {
	if f.Err != nil {
		return f.Err
	}
	f.Ops = append(f.Ops, "deassert")
	return nil
}

func (f *FakeSwitch) Close() error {
	f.Closed = true
	return nil
}
