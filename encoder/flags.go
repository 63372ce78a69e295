package encoder

// Set and Type let the option types be bound directly as command line flags
// (pflag.Value).

func (f *Format) Set(s string) error {
	v, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

func (f *Format) Type() string { return "type" }

func (method *OutputMethod) Set(s string) error {
	v, err := ParseOutputMethod(s)
	if err != nil {
		return err
	}
	*method = v
	return nil
}

func (method *OutputMethod) Type() string { return "method" }

func (l *Loop) Set(s string) error {
	v, err := ParseLoop(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

func (l *Loop) Type() string { return "loop" }

func (p *DelayPolicy) Set(s string) error {
	v, err := ParseDelayPolicy(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p *DelayPolicy) Type() string { return "delay" }

func (q Quantizer) String() string { return string(q) }

func (q *Quantizer) Set(s string) error {
	v, err := ParseQuantizer(s)
	if err != nil {
		return err
	}
	*q = v
	return nil
}

func (q *Quantizer) Type() string { return "quantizer" }
