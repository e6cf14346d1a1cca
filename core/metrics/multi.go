package metrics

// MultiSink fans out events to multiple sinks. Optional recorders are
// forwarded only to the sinks implementing them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCompute forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordCompute(ev ComputeEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordCompute(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordMonthly forwards monthly series.
func (m *MultiSink) RecordMonthly(ev MonthlyEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(MonthlyRecorder); ok {
			if err := rec.RecordMonthly(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSoH forwards battery estimates.
func (m *MultiSink) RecordSoH(ev SoHEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SoHRecorder); ok {
			if err := rec.RecordSoH(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordJob forwards job transitions.
func (m *MultiSink) RecordJob(ev JobEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(JobRecorder); ok {
			if err := rec.RecordJob(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordQueueDepth forwards queue depth samples.
func (m *MultiSink) RecordQueueDepth(depth int) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(QueueDepthRecorder); ok {
			if err := rec.RecordQueueDepth(depth); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordResponse forwards response events.
func (m *MultiSink) RecordResponse(ev ResponseEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ResponseRecorder); ok {
			if err := rec.RecordResponse(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
