package ledger

func (s *State) InactivityTimeout() (uint32, error) {
	return getOrDefault[uint32](s, KeyInactivityTimeout)
}

func (s *State) SetInactivityTimeout(v uint32) error {
	return s.put(KeyInactivityTimeout, v)
}

func (s *State) EndorsementTicketsPerBootstrapper() (uint8, error) {
	return getOrDefault[uint8](s, KeyTicketsPerBootstrapper)
}

func (s *State) SetEndorsementTicketsPerBootstrapper(v uint8) error {
	return s.put(KeyTicketsPerBootstrapper, v)
}

func (s *State) EndorsementTicketsPerReputable() (uint8, error) {
	return getOrDefault[uint8](s, KeyTicketsPerReputable)
}

func (s *State) SetEndorsementTicketsPerReputable(v uint8) error {
	return s.put(KeyTicketsPerReputable, v)
}

func (s *State) ReputationLifetime() (uint32, error) {
	return getOrDefault[uint32](s, KeyReputationLifetime)
}

func (s *State) SetReputationLifetime(v uint32) error {
	return s.put(KeyReputationLifetime, v)
}

func (s *State) MeetupTimeOffset() (int32, error) {
	return getOrDefault[int32](s, KeyMeetupTimeOffset)
}

func (s *State) SetMeetupTimeOffset(v int32) error {
	return s.put(KeyMeetupTimeOffset, v)
}

func (s *State) TimeTolerance() (uint64, error) {
	return getOrDefault[uint64](s, KeyTimeTolerance)
}

func (s *State) SetTimeTolerance(v uint64) error {
	return s.put(KeyTimeTolerance, v)
}

// LocationTolerance is in meters.
func (s *State) LocationTolerance() (uint32, error) {
	return getOrDefault[uint32](s, KeyLocationTolerance)
}

func (s *State) SetLocationTolerance(v uint32) error {
	return s.put(KeyLocationTolerance, v)
}
