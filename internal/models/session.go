package models

import "time"

// Session is the immutable result of a completed onboarding flow. It is
// returned by the workflow engine and passed into downstream consumers
// (leads, profile) by the caller; there is no global session singleton.
type Session struct {
	tech      Technician
	startedAt time.Time
}

func NewSession(tech Technician) Session {
	return Session{tech: tech, startedAt: time.Now().UTC()}
}

func (s Session) Technician() Technician { return s.tech }
func (s Session) StartedAt() time.Time   { return s.startedAt }
