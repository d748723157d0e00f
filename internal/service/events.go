package service

import "github.com/yakoovad/hackathon-teams/internal/model"

// EventRecorder observes committed lifecycle transitions.
type EventRecorder interface {
	TeamCreated()
	TeamRequestCreated(direction model.Direction)
	TeamRequestAccepted(direction model.Direction)
	TeamRequestRejected()
	TeamRequestsPurged(count int64)
}

type nopRecorder struct{}

func (nopRecorder) TeamCreated() {}
func (nopRecorder) TeamRequestCreated(model.Direction) {}
func (nopRecorder) TeamRequestAccepted(model.Direction) {}
func (nopRecorder) TeamRequestRejected() {}
func (nopRecorder) TeamRequestsPurged(int64) {}
