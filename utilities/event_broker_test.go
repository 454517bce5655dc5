package utilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSubscriber struct {
	events []string
}

func (r *recordingSubscriber) OnEvent(event string) {
	r.events = append(r.events, event)
}

func TestEventPublisher(t *testing.T) {
	p := NewPublisher[string]()
	first := &recordingSubscriber{}
	var second []string

	p.Register(first)
	deregister := p.Register(SubscriberFunc[string](func(event string) {
		second = append(second, event)
	}))

	p.SendEvent("created")
	deregister()
	p.SendEvent("dropped")

	assert.Equal(t, []string{"created", "dropped"}, first.events)
	assert.Equal(t, []string{"created"}, second)
}

func TestEventPublisherNil(t *testing.T) {
	var p *EventPublisher[string]
	assert.NotPanics(t, func() { p.SendEvent("ignored") })
}
