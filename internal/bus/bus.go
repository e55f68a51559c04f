// Package bus implements the in-process message transport that delivers
// inbound command messages to controller subscriptions.
//
// Topics are plain strings ("<controller>/commands", "<controller>/
// gripper_vel"). A topic has at most one subscriber; delivery invokes the
// handler synchronously in the publisher's goroutine, so handlers must be
// non-blocking. Controller handlers satisfy this by performing exactly one
// realtime-buffer write.
package bus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/arm-control/acc/internal/msg"
)

// Transport errors.
var (
	// ErrNoSubscriber indicates a publish on a topic nobody subscribed to.
	ErrNoSubscriber = errors.New("NO_SUBSCRIBER")

	// ErrTopicTaken indicates a second subscription on an occupied topic.
	ErrTopicTaken = errors.New("TOPIC_TAKEN")
)

// Bus routes typed command messages by topic name.
type Bus struct {
	mu      sync.RWMutex
	twist   map[string]func(msg.TwistStamped)
	gripper map[string]func(msg.GripperVelocity)
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		twist:   make(map[string]func(msg.TwistStamped)),
		gripper: make(map[string]func(msg.GripperVelocity)),
	}
}

// SubscribeTwist binds a twist handler to a topic.
func (b *Bus) SubscribeTwist(topic string, handler func(msg.TwistStamped)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, taken := b.twist[topic]; taken {
		return fmt.Errorf("%w: %s", ErrTopicTaken, topic)
	}
	b.twist[topic] = handler
	return nil
}

// SubscribeGripper binds a gripper velocity handler to a topic.
func (b *Bus) SubscribeGripper(topic string, handler func(msg.GripperVelocity)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, taken := b.gripper[topic]; taken {
		return fmt.Errorf("%w: %s", ErrTopicTaken, topic)
	}
	b.gripper[topic] = handler
	return nil
}

// PublishTwist delivers a twist command to the topic's subscriber.
func (b *Bus) PublishTwist(topic string, m msg.TwistStamped) error {
	b.mu.RLock()
	handler, ok := b.twist[topic]
	b.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSubscriber, topic)
	}
	handler(m)
	return nil
}

// PublishGripper delivers a gripper velocity command to the topic's subscriber.
func (b *Bus) PublishGripper(topic string, m msg.GripperVelocity) error {
	b.mu.RLock()
	handler, ok := b.gripper[topic]
	b.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSubscriber, topic)
	}
	handler(m)
	return nil
}

// UnsubscribeAll removes every subscription whose topic starts with
// prefix + "/". Used when a controller is unloaded.
func (b *Bus) UnsubscribeAll(prefix string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for topic := range b.twist {
		if hasPrefixSegment(topic, prefix) {
			delete(b.twist, topic)
		}
	}
	for topic := range b.gripper {
		if hasPrefixSegment(topic, prefix) {
			delete(b.gripper, topic)
		}
	}
}

func hasPrefixSegment(topic, prefix string) bool {
	return len(topic) > len(prefix)+1 && topic[:len(prefix)] == prefix && topic[len(prefix)] == '/'
}
