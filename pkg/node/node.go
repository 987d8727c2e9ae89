// Package node contains the three pipeline stages: relay, generator and
// speaker. Each stage is an independent unit driven by message arrival on
// the bus; they can share a process or run in separate ones.
//
// A stage owns one subscription, funnels deliveries into a buffered channel
// and consumes them with a single goroutine, so utterances within a pass
// are never reordered and at most one external call is in flight per stage.
package node

import (
	"github.com/M2Elsanosi/NextGen-Coach/pkg/bus"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/protocol"
)

// queueSize is the per-node delivery buffer. Deliveries beyond this while
// an external call is in flight are dropped with a log line.
const queueSize = 64

// Node states reported on the status subject.
const (
	StateStarting = "starting"
	StateReady    = "ready"
	StateStopped  = "stopped"
)

// Bus is the part of the bus client the nodes use.
// Satisfied by *bus.Client.
type Bus interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte)) (bus.Subscription, error)
}

// publishStatus sends a lifecycle notice; failures are not fatal.
func publishStatus(b Bus, subject, node, state, detail string) {
	msg, err := protocol.NewStatusMessage(node, state, detail)
	if err != nil {
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		return
	}
	_ = b.Publish(subject, data)
}
