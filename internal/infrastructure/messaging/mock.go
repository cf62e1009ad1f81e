// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/mock"
)

// MockNATSConn is a mock implementation of the INatsConn interface
type MockNATSConn struct {
	mock.Mock
}

// IsConnected is a mock method for the INatsConn interface
func (m *MockNATSConn) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockJetStream is a mock implementation of the INatsJetStream interface
type MockJetStream struct {
	mock.Mock
}

// PublishMsg is a mock method for the INatsJetStream interface
func (m *MockJetStream) PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	args := m.Called(ctx, msg)
	ack, _ := args.Get(0).(*jetstream.PubAck)
	return ack, args.Error(1)
}

// fakeMsg records how a delivery was settled.
type fakeMsg struct {
	mu        sync.Mutex
	data      []byte
	headers   nats.Header
	delivered uint64
	settled   []string
	nakDelay  time.Duration
}

func (m *fakeMsg) Data() []byte         { return m.data }
func (m *fakeMsg) Headers() nats.Header { return m.headers }

func (m *fakeMsg) Metadata() (*jetstream.MsgMetadata, error) {
	return &jetstream.MsgMetadata{NumDelivered: m.delivered}, nil
}

func (m *fakeMsg) record(action string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settled = append(m.settled, action)
	return nil
}

func (m *fakeMsg) Ack() error        { return m.record("ack") }
func (m *fakeMsg) Term() error       { return m.record("term") }
func (m *fakeMsg) InProgress() error { return m.record("in_progress") }

func (m *fakeMsg) NakWithDelay(delay time.Duration) error {
	m.nakDelay = delay
	return m.record("nak")
}
