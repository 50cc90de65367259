package realtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/go4itsports/go-session/realtime"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisconnectWithoutConnectionIsNoop(t *testing.T) {
	c := realtime.NewNATSConnector("nats://127.0.0.1:4222")
	assert.NoError(t, c.Disconnect())
	assert.NoError(t, c.Disconnect())
	assert.False(t, c.Connected())
}

func TestConnectFailureSurfacesError(t *testing.T) {
	// Port 1 refuses connections; no retry-on-failed-connect is configured,
	// so the dial fails immediately.
	c := realtime.NewNATSConnector("nats://127.0.0.1:1",
		realtime.WithConnectOptions(nats.Timeout(200*time.Millisecond)))

	err := c.Connect(context.Background(), 42)
	require.Error(t, err)
	assert.False(t, c.Connected())

	// The connector stays reusable after a failed dial.
	assert.NoError(t, c.Disconnect())
}

func TestOptionsApply(t *testing.T) {
	var got []string
	c := realtime.NewNATSConnector("",
		realtime.WithSubjectPrefix("acme.user"),
		realtime.WithMessageHandler(func(subject string, data []byte) {
			got = append(got, subject)
		}),
	)
	require.NotNil(t, c)
	assert.False(t, c.Connected())
}
