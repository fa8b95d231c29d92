package core

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestParseMessageID(t *testing.T) {
	id := NewMessageID()
	parsed, err := ParseMessageID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseMessageID(uuid.New().String())
	require.Error(t, err)
	_, err = ParseMessageID("")
	require.Error(t, err)
}

func TestOutboundMessageExpired(t *testing.T) {
	now := time.Now()
	m := OutboundMessage{ValidUntil: now.Add(-time.Second)}
	assert.True(t, m.Expired(now))
	m.Deploy = true
	assert.False(t, m.Expired(now))
	m = OutboundMessage{ValidUntil: now.Add(time.Minute)}
	assert.False(t, m.Expired(now))
}
