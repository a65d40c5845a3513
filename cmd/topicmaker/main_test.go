package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicConfig(t *testing.T) {
	cfg := topicConfig(deletePolicy)

	require.Contains(t, cfg, "cleanup.policy")
	assert.Equal(t, "delete", *cfg["cleanup.policy"])
	assert.Equal(t, "1", *cfg["min.insync.replicas"])
	assert.Equal(t, "604800000", *cfg["retention.ms"])
}
