package sse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"videofetch/models"
)

func TestHubDeliversToSubscribersOfID(t *testing.T) {
	hub := NewHub(4)
	a := hub.Register("a")
	other := hub.Register("b")

	hub.Publish(models.DownloadProgress{RequestID: "a", Status: "start"})

	require.Equal(t, "start", (<-a.Channel).Status)
	require.Empty(t, other.Channel)
	require.Equal(t, 1, hub.Subscribers("a"))
}

func TestHubPublishDoesNotBlock(t *testing.T) {
	hub := NewHub(1)
	c := hub.Register("a")

	hub.Publish(models.DownloadProgress{RequestID: "a", Status: "start"})
	hub.Publish(models.DownloadProgress{RequestID: "a", Status: "downloading"})

	require.Len(t, c.Channel, 1)
	require.Equal(t, "start", (<-c.Channel).Status)
}

func TestHubUnregisterClosesChannel(t *testing.T) {
	hub := NewHub(0)
	c := hub.Register("a")
	hub.Unregister("a", c)

	_, ok := <-c.Channel
	require.False(t, ok)
	require.Zero(t, hub.Subscribers("a"))

	// A second unregister and a publish without subscribers are no-ops.
	hub.Unregister("a", c)
	hub.Publish(models.DownloadProgress{RequestID: "a"})
}

func TestFinal(t *testing.T) {
	require.True(t, Final(models.DownloadProgress{Status: "completed"}))
	require.True(t, Final(models.DownloadProgress{Status: "error"}))
	require.False(t, Final(models.DownloadProgress{Status: "downloading"}))
}
