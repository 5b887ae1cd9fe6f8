package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOrigins(t *testing.T) {
	require.Nil(t, parseOrigins(""))

	require.Equal(t,
		[]string{"https://app.aulalink.it"},
		parseOrigins("https://app.aulalink.it"))

	require.Equal(t,
		[]string{"https://app.aulalink.it", "http://localhost:5173"},
		parseOrigins(" https://app.aulalink.it , http://localhost:5173 "))

	require.Equal(t,
		[]string{"https://app.aulalink.it"},
		parseOrigins("https://app.aulalink.it,,"))
}

func TestCacheKeys(t *testing.T) {
	sessionID := "3f1c9a52-0000-0000-0000-000000000000"

	require.Equal(t,
		"session:"+sessionID+":student:42:presence",
		CacheKey.ParticipantPresenceKey(sessionID, 42))
	require.Equal(t,
		"session:"+sessionID+":student:42:answers",
		CacheKey.ParticipantAnswersKey(sessionID, 42))
	require.Equal(t,
		"session:"+sessionID+":events",
		CacheKey.SessionEventsChannel(sessionID))
	require.Equal(t, "login:42", CacheKey.StudentLoginKey(42))
}
