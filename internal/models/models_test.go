package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectedAccountsColumn(t *testing.T) {
	v, err := SelectedAccounts(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)

	var s SelectedAccounts
	require.NoError(t, s.Scan([]byte(`[{"id":"fb-1","platform":"facebook","name":"Page","status":"published","publishedId":"9"}]`)))
	require.Len(t, s, 1)
	assert.Equal(t, "9", s[0].PublishedID)

	require.NoError(t, s.Scan(nil))
	assert.Empty(t, s)

	assert.Error(t, s.Scan(42))
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, ValidMediaType(MediaTypeCarousel))
	assert.False(t, ValidMediaType("gif"))
	assert.True(t, ValidPlatform(PlatformWhatsapp))
	assert.False(t, ValidPlatform("myspace"))
	assert.True(t, ValidRole(RoleViewer))
	assert.False(t, ValidRole("owner"))
	assert.True(t, ValidConversationStatus(ConversationStatusArchived))
	assert.False(t, ValidConversationStatus("closed"))
}
