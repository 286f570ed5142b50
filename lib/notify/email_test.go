package notify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	account, err := NewAccount("erika.musterfrau@gmx.net", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "mail.gmx.net", account.SMTP.Host)
	require.Equal(t, 587, account.SMTP.Port)

	_, err = NewAccount("not-an-address", "hunter2")
	require.Error(t, err)

	_, err = NewAccount("max@example.org", "hunter2")
	require.Error(t, err, "providers without a known SMTP host are rejected")
}
