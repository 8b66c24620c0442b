package xmpp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBareJID(t *testing.T) {
	tests := []struct {
		name string
		jid  string
		want string
	}{
		{
			name: "bare JID unchanged",
			jid:  "alice@taskpilot.local",
			want: "alice@taskpilot.local",
		},
		{
			name: "resource stripped",
			jid:  "alice@taskpilot.local/phone",
			want: "alice@taskpilot.local",
		},
		{
			name: "resource with slashes",
			jid:  "alice@taskpilot.local/res/extra",
			want: "alice@taskpilot.local",
		},
		{
			name: "empty",
			jid:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BareJID(tt.jid))
		})
	}
}
