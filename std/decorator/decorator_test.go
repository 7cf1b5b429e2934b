package decorator

import (
	"testing"

	"github.com/lainio/err2/assert"
)

func TestExchangeKey(t *testing.T) {
	tests := []struct {
		name   string
		thread *Thread
		msgID  string
		key    string
	}{
		{"nil thread", nil, "msg-id", "msg-id"},
		{"empty thread", &Thread{}, "msg-id", "msg-id"},
		{"thread wins", &Thread{ID: "thid"}, "msg-id", "thid"},
		{"pid only", &Thread{PID: "parent"}, "msg-id", "msg-id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			assert.Equal(ExchangeKey(tt.thread, tt.msgID), tt.key)

			// stable over repeated extraction
			assert.Equal(ExchangeKey(tt.thread, tt.msgID), tt.key)
		})
	}
}
