package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{"plain", "https://storage.googleapis.com/helpdesk", "tickets/abc/foto.jpg", "https://storage.googleapis.com/helpdesk/tickets/abc/foto.jpg"},
		{"spaces and accents", "https://cdn.example.com/", "tickets/abc/informe final ñ.pdf", "https://cdn.example.com/tickets/abc/informe%20final%20%C3%B1.pdf"},
		{"leading slash", "https://cdn.example.com", "/tickets/abc/a.txt", "https://cdn.example.com/tickets/abc/a.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PublicURL(tt.base, tt.path))
		})
	}
}

func TestNewGCSStoreDefaultBaseURL(t *testing.T) {
	s := NewGCSStore(nil, "helpdesk", "")
	assert.Equal(t, "https://storage.googleapis.com/helpdesk/tickets/x/y.png", s.URL("tickets/x/y.png"))

	s = NewGCSStore(nil, "helpdesk", "https://files.meduca.gob.pa/")
	assert.Equal(t, "https://files.meduca.gob.pa/tickets/x/y.png", s.URL("tickets/x/y.png"))
}
