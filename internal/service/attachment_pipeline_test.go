package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/config"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
)

func TestAttachmentPath(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{"plain", "foto.jpg", "tickets/abc/foto.jpg"},
		{"unix dirs", "../../etc/passwd", "tickets/abc/passwd"},
		{"windows dirs", `C:\Users\ana\informe.pdf`, "tickets/abc/informe.pdf"},
		{"empty", "", "tickets/abc/archivo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AttachmentPath("abc", tt.file))
		})
	}
}

func TestMimeCategory(t *testing.T) {
	assert.Equal(t, "image", MimeCategory("image/png"))
	assert.Equal(t, "application", MimeCategory("application/pdf"))
	assert.Equal(t, "text", MimeCategory("Text/Plain; charset=utf-8"))
	assert.Equal(t, "application", MimeCategory(""))
}

func TestAcceptKeepsFirstFiles(t *testing.T) {
	p := NewAttachmentPipeline(newMemBlobs(), config.TicketsConfig{MaxAttachments: 2}, nil, nil)
	files := []FileUpload{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	kept := p.Accept(files)
	assert.Len(t, kept, 2)
	assert.Equal(t, "b", kept[1].Name)
	assert.Len(t, p.Accept(files[:1]), 1)
}

func TestAcceptNeverExceedsTicketLimit(t *testing.T) {
	p := NewAttachmentPipeline(newMemBlobs(), config.TicketsConfig{MaxAttachments: 8}, nil, nil)
	files := make([]FileUpload, 8)
	for i := range files {
		files[i] = FileUpload{Name: string(rune('a' + i))}
	}

	assert.Len(t, p.Accept(files), domain.MaxAttachments)
}
