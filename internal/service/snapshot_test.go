package service

import (
	"errors"
	"testing"

	"autofill-workbench/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panickingSurface struct{}

func (panickingSurface) Normalize() (string, error) { panic("detached node") }

type failingSurface struct{}

func (failingSurface) Normalize() (string, error) { return "", errors.New("serializer broke") }

func TestCaptureSnapshot(t *testing.T) {
	const fallback = "<p>stored</p>"

	t.Run("live surface", func(t *testing.T) {
		s := mount(t, `<input name="a">`)
		require.NoError(t, s.ApplyEdit(domain.SurfaceEdit{Index: 0, Value: strPtr("x")}))
		res := CaptureSnapshot(s, fallback)
		require.NoError(t, res.Err)
		assert.False(t, res.UsedFallback)
		assert.Contains(t, res.HTML, `<input name="a" value="x"/>`)
	})

	tests := []struct {
		name    string
		surface domain.EditableSurface
	}{
		{"no surface", nil},
		{"unmounted surface", (*FormSurface)(nil)},
		{"serializer error", failingSurface{}},
		{"serializer panic", panickingSurface{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CaptureSnapshot(tt.surface, fallback)
			assert.True(t, res.UsedFallback)
			assert.Error(t, res.Err)
			assert.Equal(t, fallback, res.HTML)
		})
	}
}
