//go:build integration

package document_test

import (
	"context"
	"testing"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxesispharma/emission/svc/document"
)

func TestRodRasterizer(t *testing.T) {
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("chrome not installed")
	}

	cfg := document.DefaultConfig()
	r := document.NewRodRasterizer(cfg)
	t.Cleanup(func() { _ = r.Close() })

	html := `<!doctype html><html><body style="margin:0">
<div id="settlement-note" style="width:400px;height:300px;background:#fff">
<h1>Avräkningsnota</h1>
<img src="http://127.0.0.1:1/never.png" width="10" height="10">
</div></body></html>`

	raster, err := r.Rasterize(context.Background(), []byte(html), cfg.Selector)
	require.NoError(t, err)
	b := raster.Image.Bounds()
	assert.InDelta(t, 400*cfg.Scale, b.Dx(), 2)
	assert.InDelta(t, 300*cfg.Scale, b.Dy(), 2)

	_, err = r.Rasterize(context.Background(), []byte(`<p>no note</p>`), "#missing")
	assert.Error(t, err)
}
