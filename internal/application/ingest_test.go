package app

import (
	"encoding/base64"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"healtrack/internal/domain/entity"
)

func TestIngestorDecode(t *testing.T) {
	in := NewIngestor(DefaultIngestConfig())
	raw := []byte("hello image")

	cases := map[string]string{
		"std":      base64.StdEncoding.EncodeToString(raw),
		"raw":      base64.RawStdEncoding.EncodeToString(raw),
		"data url": "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw),
		"spaces":   "  " + base64.StdEncoding.EncodeToString(raw) + "\n",
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := in.Decode(payload)
			require.NoError(t, err)
			require.Equal(t, raw, got)
		})
	}
}

func TestIngestorDecodeRejects(t *testing.T) {
	in := NewIngestor(IngestConfig{MaxBytes: 16, MinSide: 32, MaxSide: 1024})

	for name, payload := range map[string]string{
		"empty":      "",
		"not base64": "!!!not base64!!!",
		"text url":   "data:text/plain;base64,aGVsbG8=",
		"no base64":  "data:image/png,rawbytes",
		"no comma":   "data:image/png;base64",
		"too large":  base64.StdEncoding.EncodeToString(make([]byte, 64)),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := in.Decode(payload)
			require.Error(t, err)
			require.Equal(t, entity.KindInvalidImage, entity.ErrorKind(err))
		})
	}
}

func TestIngestorIngest(t *testing.T) {
	in := NewIngestor(DefaultIngestConfig())
	src := canvas(64, 48, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	img, err := in.Ingest(encodePNG(t, src))
	require.NoError(t, err)
	require.Equal(t, 64, img.Width())
	require.Equal(t, 48, img.Height())

	r, g, b := img.RGB(5, 5)
	require.Equal(t, []uint8{10, 20, 30}, []uint8{r, g, b})
}

func TestIngestorRejectsInvalid(t *testing.T) {
	in := NewIngestor(DefaultIngestConfig())

	tiny := encodePNG(t, canvas(1, 1, skinTone))
	_, err := in.Ingest(tiny)
	var invalid *entity.InvalidImageError
	require.ErrorAs(t, err, &invalid)
	require.Contains(t, invalid.Reason, "too small")

	_, err = in.Ingest([]byte("definitely not an image"))
	require.ErrorAs(t, err, &invalid)

	_, err = in.Ingest(nil)
	require.ErrorAs(t, err, &invalid)

	small := NewIngestor(IngestConfig{MaxBytes: 10, MinSide: 32, MaxSide: 1024})
	_, err = small.Ingest(encodePNG(t, canvas(64, 64, skinTone)))
	require.ErrorAs(t, err, &invalid)
}

func TestIngestorResizesLargeImages(t *testing.T) {
	in := NewIngestor(IngestConfig{MaxBytes: 5 << 20, MinSide: 32, MaxSide: 256})

	img, err := in.Ingest(encodePNG(t, canvas(512, 256, skinTone)))
	require.NoError(t, err)
	require.Equal(t, 256, img.Width())
	require.Equal(t, 128, img.Height())

	_, err = in.Ingest(encodePNG(t, canvas(2048, 40, skinTone)))
	require.Error(t, err)
	require.Equal(t, entity.KindInvalidImage, entity.ErrorKind(err))
}

func TestIngestorFlattensTransparency(t *testing.T) {
	in := NewIngestor(DefaultIngestConfig())
	src := image.NewNRGBA(image.Rect(0, 0, 40, 40))

	img, err := in.Ingest(encodePNG(t, src))
	require.NoError(t, err)
	r, g, b := img.RGB(20, 20)
	require.Equal(t, []uint8{255, 255, 255}, []uint8{r, g, b})
}
