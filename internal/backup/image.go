package backup

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/greenstash/greenstash/internal/model"
)

// encodeImage compresses a bitmap to PNG and returns it as standard base64.
// PNG keeps the pixel buffer byte-identical through a round trip.
func encodeImage(b *model.Bitmap) (*string, error) {
	if b == nil {
		return nil, nil
	}

	data, err := b.PNG()
	if err != nil {
		return nil, err
	}

	s := base64.StdEncoding.EncodeToString(data)
	return &s, nil
}

func decodeImage(s *string) (*model.Bitmap, error) {
	if s == nil {
		return nil, nil
	}

	data, err := base64.StdEncoding.DecodeString(*s)
	if err != nil {
		return nil, fmt.Errorf("base64: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	return model.DecodeBitmap(bytes.NewReader(data))
}
