package upstream

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/tOgg1/pedrito/internal/models"
)

const defaultPairingType = "image/png"

// pairingFields are the JSON keys that may carry the encoded image, in
// priority order.
var pairingFields = []string{"qr", "qrCode", "image", "data", "code"}

// DecodePairing turns a /qr response into an image. It accepts raw image
// bytes, a JSON envelope with an encoded string field, a JSON string, or the
// encoded string as plain text. Encoded strings may carry a data-URI prefix.
func DecodePairing(body []byte, contentType string) (models.PairingImage, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return models.PairingImage{}, ErrUndecodablePairing
	}

	if mediaType := imageType(contentType); mediaType != "" {
		return models.PairingImage{ContentType: mediaType, Data: body}, nil
	}
	if sniffed := http.DetectContentType(body); strings.HasPrefix(sniffed, "image/") {
		return models.PairingImage{ContentType: sniffed, Data: body}, nil
	}

	encoded := strings.TrimSpace(string(body))
	var doc any
	if err := json.Unmarshal(body, &doc); err == nil {
		switch v := doc.(type) {
		case string:
			encoded = v
		case map[string]any:
			encoded = ""
			for _, key := range pairingFields {
				if s, ok := v[key].(string); ok && strings.TrimSpace(s) != "" {
					encoded = s
					break
				}
			}
		default:
			encoded = ""
		}
	}
	return decodeEncoded(encoded)
}

func decodeEncoded(s string) (models.PairingImage, error) {
	s = strings.TrimSpace(s)
	mediaType := defaultPairingType
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return models.PairingImage{}, ErrUndecodablePairing
		}
		if declared := imageType(strings.TrimSuffix(s[len("data:"):comma], ";base64")); declared != "" {
			mediaType = declared
		}
		s = s[comma+1:]
	}
	if s == "" {
		return models.PairingImage{}, ErrUndecodablePairing
	}

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if data, err := enc.DecodeString(s); err == nil && len(data) > 0 {
			return models.PairingImage{ContentType: mediaType, Data: data}, nil
		}
	}
	return models.PairingImage{}, ErrUndecodablePairing
}

func imageType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return ""
	}
	return mediaType
}
