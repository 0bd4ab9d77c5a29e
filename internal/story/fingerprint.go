package story

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DomainBundle is the domain prefix for bundle fingerprints.
// The version suffix allows the algorithm to change later.
const DomainBundle = "storyreel/bundle/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes a content hash of the playable part of a bundle: root,
// nodes and music. Metadata (title, export time) is excluded so re-exporting
// identical content yields the same fingerprint.
func Fingerprint(b *Bundle) (string, error) {
	payload := struct {
		RootID string        `json:"root_id"`
		Nodes  []Node        `json:"nodes"`
		Music  MusicManifest `json:"music"`
	}{b.RootID, b.Nodes, b.Music}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainBundle, bytes.TrimSpace(buf.Bytes())), nil
}
