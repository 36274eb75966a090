package edit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rpggio/context-keeper/internal/diff"
)

// HashContent returns the sha256 hex digest used for pre/post hashes.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func validateHash(h string) (string, error) {
	h = strings.ToLower(strings.TrimSpace(h))
	if h == "" {
		return "", nil
	}
	if len(h) != sha256.Size*2 {
		return "", ErrInvalidHash
	}
	if _, err := hex.DecodeString(h); err != nil {
		return "", ErrInvalidHash
	}
	return h, nil
}

// prepared is a record request resolved to a diff payload and hashes.
type prepared struct {
	diff     string
	preHash  string
	postHash string
}

// prepare resolves the payload of req. When no diff is given it is computed
// from the supplied contents; hashes default to digests of those contents.
func prepare(req RecordRequest, label string) (prepared, error) {
	var p prepared
	var err error

	if p.preHash, err = validateHash(req.PreHash); err != nil {
		return prepared{}, err
	}
	if p.postHash, err = validateHash(req.PostHash); err != nil {
		return prepared{}, err
	}

	p.diff = req.Diff
	if strings.TrimSpace(p.diff) == "" {
		if req.NewContent == nil {
			return prepared{}, ErrMissingDiff
		}
		oldContent := ""
		if req.OldContent != nil {
			oldContent = *req.OldContent
		}
		p.diff = diff.Compute(oldContent, *req.NewContent, label)
	}

	if p.preHash == "" && req.OldContent != nil {
		p.preHash = HashContent(*req.OldContent)
	}
	if p.postHash == "" && req.NewContent != nil {
		p.postHash = HashContent(*req.NewContent)
	}
	return p, nil
}

func parseDiff(text string) (*diff.Parsed, error) {
	parsed, err := diff.Parse(text)
	if err != nil {
		detail := strings.TrimPrefix(err.Error(), diff.ErrInvalidDiff.Error()+": ")
		return nil, fmt.Errorf("%w: %s", ErrInvalidDiff, detail)
	}
	return parsed, nil
}
