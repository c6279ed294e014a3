package extract

import (
	"fmt"

	"github.com/lu4p/cat"
)

// extractOffice handles OpenDocument text and RTF, detected from the content itself.
func extractOffice(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("extract document: %w", err)
	}
	return text, nil
}
