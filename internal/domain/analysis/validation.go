package analysis

import (
	"fmt"
	"strings"
)

// Validate checks the required fields.
func (r Request) Validate() error {
	if strings.TrimSpace(r.ImageURL) == "" {
		return fmt.Errorf("%w: image_url is required", ErrValidation)
	}
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	return nil
}
