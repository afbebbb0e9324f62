package swagger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"

	"github.com/GabrielNunesIT/bargen/internal/domain"
)

// Validate checks that doc is a well-formed API definition by loading it with
// kin-openapi, converting it to OpenAPI 3 and running the document validator.
func Validate(ctx context.Context, doc *domain.Swagger) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode API definition: %w", err)
	}

	var v2 openapi2.T
	if err := json.Unmarshal(data, &v2); err != nil {
		return fmt.Errorf("failed to load API definition: %w", err)
	}

	v3, err := openapi2conv.ToV3(&v2)
	if err != nil {
		return fmt.Errorf("failed to convert API definition: %w", err)
	}

	if err := v3.Validate(ctx); err != nil {
		return fmt.Errorf("invalid API definition: %w", err)
	}

	return nil
}
