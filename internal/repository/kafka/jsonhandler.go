package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NordCoder/Barberus/internal/obs/retry"
	"github.com/go-playground/validator/v10"
)

// JSONHandler decodes each record into M and validates its struct tags before
// calling handle. Undecodable or invalid records are reported as permanent
// failures and never reach handle.
func JSONHandler[M any](v *validator.Validate, handle func(context.Context, []byte, *M) error) Handler {
	if v == nil {
		v = validator.New()
	}
	return func(ctx context.Context, key, value []byte) error {
		msg := new(M)
		if err := json.Unmarshal(value, msg); err != nil {
			return retry.Permanent(fmt.Errorf("decode: %w", err))
		}
		if err := v.StructCtx(ctx, msg); err != nil {
			return retry.Permanent(fmt.Errorf("validate: %w", err))
		}
		return handle(ctx, key, msg)
	}
}
