package port

import "context"

// GenerateRequest is the narrow contract for one reasoning call. Timeout and
// cancellation policy belong to the caller's context; providers must not
// install their own deadlines.
type GenerateRequest struct {
	Prompt            string
	SystemInstruction string
	Temperature       float32
	// JSONResponse asks the provider for structured JSON output. Providers
	// that cannot enforce it fall back to prompt instructions, so the
	// response may still carry surrounding prose.
	JSONResponse bool
}

// ReasoningProvider is an external text/vision generation capability. It is
// invoked only on the deterministic failure path and is never assumed to be
// available; callers absorb every error it returns.
type ReasoningProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	GenerateWithImage(ctx context.Context, req GenerateRequest, image []byte) (string, error)

	// ModelName identifies the configured backend model for logging.
	ModelName() string
}
