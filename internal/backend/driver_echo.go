package backend

import "context"

// EchoDriver returns the prompt as the completion. It is meant for offline
// development and smoke tests where no model runtime is available.
type EchoDriver struct{}

func (EchoDriver) Load(context.Context) error { return nil }

func (EchoDriver) Generate(ctx context.Context, prompt string, _ Params) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return prompt, nil
}

func (EchoDriver) Close() error { return nil }
