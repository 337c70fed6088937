//go:build !llama

package backend

import "context"

// Compiled when the llama build tag is not set so default builds stay
// CGO-free. Every load fails, which the registry reports as a load failure.

type llamaDriver struct{ path string }

func newLlamaDriver(_ Options, name string) Driver { return &llamaDriver{path: name} }

func (d *llamaDriver) Load(context.Context) error {
	return ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}

func (d *llamaDriver) Generate(ctx context.Context, _ string, _ Params) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}

func (d *llamaDriver) Close() error { return nil }
