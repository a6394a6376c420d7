package guard

import "context"

// DoFallback runs op and, on error, returns val instead. The error never
// escapes; it is reported through the OnFallback hook only.
func DoFallback[T any](
	ctx context.Context,
	op func(context.Context) (T, error),
	val T,
	hooks *Hooks,
) (T, error) {
	result, err := op(ctx)
	if err == nil {
		return result, nil
	}

	hooks.emitFallback(err)

	return val, nil
}

// DoFallbackFunc runs op and, on error, delegates to fb with the causing
// error. Whatever fb returns, value or error, is the final outcome.
func DoFallbackFunc[T any](
	ctx context.Context,
	op func(context.Context) (T, error),
	fb func(error) (T, error),
	hooks *Hooks,
) (T, error) {
	result, err := op(ctx)
	if err == nil {
		return result, nil
	}

	hooks.emitFallback(err)

	return fb(err)
}
