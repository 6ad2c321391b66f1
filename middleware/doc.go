// Package middleware provides composable wrappers around task attempts.
//
// The queue runs every attempt through a [Chain]. The engine installs a
// default stack of recover → tracing → metrics → logging → timeout, then
// appends user middleware.
//
// # Built-in Middleware
//
//   - [Recover]: converts a panicking task into a failed attempt
//   - [Logging]: logs each attempt with its outcome and duration
//   - [Timeout]: optional per-attempt deadline
//   - [Tracing]: one OpenTelemetry span per attempt
//   - [Metrics]: attempt duration histogram and execution counter
//
// # Writing Custom Middleware
//
//	func Auth(token string) middleware.Middleware {
//	    return func(ctx context.Context, it *item.Item, next middleware.Handler) error {
//	        return next(withToken(ctx, token))
//	    }
//	}
package middleware
