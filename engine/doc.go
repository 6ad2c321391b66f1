// Package engine wires the sync queue subsystems together and provides the
// application-level API for enqueuing remote writes.
//
// The engine owns the extension registry, the attempt middleware stack, the
// queue, the connectivity monitor and, optionally, the stream broker that
// fans out failure notifications.
//
// # Building an Engine
//
//	eng, err := engine.New(
//	    engine.WithLogger(logger),
//	    engine.WithStreamBroker(),
//	    engine.WithProbe(network.HTTPProbe(nil, "https://api.example.com/health")),
//	    engine.WithExtension(relayhook.New(r)),
//	)
//	if err := eng.Start(ctx); err != nil { ... }
//	defer eng.Stop(ctx)
//
// # Enqueuing Work
//
//	eng.Enqueue(func(ctx context.Context) error {
//	    return api.SaveAnswer(ctx, examID, answer)
//	}, queue.WithName("save-answer"))
//
// # Failure Notifications
//
//	stop := eng.OnFailure(func(f engine.Failure) {
//	    ui.Toast("Could not save %s after %d attempts", f.Name, f.Retries)
//	})
//	defer stop()
//
// or subscribe to the broker's failures topic:
//
//	sub, _ := eng.SubscribeFailures("toast")
//	for evt := range sub.C() { ... }
//
// # Options
//
//   - [WithConfig]: retry policy, attempt timeout and probe interval
//   - [WithExtension]: register a lifecycle extension
//   - [WithMiddleware]: add a middleware to the attempt chain
//   - [WithBackoff]: replace the constant retry delay
//   - [WithStreamBroker]: enable topic pub/sub for lifecycle events
//   - [WithProbe], [WithMonitor]: connectivity detection
//   - [WithTracerProvider], [WithMeterProvider], [WithMetricFactory]: telemetry
package engine
