// Package retry provides bounded retry with a fixed wait between attempts.
//
// The wait strategy is deliberately simple: database work in this
// application runs against a local file, so the failures worth retrying
// (SQLITE_BUSY, a transient commit error) clear within a short fixed
// interval and exponential growth buys nothing.
//
// The sleep function is injected through Config, which lets tests count
// sleeps instead of waiting for them:
//
//	cfg := retry.DefaultConfig()
//	cfg.Sleep = func(time.Duration) { calls++ }
//	err := retry.Do(ctx, cfg, fn)
package retry
