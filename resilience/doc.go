// Package resilience provides the concurrency and retry primitives the
// service is built on.
//
//   - Bulkhead: a counting semaphore; the accelerator admission gate is a
//     bulkhead of capacity one
//   - Do: retries with exponential backoff, used while waiting for inference sidecars
//     to come up at startup
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "gpu", Capacity: 1, MaxWait: time.Minute})
//	if err := bh.Acquire(ctx); err != nil {
//	    return err
//	}
//	defer bh.Release()
package resilience
