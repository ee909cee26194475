// Package worker checks many values concurrently against descriptors.
//
// All workers share one engine.Config, which must not be modified while
// jobs run. Results carry the typematch.Result produced by engine.Inspect,
// tagged with the job ID.
//
// Example usage:
//
//	pool := worker.NewPool(cfg, 4)
//	defer pool.Close()
//
//	go func() {
//	    for _, v := range values {
//	        pool.Submit(worker.NewJob(v, descriptor.List(descriptor.Int)))
//	    }
//	}()
//
//	for range values {
//	    r := <-pool.Results()
//	    if r.Failed() {
//	        // Handle mismatch
//	    }
//	}
//
// For a fixed slice of jobs, BatchChecker returns results in submission
// order.
package worker
