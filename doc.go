// Package sampler provides sequential (active) sampling of an unknown
// spatial or parameter-space function: it decides, one observation at a
// time, where to sample next so as to maximize information gained, using a
// Gaussian-process surrogate to predict outcomes and quantify uncertainty
// at unsampled locations. It targets experiment-design and optimization
// settings where each real observation is costly (physical sensing,
// expensive simulation) and sampling decisions must account for in-flight
// measurements that have not yet returned.
//
// # Features
//
//   - Asynchronous job lifecycle: every pick reserves a row with a virtual
//     placeholder target and returns an opaque job id, so several
//     measurements can be outstanding at once and the model state stays
//     well-defined while they are
//   - Gaussian-process decision engine: kernel-based regression with
//     hyperparameter learning, multi-task conditioning, and a catalogue of
//     acquisition functions trading exploration against exploitation
//   - Deterministic bootstrap: corner/centroid grid enumeration before
//     enough data exists for a model, uniform random sampling before that
//   - Pluggable regression engine: the Regression interface is the full
//     provider boundary; the gp subpackage ships a reference
//     implementation built on gonum
//   - Progress monitoring: best-effort pick updates via a channel
//
// # Control flow
//
// The caller repeatedly calls Pick, receives a candidate location plus a
// job id, performs the real measurement out of band, and calls Update with
// the job id and the true value. Update replaces the virtual placeholder,
// clears the row's virtual flag, and refreshes the model. A job id is
// consumed exactly once; resolving it twice fails with UnknownJobError.
//
//	cfg := sampler.DefaultConfig()
//	cfg.Provider = gp.New()
//
//	s, err := sampler.NewGaussianProcess([]float64{0, 0}, []float64{1, 1}, cfg)
//	if err != nil {
//	    // ...
//	}
//
//	location, jobID, err := s.Pick()
//	// ... run the experiment at location ...
//	row, err := s.Update(jobID, measured)
//
// # Concurrency
//
// The core is single-writer and performs no internal locking: Pick, Update,
// Train and Predict run to completion on the caller's goroutine. Callers
// needing concurrent access must serialize it externally, e.g. one sampler
// instance behind a mutex. Multiple picks may be issued before any update
// returns (that is the purpose of virtual placeholders), and updates for
// different job ids may arrive in any order.
//
// # Errors
//
// Failures are reported to the immediate caller, never retried or silently
// recovered: UnknownJobError for unissued or already-resolved job ids,
// ShapeError for row-width or target-dimension mismatches, ErrNotTrained
// for prediction before any training, and PreconditionError for operations
// invoked outside their valid domain. A failed Update leaves the targeted
// row virtual so the caller can retry with a valid id.
package sampler
