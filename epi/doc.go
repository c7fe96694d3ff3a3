// Package epi provides the core renewal-process epidemic engine.
//
// # Reading Guide
//
// Start with these three files to understand the evaluation kernel:
//   - table.go: the contiguous (population, day) data layout every other
//     component indexes into
//   - infections.go: the seeding + renewal recursion that turns a
//     reproduction-number curve into daily infection increments
//   - model.go: the orchestrator that maps one flat parameter vector to a
//     scalar log-density and the latent/expected series
//
// # Architecture
//
// Specs (spec.go) are validated and frozen at construction time; the
// design assembly (design.go) resolves every covariate reference once and
// caches the resulting matrices. After construction the model is a pure
// function of the parameter vector: Evaluate holds no mutable state, so
// independent sampler chains may call it concurrently on the same Model.
//
// The parameter vector layout is owned by params.go. Blocks, in order:
// pooled coefficients, group effects, walk scales, walk states, the
// seeding rate tau, per-population seed increments, then per-series
// ascertainment coefficients and dispersions.
//
// # Key entry points
//
//   - New: validate specs, build design matrices, freeze the model
//   - Model.Evaluate: parameter vector -> log-density + latent series
//   - Model.PriorPredictive: draw parameters from the default priors and
//     evaluate with the likelihood term skipped
//   - FitCumulative: the cumulative-count warm-start pre-fit
package epi
