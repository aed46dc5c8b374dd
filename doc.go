// Package specdoc is an engine for interpreting structured documents against
// named, versioned specifications.
//
// A Specification declares the versions it supports (one RuleSet each), the
// file extensions it can read (one Reader each), and a fixed Parser/Builder
// pair. A Registry holds Specifications by name and runs the pipeline:
//
//	resolve spec -> pick Reader by extension -> bind RuleSet (explicit or
//	default version) -> read -> parse (rules applied per element) -> build
//
// Design policy:
//   - Keep the engine core in the root package; concrete readers live under
//     reader/, builders under builder/, reusable rules under rules/.
//   - Registration happens at setup time; lookups never lock.
//   - There is no implicit "latest version" fallback: a default version must
//     be configured explicitly.
//   - Every failure is an *Error naming its stage (register, resolve, read,
//     parse, build) and matching one sentinel with errors.Is.
//
// Typical usage:
//
//	reg := specdoc.NewRegistry(specdoc.WithLogger(logger))
//	reg.MustRegister(petstore.MustNew())
//	res, err := reg.Analyze(ctx, "petstore", specdoc.Input{Extension: "yaml", Data: data})
//	res, err = reg.Analyze(ctx, "petstore", in, specdoc.WithVersion("2.0"))
package specdoc
