// Package lifecycle tracks every transient resource the authoring pipeline
// creates while deriving previews: decoder scratch files, rasterized page
// sets, captured frames.
//
// The Manager is the single choke point through which every handle passes.
// Analyzer and thumbnail code never clean up after themselves directly;
// they register a release function and receive an opaque Token. Release is
// guaranteed to run exactly once per handle, either explicitly when a new
// source file supersedes the old one, or implicitly via ReleaseAll on
// teardown.
//
// Relying on garbage collection for these resources is not acceptable:
// collection timing is unspecified and leaked scratch files are observable
// under repeated file-selection cycles.
package lifecycle
