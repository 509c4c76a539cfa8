// Package model defines the core data structures shared by a11yscan packages.
//
// This package contains the following main types:
//   - Rule: The closed enumeration of audit rules with penalties and remediation
//   - Bucket: The severity class a finding is reported under
//   - Finding: A single violation or advisory observation
//   - Report: The immutable result of one audit run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The audit engine, the design generator, the report writers and
// the history store all need these types, so centralizing them prevents import
// cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
