// Package bnmodel rewrites a Bayesian network model, as printed by the
// modelling stage, into the generator's JSON-like CPD block.
//
// The model is a literal mapping from vertex name to
//
//	{"pars": [parent, ...], "vals": [1, 2, ...], "cpds": {prior: {value: prob}}}
//
// where prior is a tuple of parent values, or None for the unconditional
// distribution. The None prior and None values are dropped; declared values
// are shifted to be 0-based.
package bnmodel
