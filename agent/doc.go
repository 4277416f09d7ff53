// Package agent implements LLM-backed conversational workers and their
// composition into sequential chains.
//
// A ChatAgent binds a model, instruction text and a tool subset; running it
// drives the generate / execute-tools / regenerate turn loop and surfaces
// progress as a stream of Delta values. A Chain runs several agents in order
// over one accumulating conversation, tagging each delta with the stage that
// produced it so downstream consumers can attribute fragments to kitchen
// stations.
package agent
