// Package tools exposes retrieval as plain-text operations for agents.
//
// Every Toolkit method returns a human-readable string and never an error:
// failures are reported in the text so a calling model can read them.
package tools
