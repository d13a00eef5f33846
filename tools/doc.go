// Package tools defines the Tool interface, typed function tools,
// the Registry of tools available to the model, and the Dispatcher
// that validates the model's arguments and executes the requested tool.
package tools
