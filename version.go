package arbor

// Version is the release of the arbor module and CLI.
const Version = "0.3.0"
