// Command stalker is the CLI for the score ingestion daemon. It starts the
// daemon process, inspects its status over the IPC socket, browses saved week
// records, manages the punishment ledger, and runs the recognition pipeline
// over local image files.
package main
